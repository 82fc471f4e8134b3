package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper чистит протухшие записи и возвращает сколько удалено
type Sweeper interface {
	Sweep() int
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	interval time.Duration
	tasks    map[string]Sweeper
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		tasks:    make(map[string]Sweeper),
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Register добавляет задачу очистки; вызывать до Start
func (s *Scheduler) Register(name string, task Sweeper) {
	s.tasks[name] = task
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	go s.runSweepTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

func (s *Scheduler) runSweepTask(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			s.logger.Info("Sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Sweep task cancelled")
			return
		}
	}
}

// sweep проходит по всем задачам один раз
func (s *Scheduler) sweep() {
	for name, task := range s.tasks {
		if removed := task.Sweep(); removed > 0 {
			s.logger.Debug("Swept expired entries", zap.String("task", name), zap.Int("removed", removed))
		}
	}
}
