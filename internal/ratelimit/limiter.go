package ratelimit

import (
	"sync"
	"time"
)

// Options параметры лимитера
type Options struct {
	MaxAttempts int           // неудачных попыток в окне до блокировки
	Window      time.Duration // скользящее окно подсчёта
	Lockout     time.Duration // длительность блокировки
}

// DefaultOptions 5 попыток за 15 минут, блокировка на 30 минут
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
		Lockout:     30 * time.Minute,
	}
}

// Status результат проверки или попытки
type Status struct {
	Blocked           bool
	RemainingAttempts int
	BlockDuration     time.Duration // сколько ещё длится блокировка
}

type entry struct {
	count        int
	firstAttempt time.Time
	blockedUntil time.Time // zero если блокировки нет
}

func (e *entry) locked() bool {
	return !e.blockedUntil.IsZero()
}

// Limiter считает неудачные попытки по идентификатору клиента (IP).
// Состояние живёт только в памяти процесса.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	opts    Options
	now     func() time.Time
}

// New создаёт лимитер
func New(opts Options) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		opts:    opts,
		now:     time.Now,
	}
}

// WithClock подменяет источник времени (для тестов)
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Options возвращает параметры лимитера
func (l *Limiter) Options() Options {
	return l.opts
}

// RecordAttempt фиксирует результат попытки входа
func (l *Limiter) RecordAttempt(id string, success bool) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	if success {
		delete(l.entries, id)
		return Status{RemainingAttempts: l.opts.MaxAttempts}
	}

	now := l.now()
	e := l.current(id, now)

	if e != nil && e.locked() {
		return l.statusOf(e, now)
	}

	if e == nil {
		// Новое окно
		e = &entry{firstAttempt: now}
		l.entries[id] = e
	}

	e.count++
	if e.count >= l.opts.MaxAttempts {
		e.blockedUntil = now.Add(l.opts.Lockout)
	}

	return l.statusOf(e, now)
}

// IsBlocked true пока действует блокировка.
// Истёкшие записи удаляются при проверке.
func (l *Limiter) IsBlocked(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.current(id, l.now())
	return e != nil && e.locked()
}

// Status возвращает состояние без записи попытки
func (l *Limiter) Status(id string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e := l.current(id, now)
	if e == nil {
		return Status{RemainingAttempts: l.opts.MaxAttempts}
	}
	return l.statusOf(e, now)
}

// Sweep удаляет все истёкшие записи, возвращает сколько удалено
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, e := range l.entries {
		if l.expired(e, now) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// Len количество отслеживаемых идентификаторов
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// current возвращает живую запись или nil, удаляя истёкшую. Вызывать под mu.
func (l *Limiter) current(id string, now time.Time) *entry {
	e, ok := l.entries[id]
	if !ok {
		return nil
	}
	if l.expired(e, now) {
		delete(l.entries, id)
		return nil
	}
	return e
}

func (l *Limiter) expired(e *entry, now time.Time) bool {
	if e.locked() {
		return !now.Before(e.blockedUntil)
	}
	return now.Sub(e.firstAttempt) >= l.opts.Window
}

func (l *Limiter) statusOf(e *entry, now time.Time) Status {
	if e.locked() {
		return Status{
			Blocked:       true,
			BlockDuration: e.blockedUntil.Sub(now),
		}
	}
	remaining := l.opts.MaxAttempts - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Status{RemainingAttempts: remaining}
}
