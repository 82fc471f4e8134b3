package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/app"
	"github.com/Freeeeeet/speaker_booking/internal/auth"
	"github.com/Freeeeeet/speaker_booking/internal/cache"
	"github.com/Freeeeeet/speaker_booking/internal/config"
	"github.com/Freeeeeet/speaker_booking/internal/controller"
	"github.com/Freeeeeet/speaker_booking/internal/notify"
	"github.com/Freeeeeet/speaker_booking/internal/ratelimit"
	"github.com/Freeeeeet/speaker_booking/internal/repository"
	"github.com/Freeeeeet/speaker_booking/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout время на завершение активных запросов
const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting speaker booking service",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr),
		zap.Bool("mail_enabled", cfg.Mail.Enabled()),
		zap.Bool("telegram_enabled", cfg.Telegram.Enabled()),
		zap.Bool("redis_cache", cfg.Cache.RedisURL != ""),
	)

	// База данных
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("create db pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	repo := repository.NewReservationRepository(pool)

	limiter := ratelimit.New(ratelimit.Options{
		MaxAttempts: cfg.Limits.MaxAttempts,
		Window:      cfg.Limits.Window,
		Lockout:     cfg.Limits.Lockout,
	})

	scheduler := app.NewScheduler(cfg.Limits.SweepInterval, logger)
	scheduler.Register("admin_rate_limiter", limiter)

	// Кеш занятых дней: Redis если задан, иначе в памяти процесса
	var dayCache cache.DayCache
	if cfg.Cache.RedisURL != "" {
		client, err := cache.NewRedisClient(cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("create redis client: %w", err)
		}
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis is unreachable, cache reads will fall through to the database", zap.Error(err))
		}
		dayCache = cache.NewRedisCache(client, cfg.Cache.AvailabilityTTL)
	} else {
		memCache := cache.NewMemoryCache(cfg.Cache.AvailabilityTTL)
		scheduler.Register("availability_cache", memCache)
		dayCache = memCache
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	availability := service.NewAvailabilityService(repo, dayCache, logger)
	bookings := service.NewBookingService(repo, availability, notifier, cfg.NotifyTimeout, logger)
	admin := service.NewAdminService(repo, availability, logger)
	gate := auth.NewGate(cfg.AdminPassword, limiter, logger)

	server := controller.NewServer(
		controller.Options{
			CacheMaxAge: cfg.Cache.AvailabilityTTL,
			TrustProxy:  cfg.TrustProxy,
		},
		bookings, admin, availability, gate, repo, logger,
	)

	scheduler.Start(ctx)
	defer scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Listen(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newNotifier собирает почту и Telegram; выключенные каналы не подключаются
func newNotifier(cfg *config.Config, logger *zap.Logger) (*notify.Dispatcher, error) {
	var mail notify.Sender
	if cfg.Mail.Enabled() {
		mailer, err := notify.NewMailer(cfg.Mail, cfg.NotifyTimeout)
		if err != nil {
			return nil, fmt.Errorf("create mailer: %w", err)
		}
		mail = mailer
	} else {
		logger.Warn("SMTP is not configured, confirmation emails are disabled")
	}

	var alerts notify.Alerter
	if cfg.Telegram.Enabled() {
		alerter, err := notify.NewTelegramAlerter(cfg.Telegram.Token, cfg.Telegram.CoachChatID)
		if err != nil {
			return nil, fmt.Errorf("create telegram alerter: %w", err)
		}
		alerts = alerter
	}

	return notify.NewDispatcher(mail, alerts, cfg.Mail.CoachEmail, cfg.PublicBaseURL, logger), nil
}
