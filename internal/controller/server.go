// Package controller HTTP-граница сервиса бронирования на iris.
package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/auth"
	"github.com/Freeeeeet/speaker_booking/internal/service"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// Pinger проверка доступности хранилища для /healthz
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options настройки HTTP-слоя
type Options struct {
	// CacheMaxAge max-age для публичного списка занятых дней
	CacheMaxAge time.Duration
	// TrustProxy брать IP клиента из X-Forwarded-For / X-Real-Ip
	TrustProxy bool
}

// Server собирает iris-приложение со всеми маршрутами
type Server struct {
	app      *iris.Application
	handlers *Handlers
	logger   *zap.Logger
}

func NewServer(
	opts Options,
	bookings *service.BookingService,
	admin *service.AdminService,
	availability *service.AvailabilityService,
	gate *auth.Gate,
	pinger Pinger,
	logger *zap.Logger,
) *Server {
	app := iris.New()
	// Логируем сами через zap
	app.Logger().SetLevel("disable")

	if opts.TrustProxy {
		app.Configure(iris.WithRemoteAddrHeader("X-Real-Ip", "X-Forwarded-For"))
	}

	h := NewHandlers(opts, bookings, admin, availability, gate, pinger, logger)

	s := &Server{
		app:      app,
		handlers: h,
		logger:   logger,
	}
	s.registerRoutes()

	return s
}

// registerRoutes регистрирует все маршруты
func (s *Server) registerRoutes() {
	h := s.handlers

	s.app.UseRouter(AccessLog(s.logger))

	s.app.Get("/healthz", h.Health)

	bookings := s.app.Party("/bookings")
	{
		bookings.Post("/", h.CreateBooking)
		bookings.Get("/available-dates", h.AvailableDates)
		bookings.Get("/check-date", h.CheckDate)
		bookings.Get("/calendar.png", h.CalendarImage)
		bookings.Get("/{token:string}", h.GetBooking)
		bookings.Put("/{token:string}", h.UpdateBooking)
		bookings.Delete("/{token:string}", h.CancelBooking)
	}

	// Пароль проверяется на каждом запросе
	admin := s.app.Party("/admin", h.RequireAdmin)
	{
		admin.Get("/blocked-dates", h.ListBlockedDates)
		admin.Post("/blocked-dates", h.BlockDate)
		admin.Delete("/blocked-dates", h.UnblockDate)
		admin.Get("/bookings", h.ListBookings)
	}
}

// App iris-приложение (для тестов и встраивания)
func (s *Server) App() *iris.Application {
	return s.app
}

// Listen блокируется до остановки сервера
func (s *Server) Listen(addr string) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.app.Listen(addr,
		iris.WithoutServerError(iris.ErrServerClosed),
		iris.WithoutStartupLog,
	)
}

// Shutdown дожидается завершения активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.Shutdown(ctx)
}
