package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/auth"
	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/render"
	"github.com/Freeeeeet/speaker_booking/internal/service"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// healthTimeout ограничение на ping базы в /healthz
const healthTimeout = 2 * time.Second

// Handlers обработчики HTTP-запросов
type Handlers struct {
	bookings     *service.BookingService
	admin        *service.AdminService
	availability *service.AvailabilityService
	gate         *auth.Gate
	pinger       Pinger
	cacheMaxAge  time.Duration
	logger       *zap.Logger
}

func NewHandlers(
	opts Options,
	bookings *service.BookingService,
	admin *service.AdminService,
	availability *service.AvailabilityService,
	gate *auth.Gate,
	pinger Pinger,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		bookings:     bookings,
		admin:        admin,
		availability: availability,
		gate:         gate,
		pinger:       pinger,
		cacheMaxAge:  opts.CacheMaxAge,
		logger:       logger,
	}
}

// CreateBooking POST /bookings
func (h *Handlers) CreateBooking(ctx iris.Context) {
	var req service.BookingRequest
	if err := ctx.ReadJSON(&req); err != nil {
		writeError(ctx, iris.StatusBadRequest, "invalid_body", "Request body must be a JSON object")
		return
	}

	res, err := h.bookings.Create(ctx.Request().Context(), req)
	if err != nil {
		h.writeServiceError(ctx, "create booking", err)
		return
	}

	message := "Booking created successfully"
	if !res.EmailSent {
		message = "Booking created, but the confirmation email could not be sent"
	}

	ctx.StatusCode(iris.StatusCreated)
	_ = ctx.JSON(iris.Map{
		"message":   message,
		"booking":   toResponse(res.Reservation, true),
		"emailSent": res.EmailSent,
	})
}

// GetBooking GET /bookings/{token}
func (h *Handlers) GetBooking(ctx iris.Context) {
	res, err := h.bookings.GetByToken(ctx.Request().Context(), ctx.Params().Get("token"))
	if err != nil {
		h.writeServiceError(ctx, "get booking", err)
		return
	}

	_ = ctx.JSON(iris.Map{"booking": toResponse(res, true)})
}

// UpdateBooking PUT /bookings/{token}; все поля необязательны, неизвестные отклоняются
func (h *Handlers) UpdateBooking(ctx iris.Context) {
	patch, err := readPatch(ctx)
	if err != nil {
		writeError(ctx, iris.StatusBadRequest, "invalid_body", "Request body must be a JSON object with known booking fields")
		return
	}

	res, err := h.bookings.Update(ctx.Request().Context(), ctx.Params().Get("token"), patch)
	if err != nil {
		h.writeServiceError(ctx, "update booking", err)
		return
	}

	if !res.Changed {
		_ = ctx.JSON(iris.Map{
			"message": "No changes to apply",
			"booking": toResponse(res.Reservation, true),
		})
		return
	}

	_ = ctx.JSON(iris.Map{
		"message":   "Booking updated successfully",
		"booking":   toResponse(res.Reservation, true),
		"emailSent": res.EmailSent,
	})
}

// CancelBooking DELETE /bookings/{token}
func (h *Handlers) CancelBooking(ctx iris.Context) {
	if err := h.bookings.Cancel(ctx.Request().Context(), ctx.Params().Get("token")); err != nil {
		h.writeServiceError(ctx, "cancel booking", err)
		return
	}

	_ = ctx.JSON(iris.Map{"message": "Booking cancelled successfully"})
}

// AvailableDates GET /bookings/available-dates?year&month&excludeToken
func (h *Handlers) AvailableDates(ctx iris.Context) {
	year, month, ok := monthParams(ctx)
	if !ok {
		return
	}
	excludeToken := strings.TrimSpace(ctx.URLParam("excludeToken"))

	days, err := h.bookings.ListOccupiedDays(ctx.Request().Context(), year, month, excludeToken)
	if err != nil {
		h.writeServiceError(ctx, "list occupied days", err)
		return
	}

	// Ответ с excludeToken персональный и не кешируется
	if excludeToken != "" {
		ctx.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	} else {
		ctx.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheMaxAge.Seconds())))
	}

	_ = ctx.JSON(iris.Map{"bookedDates": days})
}

// CheckDate GET /bookings/check-date?date&excludeToken
func (h *Handlers) CheckDate(ctx iris.Context) {
	raw := strings.TrimSpace(ctx.URLParam("date"))
	if raw == "" {
		writeError(ctx, iris.StatusBadRequest, "validation_failed", "date query parameter is required")
		return
	}

	day, occupant, err := h.bookings.CheckDate(ctx.Request().Context(), raw, strings.TrimSpace(ctx.URLParam("excludeToken")))
	if err != nil {
		h.writeServiceError(ctx, "check date", err)
		return
	}

	ctx.Header("Cache-Control", "no-cache")
	_ = ctx.JSON(iris.Map{
		"date":       dates.FormatDay(day),
		"isBooked":   occupant != nil,
		"isBlocked":  occupant != nil && occupant.IsBlocked(),
		"parsedDate": newParsedDate(raw, day),
	})
}

// CalendarImage GET /bookings/calendar.png?year&month; без параметров текущий месяц
func (h *Handlers) CalendarImage(ctx iris.Context) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if ctx.URLParamExists("year") || ctx.URLParamExists("month") {
		var ok bool
		if year, month, ok = monthParams(ctx); !ok {
			return
		}
	}
	if err := dates.ValidMonth(year, month); err != nil {
		writeError(ctx, iris.StatusBadRequest, "validation_failed", "year and month must form a valid month")
		return
	}

	occupancy, err := h.availability.MonthOccupancy(ctx.Request().Context(), year, time.Month(month))
	if err != nil {
		h.writeServiceError(ctx, "month occupancy", err)
		return
	}

	png, err := render.GenerateMonthImage(render.NewMonth(year, time.Month(month), now, occupancy))
	if err != nil {
		h.writeServiceError(ctx, "render calendar", err)
		return
	}

	ctx.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheMaxAge.Seconds())))
	ctx.ContentType("image/png")
	_, _ = ctx.Write(png)
}

// Health GET /healthz
func (h *Handlers) Health(ctx iris.Context) {
	pctx, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
	defer cancel()

	if err := h.pinger.Ping(pctx); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		ctx.StatusCode(iris.StatusServiceUnavailable)
		_ = ctx.JSON(iris.Map{"status": "unavailable"})
		return
	}

	_ = ctx.JSON(iris.Map{"status": "ok"})
}

// readPatch читает тело PUT целиком: Content-Length может отсутствовать (chunked).
// Пустое тело означает пустое изменение.
func readPatch(ctx iris.Context) (service.BookingPatchRequest, error) {
	var patch service.BookingPatchRequest

	body, err := ctx.GetBody()
	if err != nil {
		return patch, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return patch, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		return patch, err
	}
	if dec.More() {
		return patch, errors.New("trailing data after JSON object")
	}
	return patch, nil
}

// monthParams читает year и month; при ошибке сам отвечает 400
func monthParams(ctx iris.Context) (int, int, bool) {
	year, yerr := ctx.URLParamInt("year")
	month, merr := ctx.URLParamInt("month")
	if yerr != nil || merr != nil {
		writeError(ctx, iris.StatusBadRequest, "validation_failed", "year and month query parameters must be integers")
		return 0, 0, false
	}
	return year, month, true
}
