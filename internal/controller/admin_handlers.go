package controller

import (
	"errors"
	"strings"

	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/service"
	"github.com/kataras/iris/v12"
)

type blockDateRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// ListBlockedDates GET /admin/blocked-dates
func (h *Handlers) ListBlockedDates(ctx iris.Context) {
	list, err := h.admin.ListBlocked(ctx.Request().Context())
	if err != nil {
		h.writeServiceError(ctx, "list blocked dates", err)
		return
	}

	out := make([]blockedDateResponse, 0, len(list))
	for _, r := range list {
		out = append(out, blockedDateResponse{
			ID:        r.ID.String(),
			Date:      dates.FormatDay(r.Date),
			Reason:    r.BlockReason,
			CreatedAt: r.CreatedAt,
		})
	}

	_ = ctx.JSON(iris.Map{"blockedDates": out})
}

// BlockDate POST /admin/blocked-dates {date, reason?}
func (h *Handlers) BlockDate(ctx iris.Context) {
	var req blockDateRequest
	if err := ctx.ReadJSON(&req); err != nil {
		writeError(ctx, iris.StatusBadRequest, "invalid_body", "Request body must be a JSON object")
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		writeError(ctx, iris.StatusBadRequest, "validation_failed", "date is required")
		return
	}

	block, err := h.admin.Block(ctx.Request().Context(), req.Date, req.Reason)
	if err != nil {
		h.writeServiceError(ctx, "block date", err)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	_ = ctx.JSON(iris.Map{
		"message": "Date blocked successfully",
		"blockedDate": blockedDateResponse{
			ID:        block.ID.String(),
			Date:      dates.FormatDay(block.Date),
			Reason:    block.BlockReason,
			CreatedAt: block.CreatedAt,
		},
	})
}

// UnblockDate DELETE /admin/blocked-dates?date=
func (h *Handlers) UnblockDate(ctx iris.Context) {
	raw := strings.TrimSpace(ctx.URLParam("date"))
	if raw == "" {
		writeError(ctx, iris.StatusBadRequest, "validation_failed", "date query parameter is required")
		return
	}

	day, err := h.admin.Unblock(ctx.Request().Context(), raw)
	if errors.Is(err, service.ErrNotFound) {
		writeError(ctx, iris.StatusNotFound, "not_found", "Date is not blocked")
		return
	}
	if err != nil {
		h.writeServiceError(ctx, "unblock date", err)
		return
	}

	_ = ctx.JSON(iris.Map{"message": "Date unblocked successfully", "date": dates.FormatDay(day)})
}

// ListBookings GET /admin/bookings: брони и блокировки без токенов и контактов
func (h *Handlers) ListBookings(ctx iris.Context) {
	list, err := h.bookings.ListAll(ctx.Request().Context())
	if err != nil {
		h.writeServiceError(ctx, "list bookings", err)
		return
	}

	_ = ctx.JSON(iris.Map{"bookings": toResponses(list)})
}
