package controller

import (
	"errors"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/Freeeeeet/speaker_booking/internal/service"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// reservationResponse плоское представление записи в API. Токен не отдаётся никогда.
type reservationResponse struct {
	ID              string    `json:"id"`
	Date            string    `json:"date"`
	TimeSlot        string    `json:"timeSlot"`
	SchoolName      string    `json:"schoolName,omitempty"`
	ContactName     string    `json:"contactName,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Address         string    `json:"address,omitempty"`
	City            string    `json:"city,omitempty"`
	NumberOfTalks   int       `json:"numberOfTalks,omitempty"`
	IncludeWorkshop bool      `json:"includeWorkshop"`
	IsBlocked       bool      `json:"isBlocked"`
	BlockReason     string    `json:"blockReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// toResponse строит ответ; контакты (email, телефон) только для владельца токена
func toResponse(r *model.Reservation, withContacts bool) reservationResponse {
	resp := reservationResponse{
		ID:          r.ID.String(),
		Date:        dates.FormatDay(r.Date),
		IsBlocked:   r.IsBlocked(),
		BlockReason: r.BlockReason,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if r.IsBlocked() {
		resp.TimeSlot = string(model.TimeSlotBlocked)
		return resp
	}

	if d := r.Booking; d != nil {
		resp.TimeSlot = string(d.TimeSlot)
		resp.SchoolName = d.SchoolName
		resp.ContactName = d.ContactName
		resp.Address = d.Address
		resp.City = d.City
		resp.NumberOfTalks = d.NumberOfTalks
		resp.IncludeWorkshop = d.IncludeWorkshop
		if withContacts {
			resp.Email = d.Email
			resp.Phone = d.Phone
		}
	}
	return resp
}

func toResponses(list []*model.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toResponse(r, false))
	}
	return out
}

// blockedDateResponse элемент списка заблокированных дней
type blockedDateResponse struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// parsedDateResponse как сервер понял дату из запроса
type parsedDateResponse struct {
	Input        string `json:"input"`
	Standardized string `json:"standardized"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Day          int    `json:"day"`
}

func newParsedDate(input string, day time.Time) parsedDateResponse {
	return parsedDateResponse{
		Input:        input,
		Standardized: day.Format(time.RFC3339),
		Year:         day.Year(),
		Month:        int(day.Month()),
		Day:          day.Day(),
	}
}

// writeError отдаёт ошибку в едином формате {error, message}
func writeError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	_ = ctx.JSON(iris.Map{"error": code, "message": message})
}

// writeServiceError переводит ошибки сервисов в HTTP-статусы
func (h *Handlers) writeServiceError(ctx iris.Context, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		ctx.StatusCode(iris.StatusBadRequest)
		_ = ctx.JSON(iris.Map{"error": "validation_failed", "message": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, service.ErrDateConflict):
		writeError(ctx, iris.StatusConflict, "date_conflict", err.Error())
	case errors.Is(err, service.ErrAlreadyBlocked):
		writeError(ctx, iris.StatusConflict, "already_blocked", err.Error())
	case errors.Is(err, service.ErrAlreadyBooked):
		writeError(ctx, iris.StatusConflict, "already_booked", err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(ctx, iris.StatusNotFound, "not_found", "Booking not found")
	default:
		h.logger.Error("Request failed",
			zap.String("op", op),
			zap.String("path", ctx.Path()),
			zap.Error(err),
		)
		writeError(ctx, iris.StatusInternalServerError, "internal_error", "Something went wrong, please try again later")
	}
}
