package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/Freeeeeet/speaker_booking/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingResult созданная или обновлённая бронь и итог отправки писем
type BookingResult struct {
	Reservation *model.Reservation
	EmailSent   bool
	Changed     bool // false для пустого изменения: ничего не сохранено и не отправлено
}

type BookingService struct {
	store         ReservationStore
	availability  *AvailabilityService
	notifier      Notifier
	validate      *validator.Validate
	notifyTimeout time.Duration
	logger        *zap.Logger
}

func NewBookingService(
	store ReservationStore,
	availability *AvailabilityService,
	notifier Notifier,
	notifyTimeout time.Duration,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		store:         store,
		availability:  availability,
		notifier:      notifier,
		validate:      newValidator(),
		notifyTimeout: notifyTimeout,
		logger:        logger,
	}
}

// Create создаёт бронь на свободный день
func (s *BookingService) Create(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	req.normalize()
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	day, err := dates.StandardizeString(req.Date)
	if err != nil {
		return nil, newValidationError("date", "must be a valid date")
	}

	// Проверяем что день свободен (окончательно решит уникальный индекс)
	if err := s.ensureFree(ctx, day, ""); err != nil {
		return nil, err
	}

	token, err := generateEditToken()
	if err != nil {
		return nil, err
	}

	res := &model.Reservation{
		ID:        uuid.New(),
		Date:      day,
		Kind:      model.OccupancyBooking,
		EditToken: token,
		Booking: &model.BookingDetails{
			TimeSlot:        model.TimeSlot(req.TimeSlot),
			SchoolName:      req.SchoolName,
			ContactName:     req.ContactName,
			Email:           req.Email,
			Phone:           req.Phone,
			Address:         req.Address,
			City:            req.City,
			NumberOfTalks:   req.NumberOfTalks,
			IncludeWorkshop: req.IncludeWorkshop,
		},
	}

	if err := s.store.Create(ctx, res); err != nil {
		if errors.Is(err, repository.ErrDuplicateDay) {
			return nil, s.lostRace(ctx, day, "")
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.availability.Invalidate(ctx, day)

	s.logger.Info("Booking created",
		zap.String("reservation_id", res.ID.String()),
		zap.String("date", dates.FormatDay(day)),
		zap.String("school", req.SchoolName),
		zap.String("time_slot", req.TimeSlot),
	)

	sent := s.notify(ctx, "created", res, s.notifier.BookingCreated)
	return &BookingResult{Reservation: res, EmailSent: sent, Changed: true}, nil
}

// GetByToken получает бронь по токену
func (s *BookingService) GetByToken(ctx context.Context, token string) (*model.Reservation, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	res, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if res == nil {
		return nil, ErrNotFound
	}

	return res, nil
}

// Update применяет частичное изменение брони по токену
func (s *BookingService) Update(ctx context.Context, token string, patch BookingPatchRequest) (*BookingResult, error) {
	existing, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if patch.isEmpty() {
		return &BookingResult{Reservation: existing}, nil
	}

	// Валидируем итоговое состояние, а не только изменённые поля
	merged := requestFrom(existing).merge(patch)
	if err := validateStruct(s.validate, merged); err != nil {
		return nil, err
	}

	changes, err := patchFrom(patch, merged)
	if err != nil {
		return nil, err
	}

	oldDay := existing.Date
	if changes.Date != nil && !dates.SameDay(*changes.Date, oldDay) {
		// Своя бронь не считается конфликтом
		if err := s.ensureFree(ctx, *changes.Date, existing.EditToken); err != nil {
			return nil, err
		}
	}

	updated := existing.Clone()
	changes.Apply(updated)

	if err := s.store.Update(ctx, updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateDay):
			return nil, s.lostRace(ctx, updated.Date, existing.EditToken)
		case errors.Is(err, repository.ErrReservationNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update booking: %w", err)
	}

	s.availability.Invalidate(ctx, oldDay, updated.Date)

	s.logger.Info("Booking updated",
		zap.String("reservation_id", updated.ID.String()),
		zap.String("old_date", dates.FormatDay(oldDay)),
		zap.String("date", dates.FormatDay(updated.Date)),
	)

	sent := s.notify(ctx, "updated", updated, s.notifier.BookingUpdated)
	return &BookingResult{Reservation: updated, EmailSent: sent, Changed: true}, nil
}

// Cancel удаляет бронь по токену
func (s *BookingService) Cancel(ctx context.Context, token string) error {
	existing, err := s.GetByToken(ctx, token)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	s.availability.Invalidate(ctx, existing.Date)

	s.logger.Info("Booking canceled",
		zap.String("reservation_id", existing.ID.String()),
		zap.String("date", dates.FormatDay(existing.Date)),
	)

	s.notify(ctx, "cancelled", existing, s.notifier.BookingCancelled)
	return nil
}

// ListAll все записи (брони и блокировки) без токенов
func (s *BookingService) ListAll(ctx context.Context) ([]*model.Reservation, error) {
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return stripTokens(list), nil
}

// ListOccupiedDays занятые дни месяца для календаря
func (s *BookingService) ListOccupiedDays(ctx context.Context, year, month int, excludeToken string) ([]string, error) {
	if err := dates.ValidMonth(year, month); err != nil {
		return nil, newValidationError("month", "year and month must form a valid month")
	}
	return s.availability.OccupiedDays(ctx, year, time.Month(month), excludeToken)
}

// CheckDate занятость конкретного дня
func (s *BookingService) CheckDate(ctx context.Context, raw, excludeToken string) (time.Time, *model.Reservation, error) {
	day, err := dates.StandardizeString(raw)
	if err != nil {
		return time.Time{}, nil, newValidationError("date", "must be a valid date")
	}

	occupant, err := s.availability.FindOccupant(ctx, day, excludeToken)
	if err != nil {
		return time.Time{}, nil, err
	}
	return day, occupant, nil
}

func (s *BookingService) ensureFree(ctx context.Context, day time.Time, excludeToken string) error {
	occupant, err := s.availability.FindOccupant(ctx, day, excludeToken)
	if err != nil {
		return err
	}
	if occupant != nil {
		return &DateConflictError{Day: dates.FormatDay(day), Blocked: occupant.IsBlocked(), Known: true}
	}
	return nil
}

// lostRace строит конфликт после нарушения уникального индекса
func (s *BookingService) lostRace(ctx context.Context, day time.Time, excludeToken string) error {
	s.logger.Info("Booking lost race on unique day", zap.String("date", dates.FormatDay(day)))

	if err := s.ensureFree(ctx, day, excludeToken); err != nil {
		return err
	}
	return &DateConflictError{Day: dates.FormatDay(day)}
}

// notify отправляет уведомление, не давая запросу отменить его, и возвращает успех
func (s *BookingService) notify(ctx context.Context, event string, res *model.Reservation, send func(context.Context, *model.Reservation) error) bool {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	if err := send(nctx, res); err != nil {
		s.logger.Error("Failed to send booking notification",
			zap.String("event", event),
			zap.String("reservation_id", res.ID.String()),
			zap.Error(err),
		)
		return false
	}
	return true
}

func requestFrom(r *model.Reservation) BookingRequest {
	req := BookingRequest{Date: dates.FormatDay(r.Date)}
	if d := r.Booking; d != nil {
		req.TimeSlot = string(d.TimeSlot)
		req.SchoolName = d.SchoolName
		req.ContactName = d.ContactName
		req.Email = d.Email
		req.Phone = d.Phone
		req.Address = d.Address
		req.City = d.City
		req.NumberOfTalks = d.NumberOfTalks
		req.IncludeWorkshop = d.IncludeWorkshop
	}
	return req
}

// patchFrom строит типизированный патч из присланных полей (значения уже нормализованы)
func patchFrom(p BookingPatchRequest, merged BookingRequest) (model.BookingPatch, error) {
	var patch model.BookingPatch

	if p.Date != nil {
		day, err := dates.StandardizeString(merged.Date)
		if err != nil {
			return patch, newValidationError("date", "must be a valid date")
		}
		patch.Date = &day
	}
	if p.TimeSlot != nil {
		slot := model.TimeSlot(merged.TimeSlot)
		patch.TimeSlot = &slot
	}
	if p.SchoolName != nil {
		patch.SchoolName = &merged.SchoolName
	}
	if p.ContactName != nil {
		patch.ContactName = &merged.ContactName
	}
	if p.Email != nil {
		patch.Email = &merged.Email
	}
	if p.Phone != nil {
		patch.Phone = &merged.Phone
	}
	if p.Address != nil {
		patch.Address = &merged.Address
	}
	if p.City != nil {
		patch.City = &merged.City
	}
	if p.NumberOfTalks != nil {
		patch.NumberOfTalks = &merged.NumberOfTalks
	}
	if p.IncludeWorkshop != nil {
		patch.IncludeWorkshop = &merged.IncludeWorkshop
	}

	return patch, nil
}

func stripTokens(list []*model.Reservation) []*model.Reservation {
	out := make([]*model.Reservation, 0, len(list))
	for _, r := range list {
		c := r.Clone()
		c.EditToken = ""
		out = append(out, c)
	}
	return out
}
