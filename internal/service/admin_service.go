package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/Freeeeeet/speaker_booking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBlockReason причина блокировки, если админ её не указал
const DefaultBlockReason = "Blocked by admin"

// AdminService блокировка и разблокировка дней
type AdminService struct {
	store        ReservationStore
	availability *AvailabilityService
	logger       *zap.Logger
}

func NewAdminService(store ReservationStore, availability *AvailabilityService, logger *zap.Logger) *AdminService {
	return &AdminService{
		store:        store,
		availability: availability,
		logger:       logger,
	}
}

// Block закрывает день для бронирования
func (s *AdminService) Block(ctx context.Context, rawDate, reason string) (*model.Reservation, error) {
	day, err := dates.StandardizeString(rawDate)
	if err != nil {
		return nil, newValidationError("date", "must be a valid date")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultBlockReason
	}

	if err := s.ensureFree(ctx, day); err != nil {
		return nil, err
	}

	// Токен блокировки никому не выдаётся, он нужен только для уникальности колонки
	token, err := generateEditToken()
	if err != nil {
		return nil, err
	}

	block := model.NewBlock(day, reason)
	block.ID = uuid.New()
	block.EditToken = token

	if err := s.store.Create(ctx, block); err != nil {
		if errors.Is(err, repository.ErrDuplicateDay) {
			if err := s.ensureFree(ctx, day); err != nil {
				return nil, err
			}
			return nil, &DateConflictError{Day: dates.FormatDay(day)}
		}
		return nil, fmt.Errorf("create block: %w", err)
	}

	s.availability.Invalidate(ctx, day)

	s.logger.Info("Day blocked",
		zap.String("reservation_id", block.ID.String()),
		zap.String("date", dates.FormatDay(day)),
		zap.String("reason", reason),
	)

	block.EditToken = ""
	return block, nil
}

// Unblock снимает блокировку дня
func (s *AdminService) Unblock(ctx context.Context, rawDate string) (time.Time, error) {
	day, err := dates.StandardizeString(rawDate)
	if err != nil {
		return time.Time{}, newValidationError("date", "must be a valid date")
	}

	deleted, err := s.store.DeleteBlock(ctx, dates.DayRange(day))
	if err != nil {
		return time.Time{}, fmt.Errorf("unblock day: %w", err)
	}
	if !deleted {
		return time.Time{}, ErrNotFound
	}

	s.availability.Invalidate(ctx, day)

	s.logger.Info("Day unblocked", zap.String("date", dates.FormatDay(day)))
	return day, nil
}

// ListBlocked все заблокированные дни
func (s *AdminService) ListBlocked(ctx context.Context) ([]*model.Reservation, error) {
	list, err := s.store.ListBlocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blocked days: %w", err)
	}
	return stripTokens(list), nil
}

func (s *AdminService) ensureFree(ctx context.Context, day time.Time) error {
	occupant, err := s.availability.FindOccupant(ctx, day, "")
	if err != nil {
		return err
	}
	switch {
	case occupant == nil:
		return nil
	case occupant.IsBlocked():
		return fmt.Errorf("%w: %s", ErrAlreadyBlocked, dates.FormatDay(day))
	default:
		return fmt.Errorf("%w: %s", ErrAlreadyBooked, dates.FormatDay(day))
	}
}
