package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/cache"
	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// AvailabilityService отвечает на вопрос "занят ли день".
// Только чтение; окончательную проверку при записи делает уникальный индекс.
type AvailabilityService struct {
	store  ReservationStore
	cache  cache.DayCache
	group  singleflight.Group
	logger *zap.Logger
}

func NewAvailabilityService(store ReservationStore, dayCache cache.DayCache, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:  store,
		cache:  dayCache,
		logger: logger,
	}
}

// FindOccupant возвращает запись, занимающую день, или nil.
// Запись с excludeToken не учитывается (пользователь правит свою бронь).
func (s *AvailabilityService) FindOccupant(ctx context.Context, day time.Time, excludeToken string) (*model.Reservation, error) {
	occupant, err := s.store.FindInRange(ctx, dates.DayRange(dates.Standardize(day)), excludeToken)
	if err != nil {
		return nil, fmt.Errorf("find occupant: %w", err)
	}
	return occupant, nil
}

// IsOccupied занят ли день кем-то кроме excludeToken
func (s *AvailabilityService) IsOccupied(ctx context.Context, day time.Time, excludeToken string) (bool, error) {
	occupant, err := s.FindOccupant(ctx, day, excludeToken)
	if err != nil {
		return false, err
	}
	return occupant != nil, nil
}

// OccupiedDays список занятых дней месяца в формате YYYY-MM-DD.
// Без excludeToken результат кешируется.
func (s *AvailabilityService) OccupiedDays(ctx context.Context, year int, month time.Month, excludeToken string) ([]string, error) {
	if excludeToken != "" {
		return s.loadDays(ctx, year, month, excludeToken)
	}

	key := cache.MonthKey(year, month)
	if days, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("Availability cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return days, nil
	}

	// Параллельные промахи по одному месяцу идут в базу один раз
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		days, err := s.loadDays(ctx, year, month, "")
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, days); err != nil {
			s.logger.Warn("Availability cache write failed", zap.String("key", key), zap.Error(err))
		}
		return days, nil
	})
	if err != nil {
		return nil, err
	}

	days := v.([]string)
	out := make([]string, len(days))
	copy(out, days)
	return out, nil
}

// MonthOccupancy все записи месяца (без кеша), для календарной картинки
func (s *AvailabilityService) MonthOccupancy(ctx context.Context, year int, month time.Month) ([]*model.Reservation, error) {
	list, err := s.store.ListInRange(ctx, dates.MonthRange(year, month), "")
	if err != nil {
		return nil, fmt.Errorf("list month occupancy: %w", err)
	}
	return list, nil
}

// Invalidate сбрасывает кеш месяцев, к которым относятся дни
func (s *AvailabilityService) Invalidate(ctx context.Context, days ...time.Time) {
	keys := make([]string, 0, len(days))
	seen := make(map[string]bool, len(days))
	for _, day := range days {
		u := day.UTC()
		key := cache.MonthKey(u.Year(), u.Month())
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Availability cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *AvailabilityService) loadDays(ctx context.Context, year int, month time.Month, excludeToken string) ([]string, error) {
	list, err := s.store.ListInRange(ctx, dates.MonthRange(year, month), excludeToken)
	if err != nil {
		return nil, fmt.Errorf("list occupied days: %w", err)
	}

	days := make([]string, 0, len(list))
	for _, r := range list {
		days = append(days, dates.FormatDay(r.Date))
	}
	return days, nil
}
