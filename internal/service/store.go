package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
)

// ReservationStore хранилище записей о занятости дней.
// Create и Update возвращают repository.ErrDuplicateDay при нарушении уникальности дня.
// Get/Find возвращают nil, nil если записи нет.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByToken(ctx context.Context, token string) (*model.Reservation, error)
	FindInRange(ctx context.Context, rng dates.Range, excludeToken string) (*model.Reservation, error)
	ListInRange(ctx context.Context, rng dates.Range, excludeToken string) ([]*model.Reservation, error)
	ListAll(ctx context.Context) ([]*model.Reservation, error)
	ListBlocked(ctx context.Context) ([]*model.Reservation, error)
	Update(ctx context.Context, res *model.Reservation) error
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteBlock(ctx context.Context, rng dates.Range) (bool, error)
}

// Notifier получатель событий о бронях. Ошибка не отменяет саму операцию.
type Notifier interface {
	BookingCreated(ctx context.Context, r *model.Reservation) error
	BookingUpdated(ctx context.Context, r *model.Reservation) error
	BookingCancelled(ctx context.Context, r *model.Reservation) error
}

// tokenBytes 256 бит энтропии
const tokenBytes = 32

// generateEditToken генерирует токен-право на управление одной бронью
func generateEditToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate edit token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
