// Package repotest содержит хранилище броней в памяти для тестов.
// Уникальность дня проверяется под мьютексом так же, как уникальный индекс в Postgres.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/Freeeeeet/speaker_booking/internal/repository"
)

type Store struct {
	mu      sync.Mutex
	records map[string]*model.Reservation // id -> запись
	failAll error
}

func NewStore() *Store {
	return &Store{records: make(map[string]*model.Reservation)}
}

// FailWith заставляет все чтения и Create возвращать err (nil отключает)
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = err
}

// Len количество записей
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) dayTaken(day time.Time, exceptID string) bool {
	for id, r := range s.records {
		if id != exceptID && dates.SameDay(r.Date, day) {
			return true
		}
	}
	return false
}

func (s *Store) Create(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}

	if s.dayTaken(res.Date, "") {
		return repository.ErrDuplicateDay
	}
	now := time.Now()
	res.CreatedAt, res.UpdatedAt = now, now
	s.records[res.ID.String()] = res.Clone()
	return nil
}

func (s *Store) GetByToken(_ context.Context, token string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}

	for _, r := range s.records {
		if r.EditToken == token && r.Kind == model.OccupancyBooking {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

func (s *Store) inRange(rng dates.Range, excludeToken string) []*model.Reservation {
	var out []*model.Reservation
	for _, r := range s.records {
		if rng.Contains(r.Date) && (excludeToken == "" || r.EditToken != excludeToken) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (s *Store) FindInRange(_ context.Context, rng dates.Range, excludeToken string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}

	list := s.inRange(rng, excludeToken)
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListInRange(_ context.Context, rng dates.Range, excludeToken string) ([]*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	return s.inRange(rng, excludeToken), nil
}

func (s *Store) ListAll(_ context.Context) ([]*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	return s.inRange(dates.Range{End: time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)}, ""), nil
}

func (s *Store) ListBlocked(ctx context.Context) ([]*model.Reservation, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Reservation, 0, len(all))
	for _, r := range all {
		if r.IsBlocked() {
			out = append(out, r)
		}
	}
	return out, nil
}

// Update меняет бронь по ID; токен и вид записи не меняются
func (s *Store) Update(_ context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := res.ID.String()
	current, ok := s.records[id]
	if !ok || current.Kind != model.OccupancyBooking {
		return repository.ErrReservationNotFound
	}
	if s.dayTaken(res.Date, id) {
		return repository.ErrDuplicateDay
	}
	res.UpdatedAt = time.Now()
	stored := res.Clone()
	stored.EditToken = current.EditToken
	stored.Kind = current.Kind
	stored.CreatedAt = current.CreatedAt
	s.records[id] = stored
	return nil
}

func (s *Store) DeleteByToken(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.records {
		if r.EditToken == token && r.Kind == model.OccupancyBooking {
			delete(s.records, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteBlock(_ context.Context, rng dates.Range) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.records {
		if r.IsBlocked() && rng.Contains(r.Date) {
			delete(s.records, id)
			return true, nil
		}
	}
	return false, nil
}

// Ping всегда успешен
func (s *Store) Ping(context.Context) error {
	return nil
}
