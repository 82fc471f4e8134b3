package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/cache"
	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/Freeeeeet/speaker_booking/internal/repository/repotest"
	"go.uber.org/zap"
)

// fakeNotifier запоминает события
type fakeNotifier struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeNotifier) record(event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeNotifier) BookingCreated(context.Context, *model.Reservation) error {
	return f.record("created")
}

func (f *fakeNotifier) BookingUpdated(context.Context, *model.Reservation) error {
	return f.record("updated")
}

func (f *fakeNotifier) BookingCancelled(context.Context, *model.Reservation) error {
	return f.record("cancelled")
}

func (f *fakeNotifier) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

var errStoreDown = errors.New("store down")

type testEnv struct {
	store        *repotest.Store
	notifier     *fakeNotifier
	availability *AvailabilityService
	bookings     *BookingService
	admin        *AdminService
}

func newTestEnv() *testEnv {
	store := repotest.NewStore()
	notifier := &fakeNotifier{}
	logger := zap.NewNop()
	availability := NewAvailabilityService(store, cache.NewMemoryCache(time.Minute), logger)

	return &testEnv{
		store:        store,
		notifier:     notifier,
		availability: availability,
		bookings:     NewBookingService(store, availability, notifier, time.Second, logger),
		admin:        NewAdminService(store, availability, logger),
	}
}

func validRequest(date, school string) BookingRequest {
	return BookingRequest{
		Date:            date,
		TimeSlot:        "9:00 AM",
		SchoolName:      school,
		ContactName:     "Jane Doe",
		Email:           "jane@example.edu",
		Phone:           "+1 (555) 010-0100",
		Address:         "1 Main St",
		City:            "Springfield",
		NumberOfTalks:   2,
		IncludeWorkshop: false,
	}
}

func day(s string) time.Time {
	t, err := dates.StandardizeString(s)
	if err != nil {
		panic(err)
	}
	return t
}
