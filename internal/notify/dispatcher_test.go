package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo string
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if to == f.failTo {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeBot struct {
	params []*bot.SendMessageParams
	err    error
}

func (f *fakeBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.params = append(f.params, params)
	return &models.Message{}, f.err
}

func testReservation() *model.Reservation {
	return &model.Reservation{
		Kind:      model.OccupancyBooking,
		Date:      time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		EditToken: "abc123",
		Booking: &model.BookingDetails{
			TimeSlot:        "9:00 AM",
			SchoolName:      "Oak Hill",
			ContactName:     "Jane Doe",
			Email:           "jane@oakhill.edu",
			Phone:           "+1 555 0100",
			Address:         "1 Main St",
			City:            "Springfield",
			NumberOfTalks:   2,
			IncludeWorkshop: true,
		},
	}
}

func TestDispatcher_BookingCreated(t *testing.T) {
	mail := &fakeSender{}
	tg := &fakeBot{}
	alerter := &TelegramAlerter{bot: tg, chatID: 42}
	d := NewDispatcher(mail, alerter, "coach@example.com", "https://site.example", zap.NewNop())

	require.NoError(t, d.BookingCreated(context.Background(), testReservation()))

	require.Len(t, mail.sent, 2)
	assert.Equal(t, "jane@oakhill.edu", mail.sent[0].to)
	assert.Contains(t, mail.sent[0].subject, "2025-06-10")
	assert.Contains(t, mail.sent[0].body, "https://site.example/booking/manage/abc123")
	assert.Contains(t, mail.sent[0].body, "(with workshop)")
	assert.Equal(t, "coach@example.com", mail.sent[1].to)
	assert.NotContains(t, mail.sent[1].body, "abc123")

	require.Len(t, tg.params, 1)
	assert.Equal(t, int64(42), tg.params[0].ChatID)
	assert.Contains(t, tg.params[0].Text, "New booking")
}

func TestDispatcher_RequesterFailureReported(t *testing.T) {
	mail := &fakeSender{failTo: "jane@oakhill.edu"}
	d := NewDispatcher(mail, nil, "coach@example.com", "https://site.example", zap.NewNop())

	err := d.BookingCreated(context.Background(), testReservation())
	assert.Error(t, err)
	// Коуч всё равно получает письмо
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "coach@example.com", mail.sent[0].to)
}

func TestDispatcher_TelegramFailureIgnored(t *testing.T) {
	mail := &fakeSender{}
	alerter := &TelegramAlerter{bot: &fakeBot{err: errors.New("telegram down")}, chatID: 1}
	d := NewDispatcher(mail, alerter, "", "https://site.example", zap.NewNop())

	assert.NoError(t, d.BookingUpdated(context.Background(), testReservation()))
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].subject, "updated")
}

func TestDispatcher_CancelledNotifiesCoachOnly(t *testing.T) {
	mail := &fakeSender{}
	d := NewDispatcher(mail, nil, "coach@example.com", "https://site.example", zap.NewNop())

	require.NoError(t, d.BookingCancelled(context.Background(), testReservation()))
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "coach@example.com", mail.sent[0].to)
	assert.Contains(t, mail.sent[0].body, "Booking cancelled")
}

func TestDispatcher_MailDisabled(t *testing.T) {
	d := NewDispatcher(nil, nil, "coach@example.com", "https://site.example", zap.NewNop())
	assert.ErrorIs(t, d.BookingCreated(context.Background(), testReservation()), ErrMailDisabled)
}
