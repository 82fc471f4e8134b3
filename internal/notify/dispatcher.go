package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/speaker_booking/internal/model"
	"go.uber.org/zap"
)

// ErrMailDisabled почта не настроена, письма не отправляются
var ErrMailDisabled = errors.New("mail delivery is not configured")

// Dispatcher рассылает уведомления о брони заявителю и коучу.
// Ошибка означает, что хотя бы одно письмо не ушло; Telegram на неё не влияет.
type Dispatcher struct {
	mail       Sender  // nil если почта не настроена
	alerts     Alerter // nil если Telegram не настроен
	coachEmail string
	baseURL    string
	logger     *zap.Logger
}

func NewDispatcher(mail Sender, alerts Alerter, coachEmail, baseURL string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		mail:       mail,
		alerts:     alerts,
		coachEmail: coachEmail,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// BookingCreated подтверждение заявителю и уведомление коучу
func (d *Dispatcher) BookingCreated(ctx context.Context, r *model.Reservation) error {
	data := newMessageData(r, d.baseURL)
	subject := fmt.Sprintf("Booking confirmed: %s", data.Day)

	errRequester := d.sendTemplate(ctx, data.Booking.Email, subject, "confirmation", data)
	errCoach := d.notifyCoach(ctx, "New booking", data)

	return errors.Join(errRequester, errCoach)
}

// BookingUpdated уведомление об изменении заявителю и коучу
func (d *Dispatcher) BookingUpdated(ctx context.Context, r *model.Reservation) error {
	data := newMessageData(r, d.baseURL)
	subject := fmt.Sprintf("Booking updated: %s", data.Day)

	errRequester := d.sendTemplate(ctx, data.Booking.Email, subject, "updated", data)
	errCoach := d.notifyCoach(ctx, "Booking updated", data)

	return errors.Join(errRequester, errCoach)
}

// BookingCancelled уведомление только коучу
func (d *Dispatcher) BookingCancelled(ctx context.Context, r *model.Reservation) error {
	data := newMessageData(r, d.baseURL)
	return d.notifyCoach(ctx, "Booking cancelled", data)
}

func (d *Dispatcher) notifyCoach(ctx context.Context, title string, data messageData) error {
	body, err := render("coach", data)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%s: %s\n\n%s", title, data.Day, body)

	if d.alerts != nil {
		if err := d.alerts.Alert(ctx, text); err != nil {
			d.logger.Error("Failed to send coach alert", zap.String("day", data.Day), zap.Error(err))
		}
	}

	if d.coachEmail == "" {
		return nil
	}
	return d.send(ctx, d.coachEmail, fmt.Sprintf("%s: %s, %s", title, data.Booking.SchoolName, data.Day), text)
}

func (d *Dispatcher) sendTemplate(ctx context.Context, to, subject, name string, data messageData) error {
	body, err := render(name, data)
	if err != nil {
		return err
	}
	return d.send(ctx, to, subject, body)
}

func (d *Dispatcher) send(ctx context.Context, to, subject, body string) error {
	if d.mail == nil {
		return ErrMailDisabled
	}
	if err := d.mail.Send(ctx, to, subject, body); err != nil {
		d.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}
	return nil
}
