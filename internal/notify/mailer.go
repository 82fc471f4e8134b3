package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/config"
	"github.com/wneessen/go-mail"
)

// Sender отправляет одно письмо
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Mailer отправка писем через SMTP
type Mailer struct {
	client *mail.Client
	from   string
}

// NewMailer создаёт SMTP-клиент по конфигу
func NewMailer(cfg config.MailConfig, timeout time.Duration) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &Mailer{client: client, from: cfg.From}, nil
}

// Send отправляет текстовое письмо
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
