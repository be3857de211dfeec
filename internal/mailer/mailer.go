// Package mailer delivers plain-text notification emails.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/wneessen/go-mail"
)

// Sender makes one delivery attempt per call. Failures are *apperrors.DeliveryError.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ErrInvalidRecipient marks an address rejected before the relay is contacted.
var ErrInvalidRecipient = errors.New("invalid recipient address")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type SMTPSender struct {
	config SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("smtp host and sender address are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPSender{config: cfg}, nil
}

func (s *SMTPSender) buildMessage(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.config.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipient, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg, err := s.buildMessage(to, subject, body)
	if err != nil {
		return &apperrors.DeliveryError{Recipient: to, Err: err}
	}

	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTimeout(s.config.Timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if s.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	client, err := mail.NewClient(s.config.Host, opts...)
	if err != nil {
		return &apperrors.DeliveryError{Recipient: to, Err: err}
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &apperrors.DeliveryError{Recipient: to, Err: err}
	}
	return nil
}

// BreakerSender stops calling the relay after repeated failures and fails fast
// until the breaker half-opens again.
type BreakerSender struct {
	next    Sender
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerSender(next Sender, log logrus.FieldLogger) *BreakerSender {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || RecipientRejected(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("mail circuit breaker changed state")
		},
	})
	return &BreakerSender{next: next, breaker: cb}
}

func (b *BreakerSender) Send(ctx context.Context, to, subject, body string) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, to, subject, body)
	})
	if err == nil {
		return nil
	}
	var delivery *apperrors.DeliveryError
	if errors.As(err, &delivery) {
		return err
	}
	return &apperrors.DeliveryError{Recipient: to, Err: err}
}

// RecipientRejected reports whether err concerns a single mailbox rather than
// the relay, e.g. a 550 reply to RCPT TO. Such failures say nothing about the
// relay's health.
func RecipientRejected(err error) bool {
	if errors.Is(err, ErrInvalidRecipient) {
		return true
	}
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		return sendErr.Reason == mail.ErrSMTPRcptTo || sendErr.Reason == mail.ErrGetRcpts
	}
	return false
}

func (b *BreakerSender) State() gobreaker.State {
	return b.breaker.State()
}

// LogSender writes messages to the log instead of a relay. It is used when no
// SMTP host is configured.
type LogSender struct {
	log logrus.FieldLogger
}

func NewLogSender(log logrus.FieldLogger) *LogSender {
	return &LogSender{log: log}
}

func (l *LogSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return &apperrors.DeliveryError{Recipient: to, Err: err}
	}
	l.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"bytes":   len(body),
	}).Info("email delivery skipped: smtp not configured")
	return nil
}

// ErrRelayRequired is returned by New when no relay is configured but the
// logging sender is not allowed.
var ErrRelayRequired = errors.New("smtp relay is required but EMAIL_HOST is not configured")

// New picks the SMTP relay behind a circuit breaker when EMAIL_HOST is set, and
// the logging sender otherwise.
func New(cfg config.EmailConfig, log logrus.FieldLogger) (Sender, error) {
	if cfg.Host == "" || cfg.From == "" {
		if cfg.RelayRequired {
			return nil, ErrRelayRequired
		}
		return NewLogSender(log), nil
	}
	smtp, err := NewSMTPSender(SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		From:     cfg.From,
	})
	if err != nil {
		return nil, err
	}
	return NewBreakerSender(smtp, log), nil
}
