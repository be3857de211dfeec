package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/cache"
	"qc-tracker/backend/internal/mailer"
	"qc-tracker/backend/internal/worker"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

type SendEmailInput struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Text    string `json:"text" validate:"required"`
}

type MailQueue interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) (string, error)
	Status(ctx context.Context, id string) (*worker.JobRecord, error)
}

type MailDispatch struct {
	Queued bool
	JobID  string
}

type OutboundMail interface {
	SendEmail(ctx context.Context, in SendEmailInput) (*MailDispatch, error)
	JobStatus(ctx context.Context, id string) (*worker.JobRecord, error)
}

// OutboundMailService hands ad-hoc emails to the queue when one is configured and
// sends them inline otherwise, or when enqueueing fails.
type OutboundMailService struct {
	queue   MailQueue
	sender  mailer.Sender
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewOutboundMailService(queue MailQueue, sender mailer.Sender, timeout time.Duration, log logrus.FieldLogger) *OutboundMailService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OutboundMailService{queue: queue, sender: sender, timeout: timeout, log: log.WithField("service", "mail")}
}

func (s *OutboundMailService) SendEmail(ctx context.Context, in SendEmailInput) (*MailDispatch, error) {
	in.To = strings.TrimSpace(in.To)
	if in.To == "" || strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Text) == "" {
		return nil, apperrors.Validation("", "Please provide to, subject, and text.")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	entry := s.log.WithField("to", in.To)
	if s.queue != nil {
		id, err := s.queue.EnqueueEmail(ctx, in.To, in.Subject, in.Text)
		if err == nil {
			entry.WithField("job_id", id).Info("email queued")
			return &MailDispatch{Queued: true, JobID: id}, nil
		}
		entry.WithError(err).Warn("mail queue unavailable, sending inline")
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.sender.Send(sctx, in.To, in.Subject, in.Text); err != nil {
		if !apperrors.IsDelivery(err) {
			err = &apperrors.DeliveryError{Recipient: in.To, Err: err}
		}
		return nil, err
	}
	entry.Info("email sent")
	return &MailDispatch{}, nil
}

// JobStatus reports the last recorded state of a queued email. Records expire a
// day after enqueue, and inline sends never have one.
func (s *OutboundMailService) JobStatus(ctx context.Context, id string) (*worker.JobRecord, error) {
	if _, err := uuid.FromString(id); err != nil {
		return nil, apperrors.InvalidID("job", id)
	}
	if s.queue == nil {
		return nil, apperrors.NotFound("Email job")
	}
	rec, err := s.queue.Status(ctx, id)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, apperrors.NotFound("Email job")
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
