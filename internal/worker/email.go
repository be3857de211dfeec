package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"qc-tracker/backend/internal/mailer"
)

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func NewEmailHandler(sender mailer.Sender) JobHandler {
	return func(ctx context.Context, job *Job) error {
		var p EmailPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return fmt.Errorf("invalid email payload: %w", err)
		}
		return sender.Send(ctx, p.To, p.Subject, p.Body)
	}
}
