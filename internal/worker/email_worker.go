package worker

// email_worker.go
// Processes email jobs from QueueEmail: welcome, password reset and team
// invitation notifications, sent through the SMTP circuit breaker.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Cozta1/sistema-encomendas-V2/internal/infra"
	"github.com/Cozta1/sistema-encomendas-V2/internal/metrics"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers one email; *infra.Mailer implements it.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	sender Sender
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(sender Sender, cb *infra.CircuitBreaker) *EmailWorker {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &EmailWorker{sender: sender, cb: cb}
}

// Process sends the email. Malformed payloads are permanent failures; SMTP
// errors and an open breaker are retried by the pool.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		metrics.EmailJobs.WithLabelValues("invalid").Inc()
		return Permanent{Err: fmt.Errorf("email_worker: invalid payload: %w", err)}
	}
	if payload.ToEmail == "" {
		metrics.EmailJobs.WithLabelValues("invalid").Inc()
		return Permanent{Err: errors.New("email_worker: empty to_email")}
	}

	err := w.cb.Execute(func() error {
		return w.sender.Send(payload.ToEmail, payload.Subject, payload.Body)
	})
	if err != nil {
		metrics.EmailJobs.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return err
	}
	metrics.EmailJobs.WithLabelValues("sent").Inc()
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: email sent")
	return nil
}
