// Package jobs wires background processing: transactional mail delivery
// and the nightly quote-expiry sweep.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tlaloc-sg/tlaloc-erp/internal/jobs"
	"github.com/tlaloc-sg/tlaloc-erp/internal/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeExpireQuotes is the task type for the quote-expiry sweep.
	TaskTypeExpireQuotes = "quotes:expire"
)

// SendEmailPayload describes one outbound message.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an asynq task for one email.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewExpireQuotesTask constructs the sweep task. It carries no payload;
// the handler works off the database clock.
func NewExpireQuotesTask() *asynq.Task {
	return asynq.NewTask(TaskTypeExpireQuotes, nil)
}

// MailJob delivers queued emails through the configured sender.
type MailJob struct {
	sender  mail.Sender
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewMailJob constructs MailJob. A nil metrics falls back to the default
// registerer.
func NewMailJob(sender mail.Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *MailJob {
	return &MailJob{sender: sender, logger: logger, metrics: metrics}
}

// Handle processes TaskTypeSendEmail tasks.
func (j *MailJob) Handle(_ context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.jobMetrics().Track(TaskTypeSendEmail)
	if err := j.sender.Send(payload.To, payload.Subject, payload.Body); err != nil {
		j.logger.Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return tracker.End(nil)
}

func (j *MailJob) jobMetrics() *jobmetrics.Metrics {
	if j.metrics != nil {
		return j.metrics
	}
	return jobmetrics.NewMetrics(nil)
}
