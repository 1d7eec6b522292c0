package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/tlaloc-sg/tlaloc-erp/internal/jobs"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func newTestMailJob(sender *fakeSender) *MailJob {
	return NewMailJob(sender, slog.Default(), nil)
}

func TestMailJobDeliversPayload(t *testing.T) {
	sender := &fakeSender{}
	job := newTestMailJob(sender)

	task, err := NewSendEmailTask(SendEmailPayload{
		To:      "cliente@example.com",
		Subject: "Cotización #7 aprobada",
		Body:    "Total: $11771.00 MXN",
	})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"cliente@example.com"}, sender.sent)
}

func TestMailJobSkipsRetryOnBadPayload(t *testing.T) {
	job := newTestMailJob(&fakeSender{})

	task := asynq.NewTask(TaskTypeSendEmail, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestMailJobPropagatesSendFailure(t *testing.T) {
	sendErr := errors.New("smtp: connection refused")
	sender := &fakeSender{err: sendErr}
	job := newTestMailJob(sender)

	task, err := NewSendEmailTask(SendEmailPayload{To: "cliente@example.com"})
	require.NoError(t, err)

	require.ErrorIs(t, job.Handle(context.Background(), task), sendErr)
	require.Empty(t, sender.sent)
}

func TestExpireQuotesTaskHasNoPayload(t *testing.T) {
	task := NewExpireQuotesTask()
	require.Equal(t, TaskTypeExpireQuotes, task.Type())
	require.Empty(t, task.Payload())
}

func TestMailJobUsesInjectedMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	sender := &fakeSender{}
	job := NewMailJob(sender, slog.Default(), jobmetrics.NewMetrics(registry))

	task, err := NewSendEmailTask(SendEmailPayload{To: "cliente@example.com"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, fam := range families {
		names = append(names, fam.GetName())
	}
	require.Contains(t, names, "tlaloc_jobs_total")
}
