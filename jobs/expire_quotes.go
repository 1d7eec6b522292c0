package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/tlaloc-sg/tlaloc-erp/internal/jobs"
	"github.com/tlaloc-sg/tlaloc-erp/internal/quotes"
)

// ExpireQuotesJob flags approved quotes whose validity window has passed.
// Expired quotes can no longer be converted into orders.
type ExpireQuotesJob struct {
	db      *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewExpireQuotesJob constructs ExpireQuotesJob. A nil metrics falls back to
// the default registerer.
func NewExpireQuotesJob(db *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpireQuotesJob {
	return &ExpireQuotesJob{db: db, logger: logger, metrics: metrics}
}

// Handle processes TaskTypeExpireQuotes tasks.
func (j *ExpireQuotesJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.jobMetrics().Track(TaskTypeExpireQuotes)
	tag, err := j.db.Exec(ctx,
		`UPDATE quotes SET status = $1, updated_at = now()
		 WHERE status = $2 AND valid_until IS NOT NULL AND valid_until < now()`,
		quotes.QuoteStatusExpired, quotes.QuoteStatusApproved)
	if err != nil {
		j.logger.Error("expire quotes", slog.Any("error", err))
		return tracker.End(err)
	}
	if n := tag.RowsAffected(); n > 0 {
		j.logger.Info("quotes expired", slog.Int64("count", n))
	}
	return tracker.End(nil)
}

func (j *ExpireQuotesJob) jobMetrics() *jobmetrics.Metrics {
	if j.metrics != nil {
		return j.metrics
	}
	return jobmetrics.NewMetrics(nil)
}
