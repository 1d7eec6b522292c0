// Package notify turns quote and order lifecycle events into queued
// emails. Enqueue failures are logged and swallowed so a broken queue
// never fails the originating request.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tlaloc-sg/tlaloc-erp/internal/auth"
	"github.com/tlaloc-sg/tlaloc-erp/internal/orders"
	"github.com/tlaloc-sg/tlaloc-erp/internal/quotes"
	"github.com/tlaloc-sg/tlaloc-erp/jobs"
)

// UserDirectory resolves recipient addresses.
type UserDirectory interface {
	Profile(ctx context.Context, userID int64) (*auth.User, error)
}

// Queue submits send-email tasks.
type Queue interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Notifier implements the quotes and orders notification hooks.
type Notifier struct {
	users  UserDirectory
	queue  Queue
	logger *slog.Logger
}

// New builds Notifier.
func New(users UserDirectory, queue Queue, logger *slog.Logger) *Notifier {
	return &Notifier{users: users, queue: queue, logger: logger}
}

// QuoteApproved emails the customer their approved quote summary.
func (n *Notifier) QuoteApproved(ctx context.Context, quote *quotes.Quote) {
	body := fmt.Sprintf(
		"Su cotización #%d ha sido aprobada.\n\nTotal: $%s MXN\n",
		quote.ID, quote.GrandTotal.StringFixed(2),
	)
	if quote.ValidUntil != nil {
		body += fmt.Sprintf("Vigente hasta: %s\n", quote.ValidUntil.Format("2006-01-02"))
	}
	n.send(ctx, quote.CustomerID, fmt.Sprintf("Cotización #%d aprobada", quote.ID), body)
}

// OrderPlaced emails the customer an order confirmation.
func (n *Notifier) OrderPlaced(ctx context.Context, order *orders.Order) {
	body := fmt.Sprintf(
		"Hemos recibido su pedido #%d.\n\nTotal: $%s MXN\nEstado: %s\n",
		order.ID, order.Total.StringFixed(2), order.Status,
	)
	n.send(ctx, order.CustomerID, fmt.Sprintf("Pedido #%d recibido", order.ID), body)
}

// OrderStatusChanged emails the customer on every lifecycle transition.
func (n *Notifier) OrderStatusChanged(ctx context.Context, order *orders.Order) {
	body := fmt.Sprintf("Su pedido #%d cambió de estado a %s.\n", order.ID, order.Status)
	n.send(ctx, order.CustomerID, fmt.Sprintf("Pedido #%d: %s", order.ID, order.Status), body)
}

func (n *Notifier) send(ctx context.Context, userID int64, subject, body string) {
	user, err := n.users.Profile(ctx, userID)
	if err != nil {
		n.logger.Warn("notify: resolve recipient",
			slog.Int64("user_id", userID), slog.Any("error", err))
		return
	}
	if _, err := n.queue.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      user.Email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		n.logger.Warn("notify: enqueue email",
			slog.String("to", user.Email), slog.Any("error", err))
	}
}
