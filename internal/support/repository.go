package support

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/db"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// Repository persists contact messages and support tickets.
type Repository interface {
	CreateContact(ctx context.Context, m ContactMessage) (int64, error)
	ListContacts(ctx context.Context, unreadOnly bool) ([]ContactMessage, error)
	MarkContactRead(ctx context.Context, id int64) error

	CreateTicket(ctx context.Context, t Ticket, firstMessage TicketMessage) (int64, error)
	GetTicket(ctx context.Context, id int64) (*Ticket, error)
	ListTickets(ctx context.Context, customerID int64) ([]Ticket, error)
	AddMessage(ctx context.Context, m TicketMessage) error
	SetTicketStatus(ctx context.Context, id int64, status TicketStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) CreateContact(ctx context.Context, m ContactMessage) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, subject, body, is_read, created_at)
		 VALUES ($1, $2, $3, $4, false, now()) RETURNING id`,
		m.Name, m.Email, m.Subject, m.Body).Scan(&id)
	return id, err
}

func (r *repository) ListContacts(ctx context.Context, unreadOnly bool) ([]ContactMessage, error) {
	query := `SELECT id, name, email, subject, body, is_read, created_at FROM contact_messages`
	if unreadOnly {
		query += ` WHERE NOT is_read`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContactMessage
	for rows.Next() {
		var m ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) MarkContactRead(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE contact_messages SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CreateTicket(ctx context.Context, t Ticket, firstMessage TicketMessage) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO tickets (customer_id, subject, status, created_at, updated_at)
			 VALUES ($1, $2, $3, now(), now()) RETURNING id`,
			t.CustomerID, t.Subject, t.Status).Scan(&id)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO ticket_messages (ticket_id, author_id, from_staff, body, created_at)
			 VALUES ($1, $2, $3, $4, now())`,
			id, firstMessage.AuthorID, firstMessage.FromStaff, firstMessage.Body)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	var t Ticket
	err := r.db.QueryRow(ctx,
		`SELECT id, customer_id, subject, status, created_at, updated_at FROM tickets WHERE id = $1`, id,
	).Scan(&t.ID, &t.CustomerID, &t.Subject, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, ticket_id, author_id, from_staff, body, created_at
		 FROM ticket_messages WHERE ticket_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.AuthorID, &m.FromStaff, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		t.Messages = append(t.Messages, m)
	}
	return &t, rows.Err()
}

func (r *repository) ListTickets(ctx context.Context, customerID int64) ([]Ticket, error) {
	query := `SELECT id, customer_id, subject, status, created_at, updated_at FROM tickets`
	args := []any{}
	if customerID != 0 {
		query += ` WHERE customer_id = $1`
		args = append(args, customerID)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Subject, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) AddMessage(ctx context.Context, m TicketMessage) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ticket_messages (ticket_id, author_id, from_staff, body, created_at)
		 VALUES ($1, $2, $3, $4, now())`,
		m.TicketID, m.AuthorID, m.FromStaff, m.Body)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `UPDATE tickets SET updated_at = now() WHERE id = $1`, m.TicketID)
	return err
}

func (r *repository) SetTicketStatus(ctx context.Context, id int64, status TicketStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
