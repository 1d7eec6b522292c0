package support

import (
	"errors"
	"time"
)

// TicketStatus enumerates ticket states.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "OPEN"
	TicketStatusClosed TicketStatus = "CLOSED"
)

// ErrTicketClosed indicates a reply to a closed ticket.
var ErrTicketClosed = errors.New("support: ticket is closed")

// ContactMessage is an unauthenticated inquiry from the public site.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket is a support thread opened by an authenticated customer.
type Ticket struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	Subject    string          `json:"subject"`
	Status     TicketStatus    `json:"status"`
	Messages   []TicketMessage `json:"messages,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TicketMessage is one entry in a ticket thread.
type TicketMessage struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	AuthorID  int64     `json:"author_id"`
	FromStaff bool      `json:"from_staff"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
