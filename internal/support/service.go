package support

import (
	"context"
	"fmt"
	"strings"
)

// Service owns contact and ticket flows.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SubmitContact stores a public inquiry.
func (s *Service) SubmitContact(ctx context.Context, m ContactMessage) (int64, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	return s.repo.CreateContact(ctx, m)
}

// ListContacts returns inquiries, optionally only unread ones.
func (s *Service) ListContacts(ctx context.Context, unreadOnly bool) ([]ContactMessage, error) {
	return s.repo.ListContacts(ctx, unreadOnly)
}

// MarkContactRead flags an inquiry as handled.
func (s *Service) MarkContactRead(ctx context.Context, id int64) error {
	return s.repo.MarkContactRead(ctx, id)
}

// OpenTicket starts a ticket thread with the customer's first message.
func (s *Service) OpenTicket(ctx context.Context, customerID int64, subject, body string) (*Ticket, error) {
	ticket := Ticket{CustomerID: customerID, Subject: strings.TrimSpace(subject), Status: TicketStatusOpen}
	first := TicketMessage{AuthorID: customerID, FromStaff: false, Body: body}
	id, err := s.repo.CreateTicket(ctx, ticket, first)
	if err != nil {
		return nil, fmt.Errorf("support: open ticket: %w", err)
	}
	return s.repo.GetTicket(ctx, id)
}

// GetTicket fetches a ticket with its thread.
func (s *Service) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	return s.repo.GetTicket(ctx, id)
}

// ListTickets returns tickets; customerID zero lists all.
func (s *Service) ListTickets(ctx context.Context, customerID int64) ([]Ticket, error) {
	return s.repo.ListTickets(ctx, customerID)
}

// Reply appends a message to an open ticket.
func (s *Service) Reply(ctx context.Context, ticketID, authorID int64, fromStaff bool, body string) (*Ticket, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == TicketStatusClosed {
		return nil, ErrTicketClosed
	}
	msg := TicketMessage{TicketID: ticketID, AuthorID: authorID, FromStaff: fromStaff, Body: body}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("support: reply: %w", err)
	}
	return s.repo.GetTicket(ctx, ticketID)
}

// Close ends a ticket thread.
func (s *Service) Close(ctx context.Context, ticketID int64) error {
	return s.repo.SetTicketStatus(ctx, ticketID, TicketStatusClosed)
}

// Reopen restores a closed ticket.
func (s *Service) Reopen(ctx context.Context, ticketID int64) error {
	return s.repo.SetTicketStatus(ctx, ticketID, TicketStatusOpen)
}
