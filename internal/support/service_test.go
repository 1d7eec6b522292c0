package support

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

type memoryRepo struct {
	nextID   int64
	contacts map[int64]*ContactMessage
	tickets  map[int64]*Ticket
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, contacts: map[int64]*ContactMessage{}, tickets: map[int64]*Ticket{}}
}

func (m *memoryRepo) CreateContact(_ context.Context, c ContactMessage) (int64, error) {
	c.ID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now()
	m.contacts[c.ID] = &c
	return c.ID, nil
}

func (m *memoryRepo) ListContacts(_ context.Context, unreadOnly bool) ([]ContactMessage, error) {
	var out []ContactMessage
	for _, c := range m.contacts {
		if unreadOnly && c.IsRead {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *memoryRepo) MarkContactRead(_ context.Context, id int64) error {
	c, ok := m.contacts[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.IsRead = true
	return nil
}

func (m *memoryRepo) CreateTicket(_ context.Context, t Ticket, first TicketMessage) (int64, error) {
	t.ID = m.nextID
	m.nextID++
	first.ID = m.nextID
	m.nextID++
	first.TicketID = t.ID
	t.Messages = []TicketMessage{first}
	m.tickets[t.ID] = &t
	return t.ID, nil
}

func (m *memoryRepo) GetTicket(_ context.Context, id int64) (*Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *t
	copied.Messages = append([]TicketMessage(nil), t.Messages...)
	return &copied, nil
}

func (m *memoryRepo) ListTickets(_ context.Context, customerID int64) ([]Ticket, error) {
	var out []Ticket
	for _, t := range m.tickets {
		if customerID != 0 && t.CustomerID != customerID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memoryRepo) AddMessage(_ context.Context, msg TicketMessage) error {
	t, ok := m.tickets[msg.TicketID]
	if !ok {
		return shared.ErrNotFound
	}
	msg.ID = m.nextID
	m.nextID++
	t.Messages = append(t.Messages, msg)
	return nil
}

func (m *memoryRepo) SetTicketStatus(_ context.Context, id int64, status TicketStatus) error {
	t, ok := m.tickets[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.Status = status
	return nil
}

func TestOpenTicketStartsThread(t *testing.T) {
	svc := NewService(newMemoryRepo())

	ticket, err := svc.OpenTicket(context.Background(), 7, "Leaking valve", "The valve drips after install.")
	require.NoError(t, err)
	require.Equal(t, TicketStatusOpen, ticket.Status)
	require.Len(t, ticket.Messages, 1)
	require.False(t, ticket.Messages[0].FromStaff)
}

func TestReplyAppendsToThread(t *testing.T) {
	svc := NewService(newMemoryRepo())

	ticket, err := svc.OpenTicket(context.Background(), 7, "Leaking valve", "It drips.")
	require.NoError(t, err)

	updated, err := svc.Reply(context.Background(), ticket.ID, 1, true, "Replacement on the way.")
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)
	require.True(t, updated.Messages[1].FromStaff)
}

func TestReplyToClosedTicket(t *testing.T) {
	svc := NewService(newMemoryRepo())

	ticket, err := svc.OpenTicket(context.Background(), 7, "Leaking valve", "It drips.")
	require.NoError(t, err)
	require.NoError(t, svc.Close(context.Background(), ticket.ID))

	_, err = svc.Reply(context.Background(), ticket.ID, 7, false, "Still leaking.")
	require.ErrorIs(t, err, ErrTicketClosed)
}

func TestReopenAllowsReply(t *testing.T) {
	svc := NewService(newMemoryRepo())

	ticket, err := svc.OpenTicket(context.Background(), 7, "Leaking valve", "It drips.")
	require.NoError(t, err)
	require.NoError(t, svc.Close(context.Background(), ticket.ID))
	require.NoError(t, svc.Reopen(context.Background(), ticket.ID))

	_, err = svc.Reply(context.Background(), ticket.ID, 7, false, "Still leaking.")
	require.NoError(t, err)
}

func TestContactNormalizesEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	id, err := svc.SubmitContact(context.Background(), ContactMessage{
		Name: " Ana ", Email: " Ana@Example.COM ", Subject: "Pricing", Body: "How much?",
	})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", repo.contacts[id].Email)
}
