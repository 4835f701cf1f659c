package effects

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonwraymond/supportbot/action"
)

// Ticket priorities. DefaultPriority applies when none is given.
var Priorities = []string{"low", "normal", "high", "urgent"}

const DefaultPriority = "normal"

// Ticket is a support ticket held by a TicketDesk.
type Ticket struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TicketDesk stores tickets in memory, numbering them TICKET-0001 onwards.
type TicketDesk struct {
	mu      sync.RWMutex
	seq     int
	tickets map[string]Ticket
	order   []string
}

// NewTicketDesk creates an empty desk.
func NewTicketDesk() *TicketDesk {
	return &TicketDesk{tickets: make(map[string]Ticket)}
}

// CreateTicket handles create_ticket invocations.
func (d *TicketDesk) CreateTicket(ctx context.Context, inv action.Invocation) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	description, err := requireString(inv.Arguments, "description")
	if err != nil {
		return nil, err
	}
	priority := stringArg(inv.Arguments, "priority")
	if priority == "" {
		priority = DefaultPriority
	}
	if !slices.Contains(Priorities, priority) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}
	title := stringArg(inv.Arguments, "title")
	if title == "" {
		title = summarize(description)
	}

	d.mu.Lock()
	d.seq++
	t := Ticket{
		ID:          fmt.Sprintf("TICKET-%04d", d.seq),
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      "open",
		CreatedAt:   inv.Timestamp,
	}
	d.tickets[t.ID] = t
	d.order = append(d.order, t.ID)
	d.mu.Unlock()

	return map[string]any{
		"ticketId": t.ID,
		"priority": t.Priority,
		"message":  fmt.Sprintf("Ticket %s created with %s priority", t.ID, t.Priority),
	}, nil
}

// Get returns a ticket by ID.
func (d *TicketDesk) Get(id string) (Ticket, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tickets[id]
	if !ok {
		return Ticket{}, fmt.Errorf("%w: %s", ErrTicketNotFound, id)
	}
	return t, nil
}

// List returns all tickets in creation order.
func (d *TicketDesk) List() []Ticket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Ticket, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.tickets[id])
	}
	return out
}

func summarize(s string) string {
	const limit = 60
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
