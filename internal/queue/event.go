// Package queue defines the ticket events exchanged over the message broker,
// the publisher used by the API and the consumer behind consume-events.
package queue

import "time"

// TicketEventsQueue is the durable queue carrying TicketEvent messages.
const TicketEventsQueue = "service_ticket.events"

// Event types.
const (
    EventTicketCreated       = "ticket.created"
    EventTicketStatusChanged = "ticket.status_changed"
)

// TicketEvent is published after a service ticket is opened or its status
// changes.  MechanicID is set when a mechanic performed the change.
type TicketEvent struct {
    Type       string    `json:"type"`
    TicketID   uint64    `json:"ticket_id"`
    CustomerID uint64    `json:"customer_id"`
    Status     string    `json:"status"`
    MechanicID *uint64   `json:"mechanic_id,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`
}
