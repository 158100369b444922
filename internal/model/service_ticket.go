package model

import "time"

// DefaultTicketStatus is assigned to every new ticket.  Status is free text;
// there is no enumerated set of states.
const DefaultTicketStatus = "Pending"

// ServiceTicket is a row in the `service_tickets` table together with its
// loaded relationships.  Customer, Mechanics and Parts are only populated by
// repository methods that expand them.
//
// Fields:
//  ID          – primary key identifier.
//  Description – what the customer reported.
//  Status      – free-form status, "Pending" on creation.
//  CreatedAt   – UTC creation time.
//  CustomerID  – owning customer (required).
type ServiceTicket struct {
    ID          uint64    // service_tickets.id
    Description string    // service_tickets.description
    Status      string    // service_tickets.status
    CreatedAt   time.Time // service_tickets.created_at
    CustomerID  uint64    // service_tickets.customer_id

    Customer  *Customer
    Mechanics []Mechanic
    Parts     []InventoryPart
}
