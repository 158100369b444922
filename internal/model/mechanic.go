package model

// Mechanic is a row in the `mechanics` table.  Mechanics are linked to
// service tickets through the service_mechanics association table.
type Mechanic struct {
    ID           uint64 // mechanics.id
    Name         string // mechanics.name (unique, login name)
    PasswordHash string // mechanics.password_hash
}

// MechanicTicketCount is one row of the mechanics-by-ticket-count ranking.
type MechanicTicketCount struct {
    ID          uint64
    Name        string
    TicketCount int
}
