package model

// Customer is a row in the `customers` table.  A customer owns zero or
// more service tickets through service_tickets.customer_id.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – unique display name, also used in /customers/:username routes.
//  Email        – unique login email.
//  PasswordHash – bcrypt hash; never serialized.
type Customer struct {
    ID           uint64 // customers.id
    Name         string // customers.name
    Email        string // customers.email
    PasswordHash string // customers.password_hash
}
