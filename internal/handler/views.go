package handler

import (
    "time"

    "github.com/iliyamo/mechanic-shop-api/internal/model"
)

// Wire shapes.  Password hashes never leave the process.

type customerView struct {
    ID    uint64 `json:"id"`
    Name  string `json:"name"`
    Email string `json:"email"`
}

type mechanicView struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

type partView struct {
    ID    uint64  `json:"id"`
    Name  string  `json:"name"`
    Price float64 `json:"price"`
}

type ticketView struct {
    ID          uint64         `json:"id"`
    Description string         `json:"description"`
    Status      string         `json:"status"`
    CreatedAt   time.Time      `json:"created_at"`
    CustomerID  uint64         `json:"customer_id"`
    Customer    *customerView  `json:"customer,omitempty"`
    Mechanics   []mechanicView `json:"mechanics"`
    Parts       []partView     `json:"parts"`
}

type ticketSummary struct {
    ID          uint64 `json:"id"`
    Description string `json:"description"`
    Status      string `json:"status"`
}

func newCustomerView(c model.Customer) customerView {
    return customerView{ID: c.ID, Name: c.Name, Email: c.Email}
}

func newMechanicView(m model.Mechanic) mechanicView {
    return mechanicView{ID: m.ID, Name: m.Name}
}

func newPartView(p model.InventoryPart) partView {
    return partView{ID: p.ID, Name: p.Name, Price: p.Price}
}

func newTicketView(t model.ServiceTicket) ticketView {
    v := ticketView{
        ID:          t.ID,
        Description: t.Description,
        Status:      t.Status,
        CreatedAt:   t.CreatedAt.UTC(),
        CustomerID:  t.CustomerID,
        Mechanics:   make([]mechanicView, 0, len(t.Mechanics)),
        Parts:       make([]partView, 0, len(t.Parts)),
    }
    if t.Customer != nil {
        cv := newCustomerView(*t.Customer)
        v.Customer = &cv
    }
    for _, m := range t.Mechanics {
        v.Mechanics = append(v.Mechanics, newMechanicView(m))
    }
    for _, p := range t.Parts {
        v.Parts = append(v.Parts, newPartView(p))
    }
    return v
}

func newTicketViews(ts []model.ServiceTicket) []ticketView {
    out := make([]ticketView, 0, len(ts))
    for _, t := range ts {
        out = append(out, newTicketView(t))
    }
    return out
}
