package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/metrics"
    "github.com/iliyamo/mechanic-shop-api/internal/model"
    "github.com/iliyamo/mechanic-shop-api/internal/queue"
    "github.com/iliyamo/mechanic-shop-api/internal/repository"
)

const ticketNotOwned = "Ticket not found or unauthorized"

// TicketHandler serves the /service-tickets routes.
type TicketHandler struct {
    Tickets *repository.TicketRepo
    Events  queue.Publisher
    Metrics *metrics.Metrics
}

type createTicketReq struct {
    Description string `json:"description" validate:"required,max=300"`
}

type editMechanicsReq struct {
    AddIDs    []uint64 `json:"add_ids"`
    RemoveIDs []uint64 `json:"remove_ids"`
}

type addPartsReq struct {
    PartIDs []uint64 `json:"part_ids"`
}

type updateStatusReq struct {
    Status string `json:"status" validate:"required,max=50"`
}

// publish hands ev to the broker.  Failures are logged and counted but
// never fail the request.
func (h *TicketHandler) publish(c echo.Context, ev queue.TicketEvent) {
    ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 3*time.Second)
    defer cancel()
    if err := h.Events.PublishTicketEvent(ctx, ev); err != nil {
        c.Logger().Warnf("publish %s for ticket %d: %v", ev.Type, ev.TicketID, err)
        h.Metrics.IncEventPublished("error")
        return
    }
    h.Metrics.IncEventPublished("ok")
}

// List returns every ticket with customer, mechanics and parts.
func (h *TicketHandler) List(c echo.Context) error {
    ctx, cancel := dbContext(c)
    defer cancel()

    tickets, err := h.Tickets.ListAll(ctx)
    if err != nil {
        return storeError(c, err, "")
    }
    return c.JSON(http.StatusOK, newTicketViews(tickets))
}

// Create opens a ticket owned by the caller.
func (h *TicketHandler) Create(c echo.Context) error {
    customerID, err := subjectID(c)
    if err != nil {
        return storeError(c, err, "")
    }
    var req createTicketReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    req.Description = strings.TrimSpace(req.Description)
    if err := c.Validate(&req); err != nil {
        return invalidField(c, err, func(string) string { return "Description is required." })
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    t := &model.ServiceTicket{Description: req.Description, CustomerID: customerID}
    if err := h.Tickets.Create(ctx, t); err != nil {
        return storeError(c, err, "Customer not found.")
    }
    h.Metrics.IncTicketsCreated()
    h.publish(c, queue.TicketEvent{
        Type:       queue.EventTicketCreated,
        TicketID:   t.ID,
        CustomerID: t.CustomerID,
        Status:     t.Status,
        OccurredAt: t.CreatedAt,
    })
    return c.JSON(http.StatusCreated, echo.Map{"message": "Ticket created", "ticket_id": t.ID})
}

// MyTickets lists the caller's tickets, expanded.
func (h *TicketHandler) MyTickets(c echo.Context) error {
    customerID, err := subjectID(c)
    if err != nil {
        return storeError(c, err, "")
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    tickets, err := h.Tickets.ListByCustomer(ctx, customerID, true)
    if err != nil {
        return storeError(c, err, "")
    }
    return c.JSON(http.StatusOK, newTicketViews(tickets))
}

// ownedTicket resolves the :id ticket for the calling customer.  Missing
// and foreign tickets both answer 404.
func (h *TicketHandler) ownedTicket(ctx context.Context, c echo.Context) (*model.ServiceTicket, error) {
    customerID, err := subjectID(c)
    if err != nil {
        return nil, err
    }
    id, ok := parseID(c, "id")
    if !ok {
        return nil, repository.ErrNotFound
    }
    return h.Tickets.GetOwned(ctx, id, customerID)
}

// EditMechanics assigns and unassigns mechanics on the caller's ticket.
func (h *TicketHandler) EditMechanics(c echo.Context) error {
    var req editMechanicsReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    t, err := h.ownedTicket(ctx, c)
    if err != nil {
        return storeError(c, err, ticketNotOwned)
    }
    change, err := h.Tickets.EditMechanics(ctx, t.ID, req.AddIDs, req.RemoveIDs)
    if err != nil {
        return storeError(c, err, ticketNotOwned)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Mechanics updated",
        "added":   change.Added,
        "removed": change.Removed,
        "skipped": change.Skipped,
    })
}

// AddParts attaches inventory parts to the caller's ticket.
func (h *TicketHandler) AddParts(c echo.Context) error {
    var req addPartsReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    t, err := h.ownedTicket(ctx, c)
    if err != nil {
        return storeError(c, err, ticketNotOwned)
    }
    change, err := h.Tickets.AddParts(ctx, t.ID, req.PartIDs)
    if err != nil {
        return storeError(c, err, ticketNotOwned)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "Parts added to ticket",
        "added":   change.Added,
        "skipped": change.Skipped,
    })
}

// UpdateStatus lets any mechanic set a ticket's status.
func (h *TicketHandler) UpdateStatus(c echo.Context) error {
    mechanicID, err := subjectID(c)
    if err != nil {
        return storeError(c, err, "")
    }
    id, ok := parseID(c, "id")
    if !ok {
        return message(c, http.StatusNotFound, "Ticket not found")
    }
    var req updateStatusReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    req.Status = strings.TrimSpace(req.Status)
    if err := c.Validate(&req); err != nil {
        return invalidField(c, err, func(string) string { return "Status is required" })
    }
    status := req.Status

    ctx, cancel := dbContext(c)
    defer cancel()

    if err := h.Tickets.UpdateStatus(ctx, id, status); err != nil {
        return storeError(c, err, "Ticket not found")
    }
    t, err := h.Tickets.GetByID(ctx, id)
    if err != nil {
        return storeError(c, err, "Ticket not found")
    }
    h.publish(c, queue.TicketEvent{
        Type:       queue.EventTicketStatusChanged,
        TicketID:   t.ID,
        CustomerID: t.CustomerID,
        Status:     t.Status,
        MechanicID: &mechanicID,
        OccurredAt: time.Now().UTC(),
    })
    return message(c, http.StatusOK, "Status updated to '"+status+"'")
}
