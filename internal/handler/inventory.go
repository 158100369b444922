package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/model"
    "github.com/iliyamo/mechanic-shop-api/internal/repository"
)

// InventoryHandler serves the /inventory routes.
type InventoryHandler struct {
    Parts   *repository.InventoryRepo
    Tickets *repository.TicketRepo
}

type partReq struct {
    Name  *string  `json:"name" validate:"required,min=1,max=150"`
    Price *float64 `json:"price" validate:"required,gte=0"`
}

// partPatchReq is partReq with every field optional.
type partPatchReq struct {
    Name  *string  `json:"name" validate:"omitnil,min=1,max=150"`
    Price *float64 `json:"price" validate:"omitnil,gte=0"`
}

type attachPartReq struct {
    PartID uint64 `json:"part_id"`
}

func partMissing(string) string { return "Name and price required." }

func (h *InventoryHandler) List(c echo.Context) error {
    ctx, cancel := dbContext(c)
    defer cancel()

    parts, err := h.Parts.ListAll(ctx)
    if err != nil {
        return storeError(c, err, "")
    }
    out := make([]partView, 0, len(parts))
    for _, p := range parts {
        out = append(out, newPartView(p))
    }
    return c.JSON(http.StatusOK, out)
}

// Create adds a part; name and a non-negative price are required.
func (h *InventoryHandler) Create(c echo.Context) error {
    var req partReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    trimPtr(req.Name)
    if err := c.Validate(&req); err != nil {
        return invalidField(c, err, partMissing)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    p := &model.InventoryPart{Name: *req.Name, Price: *req.Price}
    if err := h.Parts.Create(ctx, p); err != nil {
        return storeError(c, err, "")
    }
    return c.JSON(http.StatusCreated, newPartView(*p))
}

// Update changes name and/or price; omitted fields keep their value.
func (h *InventoryHandler) Update(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return message(c, http.StatusNotFound, "Part not found.")
    }
    var req partPatchReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    trimPtr(req.Name)
    if err := c.Validate(&req); err != nil {
        return invalidField(c, err, nil)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    p, err := h.Parts.GetByID(ctx, id)
    if err != nil {
        return storeError(c, err, "Part not found.")
    }
    if req.Name != nil {
        p.Name = *req.Name
    }
    if req.Price != nil {
        p.Price = *req.Price
    }
    if err := h.Parts.Update(ctx, p); err != nil {
        return storeError(c, err, "Part not found.")
    }
    return c.JSON(http.StatusOK, newPartView(*p))
}

func (h *InventoryHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return message(c, http.StatusNotFound, "Part not found.")
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    if err := h.Parts.Delete(ctx, id); err != nil {
        return storeError(c, err, "Part not found.")
    }
    return message(c, http.StatusOK, "Part deleted.")
}

// AttachToTicket lets any mechanic attach one part to any ticket.  Attaching
// a part twice is a no-op.
func (h *InventoryHandler) AttachToTicket(c echo.Context) error {
    ticketID, ok := parseID(c, "ticketId")
    if !ok {
        return message(c, http.StatusNotFound, "Ticket not found.")
    }
    var req attachPartReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    if _, err := h.Tickets.GetByID(ctx, ticketID); err != nil {
        return storeError(c, err, "Ticket not found.")
    }
    if _, err := h.Parts.GetByID(ctx, req.PartID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return message(c, http.StatusNotFound, "Invalid part ID.")
        }
        return storeError(c, err, "")
    }
    if _, err := h.Tickets.AddParts(ctx, ticketID, []uint64{req.PartID}); err != nil {
        return storeError(c, err, "Ticket not found.")
    }
    return message(c, http.StatusOK, "Part added to ticket.")
}
