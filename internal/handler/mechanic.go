package handler

import (
    "errors"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/metrics"
    "github.com/iliyamo/mechanic-shop-api/internal/repository"
    "github.com/iliyamo/mechanic-shop-api/internal/utils"
)

// MechanicHandler serves the /mechanics routes.
type MechanicHandler struct {
    Mechanics  *repository.MechanicRepo
    Tokens     *utils.TokenIssuer
    Metrics    *metrics.Metrics
    BcryptCost int
}

type mechanicCredentialsReq struct {
    Name     string `json:"name" validate:"required,max=120"`
    Password string `json:"password" validate:"required,max=72"`
}

type mechanicUpdateReq struct {
    Name     *string `json:"name" validate:"omitnil,min=1,max=120"`
    Password *string `json:"password" validate:"omitnil,min=1,max=72"`
}

func credentialsMissing(string) string { return "Name and password are required." }

type mechanicRankView struct {
    ID          uint64 `json:"id"`
    Name        string `json:"name"`
    TicketCount int    `json:"ticket_count"`
}

// Register creates a mechanic account.  The name is the login identifier.
func (h *MechanicHandler) Register(c echo.Context) error {
    var req mechanicCredentialsReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    req.Name = strings.TrimSpace(req.Name)
    if err := c.Validate(&req); err != nil {
        return invalidField(c, err, credentialsMissing)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    m, err := h.Mechanics.Create(ctx, req.Name, req.Password, h.BcryptCost)
    if errors.Is(err, repository.ErrConflict) {
        return message(c, http.StatusConflict, "Mechanic already exists.")
    }
    if err != nil {
        return storeError(c, err, "")
    }
    h.Metrics.IncRegistration(utils.RoleMechanic)
    return c.JSON(http.StatusCreated, echo.Map{
        "message":  "Mechanic registered successfully!",
        "mechanic": newMechanicView(*m),
    })
}

// Login exchanges name and password for a mechanic token.
func (h *MechanicHandler) Login(c echo.Context) error {
    var req mechanicCredentialsReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    req.Name = strings.TrimSpace(req.Name)
    if err := c.Validate(&req); err != nil {
        return invalidField(c, err, credentialsMissing)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    m, err := h.Mechanics.GetByName(ctx, req.Name)
    if errors.Is(err, repository.ErrNotFound) {
        return message(c, http.StatusUnauthorized, "Invalid credentials.")
    }
    if err != nil {
        return storeError(c, err, "")
    }
    if !utils.VerifyPassword(m.PasswordHash, req.Password) {
        return message(c, http.StatusUnauthorized, "Invalid credentials.")
    }

    tok, err := h.Tokens.Issue(m.ID, utils.RoleMechanic)
    if err != nil {
        c.Logger().Errorf("issue mechanic token: %v", err)
        return message(c, http.StatusInternalServerError, "issue token failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"token": tok.Token})
}

// Protected greets the mechanic named by the token.
func (h *MechanicHandler) Protected(c echo.Context) error {
    id, err := subjectID(c)
    if err != nil {
        return storeError(c, err, "")
    }
    return message(c, http.StatusOK, fmt.Sprintf("Hello, mechanic #%d! You're cleared for repairs.", id))
}

// ByTickets ranks mechanics by how many tickets they are assigned to.
func (h *MechanicHandler) ByTickets(c echo.Context) error {
    ctx, cancel := dbContext(c)
    defer cancel()

    rows, err := h.Mechanics.RankByTicketCount(ctx)
    if err != nil {
        return storeError(c, err, "")
    }
    out := make([]mechanicRankView, 0, len(rows))
    for _, r := range rows {
        out = append(out, mechanicRankView{ID: r.ID, Name: r.Name, TicketCount: r.TicketCount})
    }
    return c.JSON(http.StatusOK, out)
}

func (h *MechanicHandler) List(c echo.Context) error {
    ctx, cancel := dbContext(c)
    defer cancel()

    ms, err := h.Mechanics.ListAll(ctx)
    if err != nil {
        return storeError(c, err, "")
    }
    out := make([]mechanicView, 0, len(ms))
    for _, m := range ms {
        out = append(out, newMechanicView(m))
    }
    return c.JSON(http.StatusOK, out)
}

// Update renames the caller or changes their password.
func (h *MechanicHandler) Update(c echo.Context) error {
    id, err := requireSelf(c, "id")
    if errors.Is(err, repository.ErrForbidden) {
        return message(c, http.StatusForbidden, "Unauthorized update attempt.")
    }
    if err != nil {
        return storeError(c, err, "")
    }
    var req mechanicUpdateReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    trimPtr(req.Name)
    if err := c.Validate(&req); err != nil {
        return invalidField(c, err, nil)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    m, err := h.Mechanics.GetByID(ctx, id)
    if err != nil {
        return storeError(c, err, "Mechanic not found.")
    }
    if req.Name != nil {
        m.Name = *req.Name
    }
    if req.Password != nil {
        hash, err := utils.HashPassword(*req.Password, h.BcryptCost)
        if err != nil {
            return storeError(c, err, "")
        }
        m.PasswordHash = hash
    }
    if err := h.Mechanics.Update(ctx, m); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return message(c, http.StatusConflict, "Mechanic already exists.")
        }
        return storeError(c, err, "Mechanic not found.")
    }
    return message(c, http.StatusOK, "Mechanic updated successfully.")
}

// Delete removes the caller's own account; their tickets stay.
func (h *MechanicHandler) Delete(c echo.Context) error {
    id, err := requireSelf(c, "id")
    if errors.Is(err, repository.ErrForbidden) {
        return message(c, http.StatusForbidden, "You are not authorized to delete this account.")
    }
    if err != nil {
        return storeError(c, err, "")
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    if err := h.Mechanics.Delete(ctx, id); err != nil {
        return storeError(c, err, "Mechanic not found.")
    }
    return message(c, http.StatusOK, "Mechanic deleted successfully.")
}
