package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mechanic-shop-api/internal/metrics"
    "github.com/iliyamo/mechanic-shop-api/internal/repository"
    "github.com/iliyamo/mechanic-shop-api/internal/utils"
)

// CustomerHandler serves the /customers routes.
type CustomerHandler struct {
    Customers  *repository.CustomerRepo
    Tickets    *repository.TicketRepo
    Tokens     *utils.TokenIssuer
    Metrics    *metrics.Metrics
    BcryptCost int
}

// Emails are bare addresses ("a@b.com", never "Name <a@b.com>") on every
// path that writes or looks one up.
type customerRegisterReq struct {
    Name     string `json:"name" validate:"required,max=120"`
    Email    string `json:"email" validate:"required,email,max=120"`
    Password string `json:"password" validate:"required,max=72"`
}

type customerLoginReq struct {
    Email    *string `json:"email" validate:"required,email"`
    Password *string `json:"password" validate:"required"`
}

type customerUpdateReq struct {
    Name     *string `json:"name" validate:"omitnil,min=1,max=120"`
    Email    *string `json:"email" validate:"omitnil,email,max=120"`
    Password *string `json:"password" validate:"omitnil,min=1,max=72"`
}

func trimPtr(s *string) {
    if s != nil {
        *s = strings.TrimSpace(*s)
    }
}

func missingField(field string) string { return "Missing field: " + field }

// Register creates a customer account.
func (h *CustomerHandler) Register(c echo.Context) error {
    var req customerRegisterReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    req.Name = strings.TrimSpace(req.Name)
    req.Email = strings.TrimSpace(req.Email)
    if err := c.Validate(&req); err != nil {
        return invalidField(c, err, missingField)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    cust, err := h.Customers.Create(ctx, req.Name, req.Email, req.Password, h.BcryptCost)
    if errors.Is(err, repository.ErrConflict) {
        return message(c, http.StatusConflict, "Name or email already registered.")
    }
    if err != nil {
        return storeError(c, err, "")
    }
    h.Metrics.IncRegistration(utils.RoleCustomer)
    return c.JSON(http.StatusCreated, newCustomerView(*cust))
}

// Login exchanges email and password for a customer token.
func (h *CustomerHandler) Login(c echo.Context) error {
    var req customerLoginReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    trimPtr(req.Email)
    if err := c.Validate(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid login payload", "errors": fieldErrors(err)})
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    cust, err := h.Customers.GetByEmail(ctx, *req.Email)
    if errors.Is(err, repository.ErrNotFound) {
        return message(c, http.StatusUnauthorized, "Invalid credentials")
    }
    if err != nil {
        return storeError(c, err, "")
    }
    if !utils.VerifyPassword(cust.PasswordHash, *req.Password) {
        return message(c, http.StatusUnauthorized, "Invalid credentials")
    }

    tok, err := h.Tokens.Issue(cust.ID, utils.RoleCustomer)
    if err != nil {
        c.Logger().Errorf("issue customer token: %v", err)
        return message(c, http.StatusInternalServerError, "issue token failed")
    }
    return c.JSON(http.StatusOK, echo.Map{"token": tok.Token})
}

// List returns one page of customers.
func (h *CustomerHandler) List(c echo.Context) error {
    pageNum, perPage := page(c)

    ctx, cancel := dbContext(c)
    defer cancel()

    custs, total, err := h.Customers.List(ctx, perPage, (pageNum-1)*perPage)
    if err != nil {
        return storeError(c, err, "")
    }
    views := make([]customerView, 0, len(custs))
    for _, cu := range custs {
        views = append(views, newCustomerView(cu))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "customers":    views,
        "total":        total,
        "pages":        (total + perPage - 1) / perPage,
        "current_page": pageNum,
    })
}

// TicketsByUsername lists the caller's tickets.  The path name must be the
// caller's own; the lookup is by token id, never by name.
func (h *CustomerHandler) TicketsByUsername(c echo.Context) error {
    sid, err := subjectID(c)
    if err != nil {
        return storeError(c, err, "")
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    cust, err := h.Customers.GetByID(ctx, sid)
    if errors.Is(err, repository.ErrNotFound) || (err == nil && cust.Name != c.Param("username")) {
        return message(c, http.StatusForbidden, "Unauthorized or customer not found.")
    }
    if err != nil {
        return storeError(c, err, "")
    }

    tickets, err := h.Tickets.ListByCustomer(ctx, cust.ID, false)
    if err != nil {
        return storeError(c, err, "")
    }
    out := make([]ticketSummary, 0, len(tickets))
    for _, t := range tickets {
        out = append(out, ticketSummary{ID: t.ID, Description: t.Description, Status: t.Status})
    }
    return c.JSON(http.StatusOK, out)
}

// Update changes the caller's own name, email or password.  Omitted fields
// keep their current value.
func (h *CustomerHandler) Update(c echo.Context) error {
    id, err := requireSelf(c, "id")
    if errors.Is(err, repository.ErrForbidden) {
        return message(c, http.StatusForbidden, "Unauthorized update attempt.")
    }
    if err != nil {
        return storeError(c, err, "")
    }
    var req customerUpdateReq
    if err := c.Bind(&req); err != nil {
        return invalidBody(c)
    }
    trimPtr(req.Name)
    trimPtr(req.Email)
    if err := c.Validate(&req); err != nil {
        return invalidField(c, err, nil)
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    cust, err := h.Customers.GetByID(ctx, id)
    if err != nil {
        return storeError(c, err, "Customer not found.")
    }
    if req.Name != nil {
        cust.Name = *req.Name
    }
    if req.Email != nil {
        cust.Email = *req.Email
    }
    if req.Password != nil {
        hash, err := utils.HashPassword(*req.Password, h.BcryptCost)
        if err != nil {
            return storeError(c, err, "")
        }
        cust.PasswordHash = hash
    }
    if err := h.Customers.Update(ctx, cust); err != nil {
        return storeError(c, err, "Customer not found.")
    }
    return c.JSON(http.StatusOK, newCustomerView(*cust))
}

// Delete removes the caller's own account and everything it owns.
func (h *CustomerHandler) Delete(c echo.Context) error {
    id, err := requireSelf(c, "id")
    if errors.Is(err, repository.ErrForbidden) {
        return message(c, http.StatusForbidden, "You are not authorized to delete this account.")
    }
    if err != nil {
        return storeError(c, err, "")
    }

    ctx, cancel := dbContext(c)
    defer cancel()

    if err := h.Customers.Delete(ctx, id); err != nil {
        return storeError(c, err, "Customer not found.")
    }
    return message(c, http.StatusOK, "Customer deleted successfully.")
}
