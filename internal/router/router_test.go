package router_test

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/mechanic-shop-api/internal/config"
	"github.com/iliyamo/mechanic-shop-api/internal/queue"
	"github.com/iliyamo/mechanic-shop-api/internal/router"
	"github.com/iliyamo/mechanic-shop-api/internal/testutil"
	"github.com/iliyamo/mechanic-shop-api/internal/utils"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.TicketEvent
}

func (p *recordingPublisher) PublishTicketEvent(_ context.Context, ev queue.TicketEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) all() []queue.TicketEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.TicketEvent(nil), p.events...)
}

type app struct {
	t      *testing.T
	e      *echo.Echo
	db     *sql.DB
	cfg    config.Config
	events *recordingPublisher
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := testutil.NewTestDB(t)
	cfg := testutil.TestConfig()
	events := &recordingPublisher{}
	e := router.New(router.Deps{
		DB:        db,
		Config:    cfg,
		RateLimit: config.RateLimitConfig{Enabled: true, Capacity: 5, Window: time.Minute, KeyStrategy: "ip_route", Prefix: "rl"},
		Cache: config.CacheConfig{
			Enabled:     true,
			Backend:     config.CacheBackendMemory,
			Methods:     map[string]bool{http.MethodGet: true},
			TTL:         time.Minute,
			KeyStrategy: "route",
			Prefix:      "cache",
		},
		Events: events,
	})
	return &app{t: t, e: e, db: db, cfg: cfg, events: events}
}

func (a *app) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := testutil.NewJSONRequest(a.t, method, path, body)
	if token != "" {
		testutil.WithBearer(req, token)
	}
	return testutil.DoRequest(a.e, req)
}

func (a *app) count(table string) int {
	a.t.Helper()
	var n int
	require.NoError(a.t, a.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func (a *app) registerCustomer(name, email string) uint64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/customers/register", echo.Map{"name": name, "email": email, "password": "pw"}, "")
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint64(testutil.Decode[map[string]any](a.t, rec)["id"].(float64))
}

func (a *app) loginCustomer(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/customers/login", echo.Map{"email": email, "password": "pw"}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return testutil.Decode[map[string]string](a.t, rec)["token"]
}

func (a *app) registerMechanic(name string) uint64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/mechanics/register", echo.Map{"name": name, "password": "pw"}, "")
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	body := testutil.Decode[map[string]any](a.t, rec)
	return uint64(body["mechanic"].(map[string]any)["id"].(float64))
}

func (a *app) loginMechanic(name string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/mechanics/login", echo.Map{"name": name, "password": "pw"}, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return testutil.Decode[map[string]string](a.t, rec)["token"]
}

func (a *app) createTicket(token, description string) uint64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/service-tickets", echo.Map{"description": description}, token)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint64(testutil.Decode[map[string]any](a.t, rec)["ticket_id"].(float64))
}

func (a *app) createPart(token, name string, price float64) uint64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/inventory", echo.Map{"name": name, "price": price}, token)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint64(testutil.Decode[map[string]any](a.t, rec)["id"].(float64))
}

func TestOperationalEndpoints(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = a.do(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, testutil.Message(t, rec))

	a.registerMechanic("Mike")
	rec = a.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mechanic_shop_registrations_total{role="mechanic"} 1`)
	assert.Contains(t, rec.Body.String(), "mechanic_shop_http_requests_total")

	rec = a.do(http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", testutil.Message(t, rec))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRegisterCustomerThenDuplicate(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodPost, "/customers/register", echo.Map{"name": "Alice", "email": "alice@x.com", "password": "pw"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	body := testutil.Decode[map[string]any](t, rec)
	assert.Equal(t, "Alice", body["name"])
	assert.Equal(t, "alice@x.com", body["email"])
	assert.NotZero(t, body["id"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")

	rec = a.do(http.MethodPost, "/customers/register", echo.Map{"name": "Alice B", "email": "alice@x.com", "password": "pw"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, a.count("customers"))
}

func TestRegisterCustomerMissingField(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/customers/register", echo.Map{"name": "Alice", "password": "pw"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing field: email", testutil.Message(t, rec))

	rec = a.do(http.MethodPost, "/customers/register", "not an object", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, a.count("customers"))
}

func TestCustomerLoginRoundTrip(t *testing.T) {
	a := newApp(t)
	id := a.registerCustomer("Alice", "alice@x.com")

	tok := a.loginCustomer("alice@x.com")
	claims, err := utils.NewTokenIssuer(a.cfg.JWTSecret, 0).Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, id, claims.SubjectID)
	assert.Equal(t, utils.RoleCustomer, claims.Role)

	rec := a.do(http.MethodPost, "/customers/login", echo.Map{"email": "alice@x.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", testutil.Message(t, rec))

	rec = a.do(http.MethodPost, "/customers/login", echo.Map{"email": "ghost@x.com", "password": "pw"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCustomerLoginValidatesShape(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodPost, "/customers/login", echo.Map{"email": "not-an-email", "password": "pw"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := testutil.Decode[map[string]any](t, rec)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "email")

	rec = a.do(http.MethodPost, "/customers/login", echo.Map{}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs = testutil.Decode[map[string]any](t, rec)["errors"].(map[string]any)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestMechanicLoginIsRateLimited(t *testing.T) {
	a := newApp(t)
	a.registerMechanic("Mike")

	for i := 0; i < 5; i++ {
		rec := a.do(http.MethodPost, "/mechanics/login", echo.Map{"name": "Mike", "password": "bad"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}
	rec := a.do(http.MethodPost, "/mechanics/login", echo.Map{"name": "Mike", "password": "pw"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// separate bucket per route
	rec = a.do(http.MethodPost, "/customers/login", echo.Map{"email": "x@x.com", "password": "pw"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuards(t *testing.T) {
	a := newApp(t)
	a.registerCustomer("Alice", "alice@x.com")
	a.registerMechanic("Mike")
	cust := a.loginCustomer("alice@x.com")
	mech := a.loginMechanic("Mike")

	rec := a.do(http.MethodGet, "/mechanics/protected", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing token", testutil.Message(t, rec))

	rec = a.do(http.MethodGet, "/mechanics/protected", nil, "garbage.token.value")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", testutil.Message(t, rec))

	rec = a.do(http.MethodGet, "/mechanics/protected", nil, cust)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized role", testutil.Message(t, rec))

	rec = a.do(http.MethodGet, "/mechanics/protected", nil, mech)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, testutil.Message(t, rec), "mechanic #")

	rec = a.do(http.MethodPost, "/service-tickets", echo.Map{"description": "x"}, mech)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	foreign, err := utils.NewTokenIssuer("someone-else", time.Hour).Issue(1, utils.RoleMechanic)
	require.NoError(t, err)
	rec = a.do(http.MethodGet, "/mechanics/protected", nil, foreign.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardRunsBeforeLimiter(t *testing.T) {
	a := newApp(t)
	a.registerMechanic("Mike")
	mech := a.loginMechanic("Mike")

	for i := 0; i < 6; i++ {
		rec := a.do(http.MethodPost, "/inventory", echo.Map{"name": "x", "price": 1}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := a.do(http.MethodPost, "/inventory", echo.Map{"name": "Spark plug", "price": 15.99}, mech)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDeleteOtherAccountIsForbidden(t *testing.T) {
	a := newApp(t)
	alice := a.registerCustomer("Alice", "alice@x.com")
	bob := a.registerCustomer("Bob", "bob@x.com")
	tok := a.loginCustomer("alice@x.com")

	rec := a.do(http.MethodDelete, fmt.Sprintf("/customers/%d", bob), nil, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodPut, fmt.Sprintf("/customers/%d", bob), echo.Map{"name": "Mallory"}, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 2, a.count("customers"))

	a.createTicket(tok, "noisy brakes")
	rec = a.do(http.MethodDelete, fmt.Sprintf("/customers/%d", alice), nil, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, a.count("customers"))
	assert.Equal(t, 0, a.count("service_tickets"))

	rec = a.do(http.MethodDelete, fmt.Sprintf("/customers/%d", alice), nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMechanicAccountLifecycle(t *testing.T) {
	a := newApp(t)
	mike := a.registerMechanic("Mike")
	other := a.registerMechanic("Ann")
	tok := a.loginMechanic("Mike")

	rec := a.do(http.MethodPost, "/mechanics/register", echo.Map{"name": "Mike", "password": "x"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPut, fmt.Sprintf("/mechanics/%d", other), echo.Map{"name": "Z"}, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPut, fmt.Sprintf("/mechanics/%d", mike), echo.Map{"name": "Ann"}, tok)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPut, fmt.Sprintf("/mechanics/%d", mike), echo.Map{"name": "Michael"}, tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/mechanics/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := testutil.Decode[[]map[string]any](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Michael", list[0]["name"])
	assert.NotContains(t, list[0], "password")

	rec = a.do(http.MethodDelete, fmt.Sprintf("/mechanics/%d", mike), nil, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, a.count("mechanics"))
}

func TestCustomerUpdate(t *testing.T) {
	a := newApp(t)
	id := a.registerCustomer("Alice", "alice@x.com")
	a.registerCustomer("Bob", "bob@x.com")
	tok := a.loginCustomer("alice@x.com")

	rec := a.do(http.MethodPut, fmt.Sprintf("/customers/%d", id), echo.Map{"email": "bob@x.com"}, tok)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPut, fmt.Sprintf("/customers/%d", id), echo.Map{"name": "Alicia"}, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	body := testutil.Decode[map[string]any](t, rec)
	assert.Equal(t, "Alicia", body["name"])
	assert.Equal(t, "alice@x.com", body["email"])
}

func TestCustomerListPagination(t *testing.T) {
	a := newApp(t)
	for i := 0; i < 12; i++ {
		a.registerCustomer(fmt.Sprintf("c%02d", i), fmt.Sprintf("c%02d@x.com", i))
	}

	rec := a.do(http.MethodGet, "/customers/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := testutil.Decode[map[string]any](t, rec)
	assert.Len(t, body["customers"], 10)
	assert.Equal(t, 12.0, body["total"])
	assert.Equal(t, 2.0, body["pages"])
	assert.Equal(t, 1.0, body["current_page"])

	rec = a.do(http.MethodGet, "/customers?page=2&per_page=5", nil, "")
	body = testutil.Decode[map[string]any](t, rec)
	assert.Len(t, body["customers"], 5)
	assert.Equal(t, 3.0, body["pages"])
	assert.Equal(t, 2.0, body["current_page"])

	rec = a.do(http.MethodGet, "/customers?page=0&per_page=-3", nil, "")
	body = testutil.Decode[map[string]any](t, rec)
	assert.Len(t, body["customers"], 10)
	assert.Equal(t, 1.0, body["current_page"])
}

func TestTicketsByUsername(t *testing.T) {
	a := newApp(t)
	a.registerCustomer("Alice", "alice@x.com")
	a.registerCustomer("Bob", "bob@x.com")
	alice := a.loginCustomer("alice@x.com")
	a.createTicket(alice, "oil change")

	rec := a.do(http.MethodGet, "/customers/Alice/tickets", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	list := testutil.Decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "oil change", list[0]["description"])
	assert.Equal(t, "Pending", list[0]["status"])

	rec = a.do(http.MethodGet, "/customers/Bob/tickets", nil, alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodGet, "/customers/Nobody/tickets", nil, alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTicketLifecycle(t *testing.T) {
	a := newApp(t)
	a.registerCustomer("Alice", "alice@x.com")
	mechID := a.registerMechanic("Mike")
	cust := a.loginCustomer("alice@x.com")
	mech := a.loginMechanic("Mike")

	rec := a.do(http.MethodPost, "/service-tickets", echo.Map{}, cust)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := a.createTicket(cust, "brakes squeal")

	rec = a.do(http.MethodPut, fmt.Sprintf("/service-tickets/%d/update-status", id), echo.Map{}, mech)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPut, "/service-tickets/999/update-status", echo.Map{"status": "Completed"}, mech)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPut, fmt.Sprintf("/service-tickets/%d/update-status", id), echo.Map{"status": "Completed"}, mech)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/service-tickets/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := testutil.Decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Completed", list[0]["status"])
	assert.Equal(t, "Alice", list[0]["customer"].(map[string]any)["name"])
	assert.NotContains(t, list[0]["customer"], "password_hash")

	events := a.events.all()
	require.Len(t, events, 2)
	assert.Equal(t, queue.EventTicketCreated, events[0].Type)
	assert.Equal(t, "Pending", events[0].Status)
	assert.Equal(t, queue.EventTicketStatusChanged, events[1].Type)
	assert.Equal(t, "Completed", events[1].Status)
	require.NotNil(t, events[1].MechanicID)
	assert.Equal(t, mechID, *events[1].MechanicID)
}

func TestEditRosterAndParts(t *testing.T) {
	a := newApp(t)
	a.registerCustomer("Alice", "alice@x.com")
	a.registerCustomer("Bob", "bob@x.com")
	mike := a.registerMechanic("Mike")
	ann := a.registerMechanic("Ann")
	alice := a.loginCustomer("alice@x.com")
	bob := a.loginCustomer("bob@x.com")
	mech := a.loginMechanic("Mike")
	part := a.createPart(mech, "Brake pad", 49.99)
	id := a.createTicket(alice, "brakes")

	path := fmt.Sprintf("/service-tickets/%d/edit", id)
	rec := a.do(http.MethodPut, path, echo.Map{"add_ids": []uint64{mike, ann}}, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Ticket not found or unauthorized", testutil.Message(t, rec))
	rec = a.do(http.MethodPut, "/service-tickets/999/edit", echo.Map{"add_ids": []uint64{mike}}, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPut, path, echo.Map{"add_ids": []uint64{mike, ann, 999}}, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	body := testutil.Decode[map[string]any](t, rec)
	assert.Len(t, body["added"], 2)
	assert.Len(t, body["skipped"], 1)
	assert.Empty(t, body["removed"])

	rec = a.do(http.MethodPut, path, echo.Map{"remove_ids": []uint64{ann}}, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, testutil.Decode[map[string]any](t, rec)["removed"], 1)

	partsPath := fmt.Sprintf("/service-tickets/%d/add-part", id)
	for i := 0; i < 2; i++ {
		rec = a.do(http.MethodPut, partsPath, echo.Map{"part_ids": []uint64{part}}, alice)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	body = testutil.Decode[map[string]any](t, rec)
	assert.Empty(t, body["added"])
	assert.Len(t, body["skipped"], 1)
	assert.Equal(t, 1, a.count("ticket_parts"))

	rec = a.do(http.MethodGet, "/service-tickets/my-tickets", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := testutil.Decode[[]map[string]any](t, rec)
	require.Len(t, mine, 1)
	assert.Len(t, mine[0]["mechanics"], 1)
	assert.Len(t, mine[0]["parts"], 1)

	rec = a.do(http.MethodGet, "/mechanics/by-tickets", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rank := testutil.Decode[[]map[string]any](t, rec)
	require.Len(t, rank, 1)
	assert.Equal(t, "Mike", rank[0]["name"])
	assert.Equal(t, 1.0, rank[0]["ticket_count"])
}

func TestAttachPartToTicket(t *testing.T) {
	a := newApp(t)
	a.registerCustomer("Alice", "alice@x.com")
	a.registerMechanic("Mike")
	cust := a.loginCustomer("alice@x.com")
	mech := a.loginMechanic("Mike")
	id := a.createTicket(cust, "belt")
	part := a.createPart(mech, "Belt", 30)

	rec := a.do(http.MethodPost, fmt.Sprintf("/inventory/add-part/%d", id), echo.Map{"part_id": 999}, mech)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid part ID.", testutil.Message(t, rec))

	rec = a.do(http.MethodPost, "/inventory/add-part/999", echo.Map{"part_id": part}, mech)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for i := 0; i < 2; i++ {
		rec = a.do(http.MethodPost, fmt.Sprintf("/inventory/add-part/%d", id), echo.Map{"part_id": part}, mech)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, a.count("ticket_parts"))
}

func TestInventoryValidationAndUpdate(t *testing.T) {
	a := newApp(t)
	a.registerMechanic("Mike")
	mech := a.loginMechanic("Mike")

	rec := a.do(http.MethodPost, "/inventory", echo.Map{"name": "Bad", "price": -1}, mech)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPost, "/inventory", echo.Map{"name": "No price"}, mech)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := a.createPart(mech, "Filter", 10)
	path := fmt.Sprintf("/inventory/%d", id)

	rec = a.do(http.MethodPut, path, echo.Map{"price": 12.5}, mech)
	require.Equal(t, http.StatusOK, rec.Code)
	body := testutil.Decode[map[string]any](t, rec)
	assert.Equal(t, "Filter", body["name"])
	assert.Equal(t, 12.5, body["price"])

	rec = a.do(http.MethodPut, path, echo.Map{"price": -5}, mech)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPut, "/inventory/999", echo.Map{"price": 1}, mech)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodDelete, path, nil, mech)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodDelete, path, nil, mech)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInventoryListIsCached(t *testing.T) {
	a := newApp(t)
	a.registerMechanic("Mike")
	mech := a.loginMechanic("Mike")

	rec := a.do(http.MethodGet, "/inventory/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Empty(t, testutil.Decode[[]map[string]any](t, rec))

	a.createPart(mech, "Spark plug", 15.99)

	rec = a.do(http.MethodGet, "/inventory", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Empty(t, testutil.Decode[[]map[string]any](t, rec), "stale within TTL")
}

func TestRegisteredEmailCanAlwaysLogIn(t *testing.T) {
	a := newApp(t)

	for _, email := range []string{"bob", "Carol <carol@x.com>", "carol@"} {
		rec := a.do(http.MethodPost, "/customers/register", echo.Map{"name": "Carol", "email": email, "password": "pw"}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, email)
	}
	assert.Equal(t, 0, a.count("customers"))

	id := a.registerCustomer("Erin", "  erin@x.com ")
	tok := a.loginCustomer("erin@x.com")
	path := fmt.Sprintf("/customers/%d", id)

	rec := a.do(http.MethodPut, path, echo.Map{"email": "Erin <erin2@x.com>"}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPut, path, echo.Map{"email": ""}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	a.loginCustomer("erin@x.com")

	rec = a.do(http.MethodPut, path, echo.Map{"email": " erin2@x.com"}, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "erin2@x.com", testutil.Decode[map[string]any](t, rec)["email"])
	a.loginCustomer("erin2@x.com")
}

func TestCreateTicketAfterDeletingAccount(t *testing.T) {
	a := newApp(t)
	id := a.registerCustomer("Alice", "alice@x.com")
	tok := a.loginCustomer("alice@x.com")

	rec := a.do(http.MethodDelete, fmt.Sprintf("/customers/%d", id), nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/service-tickets", echo.Map{"description": "brakes"}, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Customer not found.", testutil.Message(t, rec))
	assert.Equal(t, 0, a.count("service_tickets"))
	assert.Empty(t, a.events.all())
}

func TestOverlongFieldsAreRejected(t *testing.T) {
	a := newApp(t)
	a.registerCustomer("Alice", "alice@x.com")
	a.registerMechanic("Mike")
	cust := a.loginCustomer("alice@x.com")
	mech := a.loginMechanic("Mike")

	rec := a.do(http.MethodPost, "/service-tickets", echo.Map{"description": strings.Repeat("d", 301)}, cust)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := a.createTicket(cust, "brakes")
	path := fmt.Sprintf("/service-tickets/%d/update-status", id)
	rec = a.do(http.MethodPut, path, echo.Map{"status": strings.Repeat("s", 51)}, mech)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPut, path, echo.Map{"status": strings.Repeat("s", 50)}, mech)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/mechanics/register", echo.Map{"name": strings.Repeat("m", 121), "password": "pw"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// signed builds an HS256 token with arbitrary exp for the guard tests.
func signed(t *testing.T, secret, role string, exp time.Time) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "1",
		"role": role,
		"exp":  exp.Unix(),
		"iat":  exp.Add(-time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestGuardedRoutesRejectExpiredAndForeignTokens(t *testing.T) {
	a := newApp(t)
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/customers/Alice/tickets"},
		{http.MethodPut, "/customers/1"},
		{http.MethodDelete, "/customers/1"},
		{http.MethodGet, "/mechanics/protected"},
		{http.MethodPut, "/mechanics/1"},
		{http.MethodDelete, "/mechanics/1"},
		{http.MethodPost, "/inventory"},
		{http.MethodPut, "/inventory/1"},
		{http.MethodDelete, "/inventory/1"},
		{http.MethodPost, "/inventory/add-part/1"},
		{http.MethodPost, "/service-tickets"},
		{http.MethodGet, "/service-tickets/my-tickets"},
		{http.MethodPut, "/service-tickets/1/edit"},
		{http.MethodPut, "/service-tickets/1/add-part"},
		{http.MethodPut, "/service-tickets/1/update-status"},
	}
	for _, role := range []string{utils.RoleCustomer, utils.RoleMechanic} {
		tokens := map[string]string{
			"expired": signed(t, a.cfg.JWTSecret, role, past),
			"foreign": signed(t, "someone-else", role, future),
		}
		for kind, tok := range tokens {
			for _, r := range routes {
				rec := a.do(r.method, r.path, echo.Map{}, tok)
				assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s %s %s", kind, role, r.method, r.path)
				assert.Equal(t, "Invalid or expired token", testutil.Message(t, rec))
			}
		}
	}
	assert.Equal(t, 0, a.count("service_tickets"))
}
