package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/mechanic-shop-api/internal/database"
	"github.com/iliyamo/mechanic-shop-api/internal/model"
)

// TicketRepo encapsulates queries on service tickets and their mechanic and
// part associations.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// MembershipChange reports the outcome of an association edit.  Every
// requested id lands in exactly one of the lists; Skipped collects ids that
// do not exist or whose membership already matched the request.
type MembershipChange struct {
	Added   []uint64
	Removed []uint64
	Skipped []uint64
}

func newMembershipChange() MembershipChange {
	return MembershipChange{Added: []uint64{}, Removed: []uint64{}, Skipped: []uint64{}}
}

const ticketColumns = "id, description, status, created_at, customer_id"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(s rowScanner) (model.ServiceTicket, error) {
	var t model.ServiceTicket
	err := s.Scan(&t.ID, &t.Description, &t.Status, &t.CreatedAt, &t.CustomerID)
	return t, err
}

// Create inserts a ticket for t.CustomerID.  Status defaults to "Pending"
// and CreatedAt to the current UTC time when unset.  A customer that no
// longer exists is ErrNotFound.
func (r *TicketRepo) Create(ctx context.Context, t *model.ServiceTicket) error {
	if t.Status == "" {
		t.Status = model.DefaultTicketStatus
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := rowExists(ctx, tx, "SELECT 1 FROM customers WHERE id = ?", t.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO service_tickets (description, status, created_at, customer_id) VALUES (?, ?, ?, ?)",
			t.Description, t.Status, t.CreatedAt, t.CustomerID)
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		t.ID = uint64(id)
		return nil
	})
}

// GetByID fetches a ticket without its relationships.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.ServiceTicket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM service_tickets WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetOwned fetches a ticket only if it belongs to customerID.  A ticket owned
// by someone else is reported as ErrNotFound, same as a missing one.
func (r *TicketRepo) GetOwned(ctx context.Context, id, customerID uint64) (*model.ServiceTicket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM service_tickets WHERE id = ? AND customer_id = ?", id, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListAll returns every ticket with customer, mechanics and parts loaded.
func (r *TicketRepo) ListAll(ctx context.Context) ([]model.ServiceTicket, error) {
	tickets, err := r.query(ctx, "SELECT "+ticketColumns+" FROM service_tickets ORDER BY id")
	if err != nil {
		return nil, err
	}
	return tickets, r.expand(ctx, tickets)
}

// ListByCustomer returns the customer's tickets, optionally with their
// relationships loaded.
func (r *TicketRepo) ListByCustomer(ctx context.Context, customerID uint64, expand bool) ([]model.ServiceTicket, error) {
	tickets, err := r.query(ctx, "SELECT "+ticketColumns+" FROM service_tickets WHERE customer_id = ? ORDER BY id", customerID)
	if err != nil || !expand {
		return tickets, err
	}
	return tickets, r.expand(ctx, tickets)
}

func (r *TicketRepo) query(ctx context.Context, q string, args ...any) ([]model.ServiceTicket, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ServiceTicket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// expand loads customers, mechanics and parts for tickets with one query per
// relationship.  Each result set is drained before the next query starts,
// which keeps this safe on a single-connection pool.
func (r *TicketRepo) expand(ctx context.Context, tickets []model.ServiceTicket) error {
	if len(tickets) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.ServiceTicket, len(tickets))
	ticketIDs := make([]uint64, 0, len(tickets))
	customerIDs := make([]uint64, 0, len(tickets))
	seenCustomer := map[uint64]bool{}
	for i := range tickets {
		t := &tickets[i]
		t.Mechanics = []model.Mechanic{}
		t.Parts = []model.InventoryPart{}
		byID[t.ID] = t
		ticketIDs = append(ticketIDs, t.ID)
		if !seenCustomer[t.CustomerID] {
			seenCustomer[t.CustomerID] = true
			customerIDs = append(customerIDs, t.CustomerID)
		}
	}

	customers := map[uint64]*model.Customer{}
	in, args := inClause(customerIDs)
	if err := r.each(ctx, "SELECT id, name, email, password_hash FROM customers WHERE id IN "+in, args, func(s rowScanner) error {
		c := &model.Customer{}
		if err := s.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash); err != nil {
			return err
		}
		customers[c.ID] = c
		return nil
	}); err != nil {
		return fmt.Errorf("load ticket customers: %w", err)
	}
	for _, t := range byID {
		t.Customer = customers[t.CustomerID]
	}

	in, args = inClause(ticketIDs)
	if err := r.each(ctx, `SELECT sm.service_ticket_id, m.id, m.name
	                       FROM service_mechanics sm JOIN mechanics m ON m.id = sm.mechanic_id
	                       WHERE sm.service_ticket_id IN `+in+` ORDER BY m.id`, args, func(s rowScanner) error {
		var ticketID uint64
		var m model.Mechanic
		if err := s.Scan(&ticketID, &m.ID, &m.Name); err != nil {
			return err
		}
		byID[ticketID].Mechanics = append(byID[ticketID].Mechanics, m)
		return nil
	}); err != nil {
		return fmt.Errorf("load ticket mechanics: %w", err)
	}

	if err := r.each(ctx, `SELECT tp.service_ticket_id, p.id, p.name, p.price
	                       FROM ticket_parts tp JOIN inventory p ON p.id = tp.inventory_id
	                       WHERE tp.service_ticket_id IN `+in+` ORDER BY p.id`, args, func(s rowScanner) error {
		var ticketID uint64
		var p model.InventoryPart
		if err := s.Scan(&ticketID, &p.ID, &p.Name, &p.Price); err != nil {
			return err
		}
		byID[ticketID].Parts = append(byID[ticketID].Parts, p)
		return nil
	}); err != nil {
		return fmt.Errorf("load ticket parts: %w", err)
	}
	return nil
}

func (r *TicketRepo) each(ctx context.Context, q string, args []any, fn func(rowScanner) error) error {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// UpdateStatus sets a ticket's free-form status.
func (r *TicketRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := rowExists(ctx, tx, "SELECT 1 FROM service_tickets WHERE id = ?", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		_, err = tx.ExecContext(ctx, "UPDATE service_tickets SET status = ? WHERE id = ?", status, id)
		return err
	})
}

// EditMechanics assigns addIDs to and unassigns removeIDs from a ticket in
// one transaction.  Unknown mechanics, ids already assigned (on add) and ids
// not assigned (on remove) are reported as skipped.
func (r *TicketRepo) EditMechanics(ctx context.Context, ticketID uint64, addIDs, removeIDs []uint64) (MembershipChange, error) {
	change := newMembershipChange()
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, mid := range addIDs {
			added, err := attach(ctx, tx, "mechanics", "service_mechanics", "mechanic_id", ticketID, mid)
			if err != nil {
				return err
			}
			if added {
				change.Added = append(change.Added, mid)
			} else {
				change.Skipped = append(change.Skipped, mid)
			}
		}
		for _, mid := range removeIDs {
			res, err := tx.ExecContext(ctx,
				"DELETE FROM service_mechanics WHERE service_ticket_id = ? AND mechanic_id = ?", ticketID, mid)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n > 0 {
				change.Removed = append(change.Removed, mid)
			} else {
				change.Skipped = append(change.Skipped, mid)
			}
		}
		return nil
	})
	if err != nil {
		return MembershipChange{}, err
	}
	return change, nil
}

// AddParts attaches inventory parts to a ticket in one transaction.  Unknown
// parts and parts already attached are reported as skipped.
func (r *TicketRepo) AddParts(ctx context.Context, ticketID uint64, partIDs []uint64) (MembershipChange, error) {
	change := newMembershipChange()
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, pid := range partIDs {
			added, err := attach(ctx, tx, "inventory", "ticket_parts", "inventory_id", ticketID, pid)
			if err != nil {
				return err
			}
			if added {
				change.Added = append(change.Added, pid)
			} else {
				change.Skipped = append(change.Skipped, pid)
			}
		}
		return nil
	})
	if err != nil {
		return MembershipChange{}, err
	}
	return change, nil
}

// attach links ticketID and memberID in an association table.  It returns
// false without error when the member row does not exist or the link is
// already there; a concurrent insert of the same link counts as present.
// Table and column names are compile-time constants supplied by callers.
func attach(ctx context.Context, tx *sql.Tx, memberTable, assocTable, memberCol string, ticketID, memberID uint64) (bool, error) {
	ok, err := rowExists(ctx, tx, "SELECT 1 FROM "+memberTable+" WHERE id = ?", memberID)
	if err != nil || !ok {
		return false, err
	}
	linked, err := rowExists(ctx, tx,
		"SELECT 1 FROM "+assocTable+" WHERE service_ticket_id = ? AND "+memberCol+" = ?", ticketID, memberID)
	if err != nil || linked {
		return false, err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+assocTable+" (service_ticket_id, "+memberCol+") VALUES (?, ?)", ticketID, memberID)
	if database.IsDuplicateKey(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
