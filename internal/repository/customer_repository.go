package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/mechanic-shop-api/internal/database"
	"github.com/iliyamo/mechanic-shop-api/internal/model"
	"github.com/iliyamo/mechanic-shop-api/internal/utils"
)

type CustomerRepo struct {
	db *sql.DB
}

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerColumns = "id, name, email, password_hash"

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes the password, inserts the customer and returns the stored
// row.  A taken name or email yields ErrConflict.
func (r *CustomerRepo) Create(ctx context.Context, name, email, password string, cost int) (*model.Customer, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	c := &model.Customer{Name: strings.TrimSpace(name), Email: normalizeEmail(email), PasswordHash: hash}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO customers (name, email, password_hash) VALUES (?,?,?)",
		c.Name, c.Email, c.PasswordHash)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	c.ID = uint64(id)
	return c, nil
}

// GetByEmail fetches a customer by normalized email.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return r.getOne(ctx, "SELECT "+customerColumns+" FROM customers WHERE email=? LIMIT 1", normalizeEmail(email))
}

// GetByID fetches a customer by id.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	return r.getOne(ctx, "SELECT "+customerColumns+" FROM customers WHERE id=? LIMIT 1", id)
}

func (r *CustomerRepo) getOne(ctx context.Context, q string, arg any) (*model.Customer, error) {
	var c model.Customer
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns one page of customers ordered by id together with the total
// number of customers.
func (r *CustomerRepo) List(ctx context.Context, limit, offset int) ([]model.Customer, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+customerColumns+" FROM customers ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Update writes name, email and password hash of an existing customer.
// Callers load the row first; a taken name or email yields ErrConflict.
func (r *CustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	c.Email = normalizeEmail(c.Email)
	_, err := r.db.ExecContext(ctx,
		"UPDATE customers SET name=?, email=?, password_hash=? WHERE id=?",
		c.Name, c.Email, c.PasswordHash, c.ID)
	if database.IsDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// Delete removes a customer together with their tickets and the tickets'
// mechanic and part associations.  A ticket cannot exist without its owner,
// so the delete cascades instead of orphaning rows.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := rowExists(ctx, tx, "SELECT 1 FROM customers WHERE id=?", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		const owned = "SELECT id FROM service_tickets WHERE customer_id=?"
		stmts := []string{
			"DELETE FROM service_mechanics WHERE service_ticket_id IN (" + owned + ")",
			"DELETE FROM ticket_parts WHERE service_ticket_id IN (" + owned + ")",
			"DELETE FROM service_tickets WHERE customer_id=?",
			"DELETE FROM customers WHERE id=?",
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("delete customer %d: %w", id, err)
			}
		}
		return nil
	})
}
