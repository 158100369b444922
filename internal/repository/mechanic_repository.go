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

// MechanicRepo encapsulates queries on mechanics and their ticket counts.
type MechanicRepo struct {
	db *sql.DB
}

func NewMechanicRepo(db *sql.DB) *MechanicRepo {
	return &MechanicRepo{db: db}
}

// Create hashes the password and inserts a mechanic.  The name is the login
// identifier, so a duplicate yields ErrConflict.
func (r *MechanicRepo) Create(ctx context.Context, name, password string, cost int) (*model.Mechanic, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	m := &model.Mechanic{Name: strings.TrimSpace(name), PasswordHash: hash}
	res, err := r.db.ExecContext(ctx, "INSERT INTO mechanics (name, password_hash) VALUES (?, ?)", m.Name, m.PasswordHash)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert mechanic: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	m.ID = uint64(id)
	return m, nil
}

// GetByID returns ErrNotFound if no row is found.
func (r *MechanicRepo) GetByID(ctx context.Context, id uint64) (*model.Mechanic, error) {
	return r.getOne(ctx, "SELECT id, name, password_hash FROM mechanics WHERE id = ?", id)
}

// GetByName looks a mechanic up by login name.
func (r *MechanicRepo) GetByName(ctx context.Context, name string) (*model.Mechanic, error) {
	return r.getOne(ctx, "SELECT id, name, password_hash FROM mechanics WHERE name = ?", strings.TrimSpace(name))
}

func (r *MechanicRepo) getOne(ctx context.Context, q string, arg any) (*model.Mechanic, error) {
	var m model.Mechanic
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(&m.ID, &m.Name, &m.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListAll returns every mechanic ordered by id.
func (r *MechanicRepo) ListAll(ctx context.Context) ([]model.Mechanic, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, password_hash FROM mechanics ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Mechanic{}
	for rows.Next() {
		var m model.Mechanic
		if err := rows.Scan(&m.ID, &m.Name, &m.PasswordHash); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RankByTicketCount counts the tickets each mechanic is assigned to, most
// tickets first.  Mechanics without tickets are not listed.
func (r *MechanicRepo) RankByTicketCount(ctx context.Context) ([]model.MechanicTicketCount, error) {
	const q = `SELECT m.id, m.name, COUNT(sm.service_ticket_id) AS ticket_count
	           FROM mechanics m
	           JOIN service_mechanics sm ON sm.mechanic_id = m.id
	           GROUP BY m.id, m.name
	           ORDER BY ticket_count DESC, m.id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MechanicTicketCount{}
	for rows.Next() {
		var row model.MechanicTicketCount
		if err := rows.Scan(&row.ID, &row.Name, &row.TicketCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Update writes the name and password hash of an existing mechanic.
func (r *MechanicRepo) Update(ctx context.Context, m *model.Mechanic) error {
	_, err := r.db.ExecContext(ctx, "UPDATE mechanics SET name = ?, password_hash = ? WHERE id = ?", m.Name, m.PasswordHash, m.ID)
	if database.IsDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// Delete removes a mechanic and their ticket assignments.  The tickets
// themselves stay with their customers.
func (r *MechanicRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := rowExists(ctx, tx, "SELECT 1 FROM mechanics WHERE id = ?", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM service_mechanics WHERE mechanic_id = ?", id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM mechanics WHERE id = ?", id)
		return err
	})
}
