package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/mechanic-shop-api/internal/model"
)

// InventoryRepo encapsulates queries on inventory parts.
type InventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

// Create inserts a part and fills in its ID.
func (r *InventoryRepo) Create(ctx context.Context, p *model.InventoryPart) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO inventory (name, price) VALUES (?, ?)", p.Name, p.Price)
	if err != nil {
		return fmt.Errorf("insert part: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *InventoryRepo) GetByID(ctx context.Context, id uint64) (*model.InventoryPart, error) {
	var p model.InventoryPart
	err := r.db.QueryRowContext(ctx, "SELECT id, name, price FROM inventory WHERE id = ?", id).Scan(&p.ID, &p.Name, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *InventoryRepo) ListAll(ctx context.Context) ([]model.InventoryPart, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, price FROM inventory ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.InventoryPart{}
	for rows.Next() {
		var p model.InventoryPart
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update writes name and price of an existing part.
func (r *InventoryRepo) Update(ctx context.Context, p *model.InventoryPart) error {
	_, err := r.db.ExecContext(ctx, "UPDATE inventory SET name = ?, price = ? WHERE id = ?", p.Name, p.Price, p.ID)
	return err
}

// Delete removes a part and detaches it from every ticket.
func (r *InventoryRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		ok, err := rowExists(ctx, tx, "SELECT 1 FROM inventory WHERE id = ?", id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM ticket_parts WHERE inventory_id = ?", id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM inventory WHERE id = ?", id)
		return err
	})
}
