package store

import (
	"context"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/models"
)

const inventorySelect = `SELECT id, name, description, quantity, unit, category, created_at FROM inventory`

func scanInventoryItem(row rowScanner) (models.InventoryItem, error) {
	var it models.InventoryItem
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Quantity, &it.Unit, &it.Category, timeValue{&it.CreatedAt})
	return it, err
}

func (s *Store) CreateInventoryItem(ctx context.Context, in models.CreateInventoryRequest) (models.InventoryItem, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO inventory (name, description, quantity, unit, category, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		in.Name, in.Description, in.Quantity, in.Unit, in.Category, s.timestamp(),
	)
	if err != nil {
		return models.InventoryItem{}, writeError(err, "Inventory item")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.InventoryItem{}, apperrors.Internal(err)
	}
	return s.GetInventoryItem(ctx, id)
}

func (s *Store) GetInventoryItem(ctx context.Context, id int64) (models.InventoryItem, error) {
	it, err := scanInventoryItem(s.db.QueryRowContext(ctx, inventorySelect+` WHERE id = ?`, id))
	if err != nil {
		return models.InventoryItem{}, readError(err, "Inventory item")
	}
	return it, nil
}

// ListInventory returns all items ordered by name.
func (s *Store) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, inventorySelect+` ORDER BY name, id`)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *Store) UpdateInventoryItem(ctx context.Context, id int64, patch models.InventoryPatch) (models.InventoryItem, error) {
	if _, err := s.GetInventoryItem(ctx, id); err != nil {
		return models.InventoryItem{}, err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE inventory SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			quantity = COALESCE(?, quantity),
			unit = COALESCE(?, unit),
			category = COALESCE(?, category)
		WHERE id = ?`,
		patch.Name, patch.Description, patch.Quantity, patch.Unit, patch.Category, id,
	)
	if err != nil {
		return models.InventoryItem{}, writeError(err, "Inventory item")
	}
	return s.GetInventoryItem(ctx, id)
}

// DeleteInventoryItem fails with Conflict while material requests reference
// the item.
func (s *Store) DeleteInventoryItem(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "inventory", "Inventory item", id)
}
