package store

import (
	"context"
	"database/sql"
	"errors"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/models"
)

const materialRequestSelect = `SELECT mr.id, mr.project_id, p.name, p.project_manager_id,
	mr.inventory_id, i.name, mr.quantity, mr.notes, mr.status, mr.created_at
	FROM material_requests mr
	LEFT JOIN projects p ON mr.project_id = p.id
	LEFT JOIN inventory i ON mr.inventory_id = i.id`

func scanMaterialRequest(row rowScanner) (models.MaterialRequest, error) {
	var mr models.MaterialRequest
	err := row.Scan(&mr.ID, &mr.ProjectID, &mr.ProjectName, &mr.ProjectManagerID,
		&mr.InventoryID, &mr.InventoryName, &mr.Quantity, &mr.Notes, &mr.Status, timeValue{&mr.CreatedAt})
	return mr, err
}

// ErrProjectReassigned reports that a material request was not written
// because its project is no longer run by the expected manager.
var ErrProjectReassigned = errors.New("store: project manager changed")

// CreateMaterialRequest inserts a pending request. When managerID is set the
// row is written only if the project is still run by that manager, checked
// in the same statement as the insert.
func (s *Store) CreateMaterialRequest(ctx context.Context, in models.CreateMaterialRequest, managerID *int64) (models.MaterialRequest, error) {
	var (
		res sql.Result
		err error
	)
	if managerID == nil {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO material_requests (project_id, inventory_id, quantity, notes, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			in.ProjectID, in.InventoryID, in.Quantity, in.Notes, models.RequestPending, s.timestamp(),
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO material_requests (project_id, inventory_id, quantity, notes, status, created_at)
			SELECT ?, ?, ?, ?, ?, ? FROM projects WHERE id = ? AND project_manager_id = ?`,
			in.ProjectID, in.InventoryID, in.Quantity, in.Notes, models.RequestPending, s.timestamp(),
			in.ProjectID, *managerID,
		)
	}
	if err != nil {
		return models.MaterialRequest{}, writeError(err, "Inventory item")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.MaterialRequest{}, apperrors.Internal(err)
	}
	if n == 0 {
		return models.MaterialRequest{}, ErrProjectReassigned
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.MaterialRequest{}, apperrors.Internal(err)
	}
	return s.GetMaterialRequest(ctx, id)
}

func (s *Store) GetMaterialRequest(ctx context.Context, id int64) (models.MaterialRequest, error) {
	mr, err := scanMaterialRequest(s.db.QueryRowContext(ctx, materialRequestSelect+` WHERE mr.id = ?`, id))
	if err != nil {
		return models.MaterialRequest{}, readError(err, "Material request")
	}
	return mr, nil
}

func (s *Store) ListMaterialRequests(ctx context.Context) ([]models.MaterialRequest, error) {
	return s.queryMaterialRequests(ctx, materialRequestSelect+` ORDER BY mr.created_at DESC, mr.id DESC`)
}

// ListMaterialRequestsByManager returns the requests of every project the
// manager runs.
func (s *Store) ListMaterialRequestsByManager(ctx context.Context, managerID int64) ([]models.MaterialRequest, error) {
	return s.queryMaterialRequests(ctx,
		materialRequestSelect+` WHERE p.project_manager_id = ? ORDER BY mr.created_at DESC, mr.id DESC`, managerID)
}

func (s *Store) queryMaterialRequests(ctx context.Context, query string, args ...any) ([]models.MaterialRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer rows.Close()

	requests := []models.MaterialRequest{}
	for rows.Next() {
		mr, err := scanMaterialRequest(rows)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		requests = append(requests, mr)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return requests, nil
}

func (s *Store) UpdateMaterialRequest(ctx context.Context, id int64, patch models.MaterialRequestPatch) (models.MaterialRequest, error) {
	if _, err := s.GetMaterialRequest(ctx, id); err != nil {
		return models.MaterialRequest{}, err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE material_requests SET
			status = COALESCE(?, status),
			quantity = COALESCE(?, quantity),
			notes = COALESCE(?, notes)
		WHERE id = ?`,
		patch.Status, patch.Quantity, patch.Notes, id,
	)
	if err != nil {
		return models.MaterialRequest{}, writeError(err, "Material request")
	}
	return s.GetMaterialRequest(ctx, id)
}

func (s *Store) DeleteMaterialRequest(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "material_requests", "Material request", id)
}
