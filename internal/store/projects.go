package store

import (
	"context"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/models"
)

const projectSelect = `SELECT p.id, p.name, p.description, p.start_date, p.end_date,
	p.project_manager_id, u.name, p.status, p.created_at
	FROM projects p
	LEFT JOIN users u ON p.project_manager_id = u.id`

func scanProject(row rowScanner) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate,
		&p.ProjectManagerID, &p.ProjectManagerName, &p.Status, timeValue{&p.CreatedAt})
	return p, err
}

func (s *Store) CreateProject(ctx context.Context, in models.CreateProjectRequest) (models.Project, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, description, start_date, end_date, project_manager_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Description, in.StartDate, in.EndDate, in.ProjectManagerID, in.Status, s.timestamp(),
	)
	if err != nil {
		return models.Project{}, writeError(err, "Project manager")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Project{}, apperrors.Internal(err)
	}
	return s.GetProject(ctx, id)
}

func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return models.Project{}, readError(err, "Project")
	}
	return p, nil
}

// ProjectManagerOf returns the manager of a project, nil when unassigned.
// It is the ownership lookup for material requests.
func (s *Store) ProjectManagerOf(ctx context.Context, projectID int64) (*int64, error) {
	var managerID *int64
	err := s.db.QueryRowContext(ctx, `SELECT project_manager_id FROM projects WHERE id = ?`, projectID).Scan(&managerID)
	if err != nil {
		return nil, readError(err, "Project")
	}
	return managerID, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.queryProjects(ctx, projectSelect+` ORDER BY p.created_at DESC, p.id DESC`)
}

func (s *Store) ListProjectsByManager(ctx context.Context, managerID int64) ([]models.Project, error) {
	return s.queryProjects(ctx, projectSelect+` WHERE p.project_manager_id = ? ORDER BY p.created_at DESC, p.id DESC`, managerID)
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return projects, nil
}

// UpdateProject applies the non-nil fields of patch. A manager cannot be
// unassigned through a patch.
func (s *Store) UpdateProject(ctx context.Context, id int64, patch models.ProjectPatch) (models.Project, error) {
	if _, err := s.GetProject(ctx, id); err != nil {
		return models.Project{}, err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE projects SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			start_date = COALESCE(?, start_date),
			end_date = COALESCE(?, end_date),
			project_manager_id = COALESCE(?, project_manager_id),
			status = COALESCE(?, status)
		WHERE id = ?`,
		patch.Name, patch.Description, patch.StartDate, patch.EndDate, patch.ProjectManagerID, patch.Status, id,
	)
	if err != nil {
		return models.Project{}, writeError(err, "Project manager")
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes a project together with its material requests and
// tasks.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "projects", "Project", id)
}
