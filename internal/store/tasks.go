package store

import (
	"context"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/models"
)

const taskSelect = `SELECT t.id, t.title, t.description, t.project_id, p.name,
	t.employee_id, u.name, t.due_date, t.status, t.created_at
	FROM tasks t
	LEFT JOIN projects p ON t.project_id = p.id
	LEFT JOIN users u ON t.employee_id = u.id`

func scanTask(row rowScanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.ProjectID, &t.ProjectName,
		&t.EmployeeID, &t.EmployeeName, &t.DueDate, &t.Status, timeValue{&t.CreatedAt})
	return t, err
}

func (s *Store) CreateTask(ctx context.Context, in models.CreateTaskRequest) (models.Task, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (title, description, project_id, employee_id, due_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Description, in.ProjectID, in.EmployeeID, in.DueDate, in.Status, s.timestamp(),
	)
	if err != nil {
		return models.Task{}, writeError(err, "Project or employee")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, apperrors.Internal(err)
	}
	return s.GetTask(ctx, id)
}

func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = ?`, id))
	if err != nil {
		return models.Task{}, readError(err, "Task")
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.queryTasks(ctx, taskSelect+` ORDER BY t.created_at DESC, t.id DESC`)
}

func (s *Store) ListTasksByEmployee(ctx context.Context, employeeID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, taskSelect+` WHERE t.employee_id = ? ORDER BY t.created_at DESC, t.id DESC`, employeeID)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	if _, err := s.GetTask(ctx, id); err != nil {
		return models.Task{}, err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET
			title = COALESCE(?, title),
			description = COALESCE(?, description),
			project_id = COALESCE(?, project_id),
			employee_id = COALESCE(?, employee_id),
			due_date = COALESCE(?, due_date),
			status = COALESCE(?, status)
		WHERE id = ?`,
		patch.Title, patch.Description, patch.ProjectID, patch.EmployeeID, patch.DueDate, patch.Status, id,
	)
	if err != nil {
		return models.Task{}, writeError(err, "Project or employee")
	}
	return s.GetTask(ctx, id)
}

// UpdateTaskStatus changes only the status column.
func (s *Store) UpdateTaskStatus(ctx context.Context, id int64, status string) (models.Task, error) {
	return s.UpdateTask(ctx, id, models.TaskPatch{Status: &status})
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "tasks", "Task", id)
}
