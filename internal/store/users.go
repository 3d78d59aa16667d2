package store

import (
	"context"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/authz"
	"buildmatrix/internal/models"
)

const userColumns = `id, name, email, password, role, created_at`

// NewUser is a user ready for insertion; the password is already hashed.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         authz.Role
}

// UserUpdate carries the user fields to change; nil leaves a field as is.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *authz.Role
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, timeValue{&u.CreatedAt})
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, in NewUser) (models.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		in.Name, in.Email, in.PasswordHash, string(in.Role), s.timestamp(),
	)
	if err != nil {
		return models.User{}, writeError(err, "User")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, apperrors.Internal(err)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return models.User{}, readError(err, "Employee")
	}
	return u, nil
}

// GetUserByEmail is used by login; the returned user includes its hash.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return models.User{}, readError(err, "User")
	}
	return u, nil
}

// ListUsers returns every user, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
}

// ListUsersByRole returns the users holding role, ordered by name.
func (s *Store) ListUsersByRole(ctx context.Context, role authz.Role) ([]models.User, error) {
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY name, id`, string(role))
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// UpdateUser applies the non-nil fields of in and returns the stored user.
func (s *Store) UpdateUser(ctx context.Context, id int64, in UserUpdate) (models.User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return models.User{}, err
	}

	var role *string
	if in.Role != nil {
		r := string(*in.Role)
		role = &r
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET
			name = COALESCE(?, name),
			email = COALESCE(?, email),
			password = COALESCE(?, password),
			role = COALESCE(?, role)
		WHERE id = ?`,
		in.Name, in.Email, in.PasswordHash, role, id,
	)
	if err != nil {
		return models.User{}, writeError(err, "Employee")
	}
	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "users", "Employee", id)
}
