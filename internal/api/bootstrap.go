package api

import (
	"context"
	"fmt"
	"strings"

	"buildmatrix/internal/apperrors"
	"buildmatrix/internal/auth"
	"buildmatrix/internal/authz"
	"buildmatrix/internal/config"
	"buildmatrix/internal/logger"
	"buildmatrix/internal/store"
)

// EnsureAdmin creates the configured admin account when no user with its
// email exists yet. It does nothing when email or password is unset.
func EnsureAdmin(ctx context.Context, s *store.Store, hasher *auth.Hasher, cfg config.AdminConfig, log *logger.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		return nil
	}

	_, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		return fmt.Errorf("bootstrap: look up admin: %w", err)
	}

	hash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	u, err := s.CreateUser(ctx, store.NewUser{
		Name:         cfg.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         authz.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("bootstrap: create admin: %w", err)
	}
	log.Info("Created admin account", map[string]interface{}{"user_id": u.ID, "email": email})
	return nil
}
