package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"registracion/internal/core/apperror"
	"registracion/pkg/logger"
)

// Supervisor is a user allowed to authorize floor overrides.
type Supervisor struct {
	UserID       int    `db:"id_usuario"`
	Username     string `db:"nombre"`
	PasswordHash string `db:"password"`
	RoleID       int    `db:"id_rol"`
}

// SupervisorRepository looks up users by login name.
type SupervisorRepository interface {
	// GetByUsername returns NotFound when no user has that name.
	GetByUsername(ctx context.Context, username string) (*Supervisor, error)
}

// SupervisorVerifier checks supervisor credentials with bcrypt.
type SupervisorVerifier struct {
	repo SupervisorRepository
}

// NewSupervisorVerifier creates a verifier backed by repo.
func NewSupervisorVerifier(repo SupervisorRepository) *SupervisorVerifier {
	return &SupervisorVerifier{repo: repo}
}

// VerifySupervisor returns 401 for an unknown user or a wrong password.
// Both cases produce the same message.
func (v *SupervisorVerifier) VerifySupervisor(ctx context.Context, username, password string) error {
	sup, err := v.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewUnauthorized("invalid supervisor credentials")
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(sup.PasswordHash), []byte(password)); err != nil {
		logger.Warn(ctx, "supervisor check failed", "supervisor", sup.Username)
		return apperror.NewUnauthorized("invalid supervisor credentials")
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for the users table.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
