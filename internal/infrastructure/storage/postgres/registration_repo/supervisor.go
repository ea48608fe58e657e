package registration_repo

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"registracion/internal/core/apperror"
	"registracion/internal/domain/auth"
)

// UserRepo implements auth.SupervisorRepository over the users table.
type UserRepo struct {
	base
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db querierSource) *UserRepo {
	return &UserRepo{base: newBase(db)}
}

// GetByUsername returns NotFound when no user has that name.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*auth.Supervisor, error) {
	sql, args, err := r.builder.Select("id_usuario", "nombre", "password", "id_rol").
		From(usersTable).
		Where(squirrel.Eq{"nombre": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, storeErr("build user query", err)
	}

	var user auth.Supervisor
	if err := pgxscan.Get(ctx, r.db.GetQuerier(ctx), &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", username)
		}
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

// Upsert creates the user or replaces its password hash and role.
func (r *UserRepo) Upsert(ctx context.Context, user auth.Supervisor) error {
	sql, args, err := r.builder.Insert(usersTable).
		Columns("nombre", "password", "id_rol").
		Values(user.Username, user.PasswordHash, user.RoleID).
		Suffix("ON CONFLICT (nombre) DO UPDATE SET password = EXCLUDED.password, id_rol = EXCLUDED.id_rol").
		ToSql()
	if err != nil {
		return storeErr("build user upsert", err)
	}
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return storeErr("upsert user", err)
	}
	return nil
}

var _ auth.SupervisorRepository = (*UserRepo)(nil)
