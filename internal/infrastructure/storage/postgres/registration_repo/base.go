// Package registration_repo provides PostgreSQL implementations of the
// operation, weighing and label repositories. The tables and stored functions
// belong to the plant's system of record; this package only calls into them.
package registration_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"registracion/internal/core/apperror"
	"registracion/internal/infrastructure/storage/postgres"
)

// Tables of the system of record.
const (
	operationsTable    = "operaciones_calipso"
	transactionsTable  = "transacciones"
	registrationsTable = "registraciones"
	bundlesTable       = "atados"
	groupsTable        = "multi_operaciones"
	labelsTable        = "etiquetas"
	usersTable         = "usuarios"
)

// querierSource hands out the transaction in ctx or the pool. *postgres.TxManager
// satisfies it.
type querierSource interface {
	GetQuerier(ctx context.Context) postgres.Querier
}

// base holds what every repository in this package shares.
type base struct {
	db      querierSource
	builder squirrel.StatementBuilderType
}

func newBase(db querierSource) base {
	return base{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// storeErr wraps a driver failure so it surfaces as a transient store error.
func storeErr(op string, err error) error {
	return apperror.NewStore(fmt.Errorf("%s: %w", op, err))
}

// nullableLot maps the empty lot to NULL; squirrel.Eq renders nil as IS NULL.
func nullableLot(lotID string) any {
	if lotID == "" {
		return nil
	}
	return lotID
}

// lotColumn reads a nullable lot column as text.
func lotColumn(name string) string {
	return fmt.Sprintf("COALESCE(%s::text, '') AS %s", name, name)
}

// textColumn reads a nullable text column.
func textColumn(name string) string {
	return fmt.Sprintf("COALESCE(%s, '') AS %s", name, name)
}
