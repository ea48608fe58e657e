// Package erp_repo reads the ERP database through its own read-only pool.
package erp_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"

	"registracion/internal/core/apperror"
	"registracion/internal/domain/operation"
	"registracion/internal/infrastructure/storage/postgres"
)

var sheetColumns = func() string {
	cols := postgres.ExtractDBColumns[operation.TechnicalSheet]()
	for i, c := range cols {
		cols[i] = fmt.Sprintf("COALESCE(%s::text, '') AS %s", c, c)
	}
	return strings.Join(cols, ", ")
}()

// TechnicalSheetRepo implements operation.TechnicalSheetReader.
type TechnicalSheetRepo struct {
	db postgres.Querier
}

// NewTechnicalSheetRepo creates a reader over the ERP pool.
func NewTechnicalSheetRepo(pool *postgres.Pool) *TechnicalSheetRepo {
	return &TechnicalSheetRepo{db: pool}
}

// TechnicalSheet returns nil without error when the ERP has no sheet for the lot.
func (r *TechnicalSheetRepo) TechnicalSheet(ctx context.Context, lotID string) (*operation.TechnicalSheet, error) {
	sql := fmt.Sprintf("SELECT %s FROM sp_reg_traer_ficha_tecnica_ppp($1) LIMIT 1", sheetColumns)

	var sheet operation.TechnicalSheet
	if err := pgxscan.Get(ctx, r.db, &sheet, sql, lotID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, apperror.NewStore(fmt.Errorf("get technical sheet: %w", err))
	}
	return &sheet, nil
}

var _ operation.TechnicalSheetReader = (*TechnicalSheetRepo)(nil)
