package registration_repo

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"registracion/internal/core/apperror"
	"registracion/internal/domain/weighing"
	"registracion/internal/infrastructure/storage/postgres"
)

var bundleCopyColumns = []string{
	"operacion_id", "lote_ids", "sobrante", "atado", "rollos", "peso", "calidad", "etiqueta", "destino_lote",
}

// WeighingRepo implements weighing.Repository.
type WeighingRepo struct {
	base
	txManager *postgres.TxManager
}

// NewWeighingRepo creates a new weighing repository.
func NewWeighingRepo(txManager *postgres.TxManager) *WeighingRepo {
	return &WeighingRepo{base: newBase(txManager), txManager: txManager}
}

// OperationState locks the operation row for the rest of the transaction.
func (r *WeighingRepo) OperationState(ctx context.Context, operationID string) (*weighing.OperationState, error) {
	sql, args, err := r.builder.
		Select("operacion_id::text AS operacion_id", textColumn("estado"), textColumn("cod_serie")).
		From(operationsTable).
		Where(squirrel.Eq{"operacion_id": operationID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, storeErr("build operation state query", err)
	}

	var state weighing.OperationState
	if err := pgxscan.Get(ctx, r.db.GetQuerier(ctx), &state, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("operation", operationID)
		}
		return nil, storeErr("get operation state", err)
	}
	return &state, nil
}

// ScrapLotPool lists unused scrap lots of a series in the order the store ranks them.
func (r *WeighingRepo) ScrapLotPool(ctx context.Context, seriesCode string) ([]weighing.ScrapLot, error) {
	var lots []weighing.ScrapLot
	err := pgxscan.Select(ctx, r.db.GetQuerier(ctx), &lots,
		`SELECT lote_ids::text AS lote_ids, COALESCE(destino_lote, '') AS destino_lote
		 FROM sp_traer_lotes_disponibles_scrap($1)`, seriesCode)
	if err != nil {
		return nil, storeErr("select scrap lot pool", err)
	}
	return lots, nil
}

// MarkScrapLotUsed flags a pool lot as consumed.
func (r *WeighingRepo) MarkScrapLotUsed(ctx context.Context, lotID string) error {
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, `SELECT sp_editar_lotes_disponibles_scrap($1, true)`, lotID); err != nil {
		return storeErr("mark scrap lot used", err)
	}
	return nil
}

// ReleaseScrapLot puts a pool lot back into circulation.
func (r *WeighingRepo) ReleaseScrapLot(ctx context.Context, lotID string) error {
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, `SELECT sp_editar_lotes_disponibles_scrap($1, false)`, lotID); err != nil {
		return storeErr("release scrap lot", err)
	}
	return nil
}

func keyWhere(key weighing.Key) squirrel.Eq {
	return squirrel.Eq{
		"operacion_id": key.OperationID,
		"lote_ids":     nullableLot(key.LotID),
		"sobrante":     key.Code,
	}
}

func lineColumns() []string {
	return []string{
		"operacion_id::text AS operacion_id", lotColumn("lote_ids"), "sobrante",
		"kilos_sobreorden", "kilos_calidad", "atados", "rollos",
		textColumn("destino_lote"), textColumn("descripcion"),
	}
}

// FindLine returns nil without error when no line exists for key.
func (r *WeighingRepo) FindLine(ctx context.Context, key weighing.Key) (*weighing.RegistrationLine, error) {
	sql, args, err := r.builder.Select(lineColumns()...).
		From(registrationsTable).
		Where(keyWhere(key)).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, storeErr("build find line query", err)
	}

	var line weighing.RegistrationLine
	if err := pgxscan.Get(ctx, r.db.GetQuerier(ctx), &line, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, storeErr("find registration line", err)
	}
	return &line, nil
}

// InsertLine inserts a new aggregate line.
func (r *WeighingRepo) InsertLine(ctx context.Context, line weighing.RegistrationLine) error {
	values := postgres.StructToMap(line)
	values["lote_ids"] = nullableLot(line.LotID)

	sql, args, err := r.builder.Insert(registrationsTable).SetMap(values).ToSql()
	if err != nil {
		return storeErr("build insert line", err)
	}
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return storeErr("insert registration line", err)
	}
	return nil
}

// UpdateLine overwrites the totals of the line identified by line.Key().
func (r *WeighingRepo) UpdateLine(ctx context.Context, line weighing.RegistrationLine) error {
	sql, args, err := r.builder.Update(registrationsTable).
		Set("kilos_sobreorden", line.OverOrderKg).
		Set("kilos_calidad", line.QualityKg).
		Set("atados", line.Bundles).
		Set("rollos", line.Rolls).
		Set("destino_lote", line.DestinationLot).
		Set("descripcion", line.Description).
		Where(keyWhere(line.Key())).
		ToSql()
	if err != nil {
		return storeErr("build update line", err)
	}

	tag, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return storeErr("update registration line", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("registration line", line.OperationID)
	}
	return nil
}

// DeleteLine removes the line for key. Missing lines are not an error.
func (r *WeighingRepo) DeleteLine(ctx context.Context, key weighing.Key) error {
	sql, args, err := r.builder.Delete(registrationsTable).Where(keyWhere(key)).ToSql()
	if err != nil {
		return storeErr("build delete line", err)
	}
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return storeErr("delete registration line", err)
	}
	return nil
}

// InsertBundles writes all bundles of a line in one batch. Inside a
// transaction the COPY protocol is used.
func (r *WeighingRepo) InsertBundles(ctx context.Context, key weighing.Key, bundles []weighing.Bundle) error {
	if len(bundles) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(bundles))
	for _, b := range bundles {
		rows = append(rows, []any{
			key.OperationID, nullableLot(key.LotID), key.Code,
			b.Number, b.Rolls, b.Weight.Float64(), b.Quality, b.Label, b.Destination,
		})
	}

	if r.txManager != nil && r.txManager.GetTx(ctx) != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		if _, err := inserter.CopyFromSlice(ctx, bundlesTable, bundleCopyColumns, rows); err != nil {
			return storeErr("copy bundles", err)
		}
		return nil
	}

	q := r.builder.Insert(bundlesTable).Columns(bundleCopyColumns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return storeErr("build insert bundles", err)
	}
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return storeErr("insert bundles", err)
	}
	return nil
}

// DeleteBundles removes every bundle of the line identified by key.
func (r *WeighingRepo) DeleteBundles(ctx context.Context, key weighing.Key) error {
	sql, args, err := r.builder.Delete(bundlesTable).Where(keyWhere(key)).ToSql()
	if err != nil {
		return storeErr("build delete bundles", err)
	}
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return storeErr("delete bundles", err)
	}
	return nil
}

func bundleColumns() []string {
	return []string{
		"atado", "rollos", "peso", "calidad", "COALESCE(etiqueta, 0) AS etiqueta",
		textColumn("destino_lote"), "id_registro_pesaje",
	}
}

// ListBundles returns the bundles of one line in registration order.
func (r *WeighingRepo) ListBundles(ctx context.Context, key weighing.Key) ([]weighing.StoredBundle, error) {
	return r.selectBundles(ctx, keyWhere(key))
}

// ListSurplusBundles returns all surplus bundles of an operation, whatever their lot.
func (r *WeighingRepo) ListSurplusBundles(ctx context.Context, operationID string) ([]weighing.StoredBundle, error) {
	return r.selectBundles(ctx, squirrel.Eq{"operacion_id": operationID, "sobrante": weighing.CodeSurplus})
}

func (r *WeighingRepo) selectBundles(ctx context.Context, where squirrel.Eq) ([]weighing.StoredBundle, error) {
	sql, args, err := r.builder.Select(bundleColumns()...).
		From(bundlesTable).
		Where(where).
		OrderBy("id_registro_pesaje ASC").
		ToSql()
	if err != nil {
		return nil, storeErr("build bundles query", err)
	}

	bundles := []weighing.StoredBundle{}
	if err := pgxscan.Select(ctx, r.db.GetQuerier(ctx), &bundles, sql, args...); err != nil {
		return nil, storeErr("select bundles", err)
	}
	return bundles, nil
}

// isNoRows reports a missing row from a plain QueryRow scan.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

var _ weighing.Repository = (*WeighingRepo)(nil)
