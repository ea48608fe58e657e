package registration_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"registracion/internal/core/apperror"
	"registracion/internal/core/types"
	"registracion/internal/domain/operation"
	"registracion/internal/domain/weighing"
	"registracion/internal/infrastructure/storage/postgres"
)

var (
	operationColumns = strings.Join(postgres.ExtractDBColumns[operation.Operation](), ", ")
	cutLineColumns   = strings.Join(postgres.ExtractDBColumns[operation.CutLine](), ", ")
)

// OperationRepo implements operation.Repository.
type OperationRepo struct {
	base
}

// NewOperationRepo creates a new operation repository.
func NewOperationRepo(db querierSource) *OperationRepo {
	return &OperationRepo{base: newBase(db)}
}

// listFunction picks the listing procedure for a machine.
func listFunction(machineID string) string {
	if strings.EqualFold(machineID, operation.PackagingMachine) {
		return "sp_traer_operaciones_por_maquina_embalaje"
	}
	return "sp_traer_operaciones_por_maquina"
}

// ListByMachine returns the raw listing for a machine.
func (r *OperationRepo) ListByMachine(ctx context.Context, machineID string) ([]operation.Operation, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s($1)", operationColumns, listFunction(machineID))

	ops := []operation.Operation{}
	if err := pgxscan.Select(ctx, r.db.GetQuerier(ctx), &ops, sql, machineID); err != nil {
		return nil, storeErr("list operations by machine", err)
	}
	return ops, nil
}

// GetOperation resolves the operation's machine and reads its row from the
// same listing the machine view uses, so both see identical facts.
func (r *OperationRepo) GetOperation(ctx context.Context, operationID string) (*operation.Operation, error) {
	var machine string
	err := r.db.GetQuerier(ctx).QueryRow(ctx,
		`SELECT maquina FROM operaciones_calipso WHERE operacion_id = $1`, operationID).Scan(&machine)
	if isNoRows(err) {
		return nil, apperror.NewNotFound("operation", operationID)
	}
	if err != nil {
		return nil, storeErr("get operation machine", err)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s($1) WHERE operacion_id = $2", operationColumns, listFunction(machine))

	var op operation.Operation
	if err := pgxscan.Get(ctx, r.db.GetQuerier(ctx), &op, sql, machine, operationID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("operation", operationID)
		}
		return nil, storeErr("get operation", err)
	}
	return &op, nil
}

// PredecessorState inspects the previous operation on the origin lot.
func (r *OperationRepo) PredecessorState(ctx context.Context, originLotID string) (operation.PredecessorState, error) {
	var estado string
	err := r.db.GetQuerier(ctx).QueryRow(ctx,
		`SELECT COALESCE(estado, '') FROM sp_traer_operaciones_anteriores($1) LIMIT 1`, originLotID).Scan(&estado)
	if isNoRows(err) {
		return operation.PredecessorFromEstado(false, ""), nil
	}
	if err != nil {
		return "", storeErr("get predecessor state", err)
	}
	return operation.PredecessorFromEstado(true, strings.TrimSpace(estado)), nil
}

// QualityVerdict reads the latest quality record of an operation.
func (r *OperationRepo) QualityVerdict(ctx context.Context, operationID string) (operation.QualityVerdict, error) {
	var dictamen *int
	err := r.db.GetQuerier(ctx).QueryRow(ctx,
		`SELECT dictamen FROM sp_traer_calidad_operacion($1) LIMIT 1`, operationID).Scan(&dictamen)
	if isNoRows(err) {
		return operation.VerdictNone, nil
	}
	if err != nil {
		return operation.VerdictNone, storeErr("get quality verdict", err)
	}
	return operation.VerdictFromDictamen(dictamen), nil
}

// GroupNumber returns nil when the operation is not part of a group.
func (r *OperationRepo) GroupNumber(ctx context.Context, operationID string) (*int64, error) {
	sql, args, err := r.builder.Select("numero_multi_operacion").
		From(groupsTable).
		Where(squirrel.Eq{"operacion_id": operationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, storeErr("build group query", err)
	}

	var number int64
	err = r.db.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&number)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get group number", err)
	}
	return &number, nil
}

// GroupMembers lists the operations sharing a group number.
func (r *OperationRepo) GroupMembers(ctx context.Context, number int64) ([]string, error) {
	sql, args, err := r.builder.Select("operacion_id::text").
		From(groupsTable).
		Where(squirrel.Eq{"numero_multi_operacion": number}).
		OrderBy("operacion_id").
		ToSql()
	if err != nil {
		return nil, storeErr("build group members query", err)
	}

	var ids []string
	if err := pgxscan.Select(ctx, r.db.GetQuerier(ctx), &ids, sql, args...); err != nil {
		return nil, storeErr("select group members", err)
	}
	return ids, nil
}

// LastGroupNumber returns the highest group number in use, 0 when none.
func (r *OperationRepo) LastGroupNumber(ctx context.Context) (int64, error) {
	var last int64
	err := r.db.GetQuerier(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(numero_multi_operacion), 0) FROM multi_operaciones`).Scan(&last)
	if err != nil {
		return 0, storeErr("get last group number", err)
	}
	return last, nil
}

// AddToGroup inserts a group row for the operation.
func (r *OperationRepo) AddToGroup(ctx context.Context, operationID string, number int64) error {
	sql, args, err := r.builder.Insert(groupsTable).
		Columns("operacion_id", "numero_multi_operacion").
		Values(operationID, number).
		ToSql()
	if err != nil {
		return storeErr("build add to group", err)
	}
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return storeErr("add operation to group", err)
	}
	return nil
}

// Open starts processing of an operation under a batch number.
func (r *OperationRepo) Open(ctx context.Context, operationID, batchNumber string) error {
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, `SELECT sp_abrir_operacion($1, $2)`, operationID, batchNumber); err != nil {
		return storeErr("open operation", err)
	}
	return nil
}

// SetSuspended sets the suspension flag on every listed operation.
func (r *OperationRepo) SetSuspended(ctx context.Context, operationIDs []string, suspended bool) error {
	if len(operationIDs) == 0 {
		return nil
	}
	sql, args, err := r.builder.Update(operationsTable).
		Set("suspendida", suspended).
		Where(squirrel.Eq{"operacion_id": operationIDs}).
		ToSql()
	if err != nil {
		return storeErr("build set suspended", err)
	}

	tag, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return storeErr("set suspended", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("operation", operationIDs[0])
	}
	return nil
}

// IncomingKg sums the weigh-scale records of the listed operations.
func (r *OperationRepo) IncomingKg(ctx context.Context, operationIDs []string) (types.Kilograms, error) {
	sql, args, err := r.builder.Select("COALESCE(SUM(kilos_balanza), 0)").
		From(transactionsTable).
		Where(squirrel.Eq{"operacion_id": operationIDs}).
		ToSql()
	if err != nil {
		return 0, storeErr("build incoming kg query", err)
	}

	var kg types.Kilograms
	if err := r.db.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&kg); err != nil {
		return 0, storeErr("get incoming kg", err)
	}
	return kg, nil
}

// CutLines returns the planned cuts of an operation.
func (r *OperationRepo) CutLines(ctx context.Context, operationID string) ([]operation.CutLine, error) {
	sql := fmt.Sprintf("SELECT %s FROM sp_traer_operaciones_a_registrar($1)", cutLineColumns)

	lines := []operation.CutLine{}
	if err := pgxscan.Select(ctx, r.db.GetQuerier(ctx), &lines, sql, operationID); err != nil {
		return nil, storeErr("select cut lines", err)
	}
	return lines, nil
}

// RegistrationLines returns every registration line of the listed operations.
func (r *OperationRepo) RegistrationLines(ctx context.Context, operationIDs []string) ([]weighing.RegistrationLine, error) {
	sql, args, err := r.builder.Select(lineColumns()...).
		From(registrationsTable).
		Where(squirrel.Eq{"operacion_id": operationIDs}).
		OrderBy("operacion_id", "sobrante", "lote_ids").
		ToSql()
	if err != nil {
		return nil, storeErr("build registration lines query", err)
	}

	lines := []weighing.RegistrationLine{}
	if err := pgxscan.Select(ctx, r.db.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, storeErr("select registration lines", err)
	}
	return lines, nil
}

var _ operation.Repository = (*OperationRepo)(nil)
