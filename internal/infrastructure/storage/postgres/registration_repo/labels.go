package registration_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"registracion/internal/domain/weighing"
)

// labelCounterID is the key of the single counter row.
const labelCounterID = 1

// LabelRepo implements weighing.LabelAllocator over a single-row counter.
type LabelRepo struct {
	base
}

// NewLabelRepo creates a new label counter repository.
func NewLabelRepo(db querierSource) *LabelRepo {
	return &LabelRepo{base: newBase(db)}
}

// AllocateNextLabel increments the counter and returns the new value. The
// row lock taken by the upsert is held until the caller's transaction ends.
func (r *LabelRepo) AllocateNextLabel(ctx context.Context) (int64, error) {
	sql, args, err := r.builder.Insert(labelsTable).
		Columns("id", "ultima_etiqueta").
		Values(labelCounterID, 1).
		Suffix("ON CONFLICT (id) DO UPDATE SET ultima_etiqueta = " + labelsTable + ".ultima_etiqueta + 1 RETURNING ultima_etiqueta").
		ToSql()
	if err != nil {
		return 0, storeErr("build label allocation", err)
	}

	var next int64
	if err := r.db.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&next); err != nil {
		return 0, storeErr("allocate label", err)
	}
	return next, nil
}

// LastLabel returns the last allocated label, or 0 before the first allocation.
func (r *LabelRepo) LastLabel(ctx context.Context) (int64, error) {
	sql, args, err := r.builder.Select("ultima_etiqueta").
		From(labelsTable).
		Where(squirrel.Eq{"id": labelCounterID}).
		ToSql()
	if err != nil {
		return 0, storeErr("build last label query", err)
	}

	var last int64
	err = r.db.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&last)
	if isNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr("read last label", err)
	}
	return last, nil
}

// EnsureCounter creates the counter row when it does not exist yet.
func (r *LabelRepo) EnsureCounter(ctx context.Context) error {
	sql, args, err := r.builder.Insert(labelsTable).
		Columns("id", "ultima_etiqueta").
		Values(labelCounterID, 0).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return storeErr("build label counter insert", err)
	}
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return storeErr("ensure label counter", err)
	}
	return nil
}

var _ weighing.LabelAllocator = (*LabelRepo)(nil)
