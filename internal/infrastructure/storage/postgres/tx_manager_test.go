package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registracion/internal/core/apperror"
)

// recordingTx tracks how a transaction ended. Methods the manager never calls
// are left to the embedded nil interface.
type recordingTx struct {
	pgx.Tx
	statements []string
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *recordingTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.statements = append(t.statements, sql)
	return pgconn.NewCommandTag("SET"), nil
}

func (t *recordingTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *recordingTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeDatabase struct {
	Querier
	tx       *recordingTx
	beginErr error
}

func (d *fakeDatabase) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}

func newFakeTxManager() (*TxManager, *fakeDatabase) {
	db := &fakeDatabase{tx: &recordingTx{}}
	return &TxManager{pool: db, opts: DefaultTxOptions()}, db
}

func TestRunInTransaction_CommitsOnSuccess(t *testing.T) {
	m, db := newFakeTxManager()

	err := m.RunInTransaction(context.Background(), func(ctx context.Context) error {
		assert.Same(t, db.tx, m.GetTx(ctx))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, db.tx.committed)
	assert.False(t, db.tx.rolledBack)
	require.Len(t, db.tx.statements, 1)
	assert.Contains(t, db.tx.statements[0], "statement_timeout")
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	m, db := newFakeTxManager()
	boom := errors.New("insert failed")

	err := m.RunInTransaction(context.Background(), func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.True(t, db.tx.rolledBack)
	assert.False(t, db.tx.committed)
}

func TestRunInTransaction_RollsBackAndRepanics(t *testing.T) {
	m, db := newFakeTxManager()

	assert.PanicsWithValue(t, "nil repo", func() {
		_ = m.RunInTransaction(context.Background(), func(context.Context) error {
			panic("nil repo")
		})
	})
	assert.True(t, db.tx.rolledBack)
	assert.False(t, db.tx.committed)
}

func TestRunInTransaction_NestedCallsJoin(t *testing.T) {
	m, db := newFakeTxManager()

	err := m.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return m.RunInTransaction(ctx, func(inner context.Context) error {
			assert.Same(t, db.tx, m.GetTx(inner))
			return nil
		})
	})

	require.NoError(t, err)
	assert.Len(t, db.tx.statements, 1)
}

func TestRunInTransaction_StoreFailuresAreTransient(t *testing.T) {
	m, db := newFakeTxManager()
	db.beginErr = errors.New("connection refused")

	err := m.RunInTransaction(context.Background(), func(context.Context) error { return nil })
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))

	m, db = newFakeTxManager()
	db.tx.commitErr = errors.New("serialization failure")
	err = m.RunInTransaction(context.Background(), func(context.Context) error { return nil })
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))
}
