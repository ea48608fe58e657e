package registration_repo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registracion/internal/core/apperror"
	"registracion/internal/domain/weighing"
	"registracion/internal/infrastructure/storage/postgres"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockCounter simulates the etiquetas row.
type mockCounter struct {
	mu      sync.Mutex
	exists  bool
	value   int64
	failErr error
	queries []string
}

func (m *mockCounter) GetQuerier(context.Context) postgres.Querier { return m }

func (m *mockCounter) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, sql)
	if strings.Contains(sql, "DO NOTHING") && !m.exists {
		m.exists = true
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 0"), nil
}

func (m *mockCounter) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (m *mockCounter) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, sql)
	if m.failErr != nil {
		return &mockRow{err: m.failErr}
	}
	if strings.Contains(sql, "RETURNING") {
		if m.exists {
			m.value++
		} else {
			m.exists, m.value = true, 1
		}
		return &mockRow{val: m.value}
	}
	if !m.exists {
		return &mockRow{err: pgx.ErrNoRows}
	}
	return &mockRow{val: m.value}
}

func TestLabelRepo_AllocatesMonotonically(t *testing.T) {
	ctx := context.Background()
	repo := NewLabelRepo(&mockCounter{})

	last, err := repo.LastLabel(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)

	for want := int64(1); want <= 3; want++ {
		got, err := repo.AllocateNextLabel(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	last, err = repo.LastLabel(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)
}

func TestLabelRepo_EnsureCounterKeepsExistingValue(t *testing.T) {
	ctx := context.Background()
	counter := &mockCounter{exists: true, value: 41}
	repo := NewLabelRepo(counter)

	require.NoError(t, repo.EnsureCounter(ctx))
	next, err := repo.AllocateNextLabel(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)
}

func TestLabelRepo_QueriesTargetCounterTable(t *testing.T) {
	ctx := context.Background()
	counter := &mockCounter{}
	repo := NewLabelRepo(counter)

	require.NoError(t, repo.EnsureCounter(ctx))
	_, err := repo.AllocateNextLabel(ctx)
	require.NoError(t, err)
	_, err = repo.LastLabel(ctx)
	require.NoError(t, err)

	require.Len(t, counter.queries, 3)
	assert.Contains(t, counter.queries[0], "INSERT INTO "+labelsTable)
	assert.Contains(t, counter.queries[1], "INSERT INTO "+labelsTable)
	assert.Contains(t, counter.queries[1], labelsTable+".ultima_etiqueta + 1")
	assert.Contains(t, counter.queries[2], "FROM "+labelsTable+" WHERE id = $1")
}

func TestLabelRepo_StoreFailureIsTransient(t *testing.T) {
	repo := NewLabelRepo(&mockCounter{failErr: errors.New("connection reset")})

	_, err := repo.AllocateNextLabel(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))
	assert.Equal(t, 500, apperror.GetHTTPStatus(err))
}

func TestNullableLot(t *testing.T) {
	assert.Nil(t, nullableLot(""))
	assert.Equal(t, "abc", nullableLot("abc"))
}

func TestKeyWhere_SurplusWithoutLotRendersIsNull(t *testing.T) {
	b := newBase(&mockCounter{})
	sql, args, err := b.builder.Delete(registrationsTable).
		Where(keyWhere(weighing.Key{OperationID: "op", Code: 1})).
		ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "lote_ids IS NULL")
	assert.ElementsMatch(t, []any{"op", 1}, args)
}
