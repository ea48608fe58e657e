package weighing

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"

	"registracion/internal/core/apperror"
	"registracion/internal/domain/audit"
	"registracion/internal/domain/events"
)

// memStore is an in-memory Repository, LabelAllocator and tx.Manager.
// RunInTransaction snapshots the state and restores it when fn fails.
type memStore struct {
	operations map[string]OperationState
	pool       map[string][]ScrapLot
	used       map[string]int
	lines      map[Key]RegistrationLine
	bundles    map[Key][]StoredBundle
	label      int64
	nextRegID  int64

	audits    []audit.Entry
	published []events.Event

	failInsertBundles error
	writes            int
}

func newMemStore() *memStore {
	return &memStore{
		operations: map[string]OperationState{},
		pool:       map[string][]ScrapLot{},
		used:       map[string]int{},
		lines:      map[Key]RegistrationLine{},
		bundles:    map[Key][]StoredBundle{},
	}
}

type memSnapshot struct {
	pool      map[string][]ScrapLot
	used      map[string]int
	lines     map[Key]RegistrationLine
	bundles   map[Key][]StoredBundle
	label     int64
	audits    int
	published int
}

func (m *memStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := memSnapshot{
		pool:      maps.Clone(m.pool),
		used:      maps.Clone(m.used),
		lines:     maps.Clone(m.lines),
		bundles:   maps.Clone(m.bundles),
		label:     m.label,
		audits:    len(m.audits),
		published: len(m.published),
	}
	if err := fn(ctx); err != nil {
		m.pool, m.used, m.lines, m.bundles, m.label = snap.pool, snap.used, snap.lines, snap.bundles, snap.label
		m.audits = m.audits[:snap.audits]
		m.published = m.published[:snap.published]
		return err
	}
	return nil
}

func (m *memStore) OperationState(_ context.Context, operationID string) (*OperationState, error) {
	st, ok := m.operations[operationID]
	if !ok {
		return nil, apperror.NewNotFound("operation", operationID)
	}
	return &st, nil
}

func (m *memStore) ScrapLotPool(_ context.Context, seriesCode string) ([]ScrapLot, error) {
	var free []ScrapLot
	for _, lot := range m.pool[seriesCode] {
		if m.used[lot.LotID] == 0 {
			free = append(free, lot)
		}
	}
	return free, nil
}

func (m *memStore) MarkScrapLotUsed(_ context.Context, lotID string) error {
	m.writes++
	m.used[lotID]++
	return nil
}

func (m *memStore) ReleaseScrapLot(_ context.Context, lotID string) error {
	m.writes++
	delete(m.used, lotID)
	return nil
}

func (m *memStore) FindLine(_ context.Context, key Key) (*RegistrationLine, error) {
	line, ok := m.lines[key]
	if !ok {
		return nil, nil
	}
	return &line, nil
}

func (m *memStore) InsertLine(_ context.Context, line RegistrationLine) error {
	m.writes++
	if _, ok := m.lines[line.Key()]; ok {
		return errors.New("duplicate registration line")
	}
	m.lines[line.Key()] = line
	return nil
}

func (m *memStore) UpdateLine(_ context.Context, line RegistrationLine) error {
	m.writes++
	if _, ok := m.lines[line.Key()]; !ok {
		return errors.New("registration line not found")
	}
	m.lines[line.Key()] = line
	return nil
}

func (m *memStore) DeleteLine(_ context.Context, key Key) error {
	m.writes++
	delete(m.lines, key)
	return nil
}

func (m *memStore) InsertBundles(_ context.Context, key Key, bundles []Bundle) error {
	m.writes++
	if m.failInsertBundles != nil {
		return m.failInsertBundles
	}
	rows := slices.Clone(m.bundles[key])
	for _, b := range bundles {
		m.nextRegID++
		rows = append(rows, StoredBundle{Bundle: b, RegistrationID: m.nextRegID})
	}
	m.bundles[key] = rows
	return nil
}

func (m *memStore) DeleteBundles(_ context.Context, key Key) error {
	m.writes++
	delete(m.bundles, key)
	return nil
}

func (m *memStore) ListBundles(_ context.Context, key Key) ([]StoredBundle, error) {
	return slices.Clone(m.bundles[key]), nil
}

func (m *memStore) ListSurplusBundles(_ context.Context, operationID string) ([]StoredBundle, error) {
	var out []StoredBundle
	for key, rows := range m.bundles {
		if key.OperationID == operationID && key.Code == CodeSurplus {
			out = append(out, rows...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegistrationID < out[j].RegistrationID })
	return out, nil
}

func (m *memStore) AllocateNextLabel(_ context.Context) (int64, error) {
	m.label++
	return m.label, nil
}

func (m *memStore) LastLabel(_ context.Context) (int64, error) {
	return m.label, nil
}

func (m *memStore) Record(_ context.Context, entry audit.Entry) error {
	m.audits = append(m.audits, entry)
	return nil
}

func (m *memStore) Publish(_ context.Context, event events.Event) error {
	m.published = append(m.published, event)
	return nil
}

// bundleState strips the store-generated registration id so two states can
// be compared independently of insertion history.
func (m *memStore) bundleState() map[Key][]Bundle {
	out := make(map[Key][]Bundle, len(m.bundles))
	for key, rows := range m.bundles {
		for _, r := range rows {
			out[key] = append(out[key], r.Bundle)
		}
	}
	return out
}

func newTestService(store *memStore) *Service {
	return NewService(ServiceConfig{
		Repo:      store,
		Labels:    store,
		TxManager: store,
		Audit:     store,
		Events:    store,
	})
}
