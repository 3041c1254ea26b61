package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/chazu/steelframe/pkg/model"
)

// Memory keeps records in insertion order in memory.
type Memory struct {
	mu      sync.RWMutex
	records []model.Record
}

func NewMemory(recs ...model.Record) *Memory {
	m := &Memory{}
	for _, r := range recs {
		m.put(cloneRecord(r))
	}
	return m
}

func (m *Memory) List(ctx context.Context) ([]model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.records, func(r model.Record, _ int) model.Record {
		return cloneRecord(r)
	}), nil
}

func (m *Memory) Load(ctx context.Context, id string) (model.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.index(id)
	if i < 0 {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneRecord(m.records[i]), nil
}

// Save inserts rec or replaces the record with the same id.
func (m *Memory) Save(ctx context.Context, rec model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(cloneRecord(rec))
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) put(rec model.Record) {
	if i := m.index(rec.ID); i >= 0 {
		m.records[i] = rec
		return
	}
	m.records = append(m.records, rec)
}

func (m *Memory) index(id string) int {
	_, i, ok := lo.FindIndexOf(m.records, func(r model.Record) bool {
		return sameID(r.ID, id)
	})
	if !ok {
		return -1
	}
	return i
}
