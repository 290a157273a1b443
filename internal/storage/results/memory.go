// internal/storage/results/memory.go
package results

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory results index.
type MemoryStore struct {
	records []Record
	maxSize int
	mu      sync.RWMutex
	counter int64
}

// NewMemoryStore creates a new in-memory store. A maxSize of zero keeps everything.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{maxSize: maxSize}
}

// Save adds a record to the store.
func (m *MemoryStore) Save(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	rec.ID = m.counter
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	m.records = append(m.records, clone(*rec))

	// Trim if over capacity (remove oldest)
	if m.maxSize > 0 && len(m.records) > m.maxSize {
		m.records = m.records[len(m.records)-m.maxSize:]
	}

	return nil
}

// GetByRun returns the records of a run sorted by ticker.
func (m *MemoryStore) GetByRun(ctx context.Context, runID string) ([]Record, error) {
	out, err := m.List(ctx, ListFilter{RunID: runID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

// List returns records matching the filter.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []Record{}
	for _, rec := range m.records {
		if matches(rec, filter) {
			result = append(result, clone(rec))
		}
	}

	// Apply offset and limit
	if filter.Offset > 0 && filter.Offset < len(result) {
		result = result[filter.Offset:]
	} else if filter.Offset >= len(result) && filter.Offset > 0 {
		return []Record{}, nil
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching records.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rec := range m.records {
		if matches(rec, filter) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) Close() error { return nil }

func matches(rec Record, filter ListFilter) bool {
	if filter.RunID != "" && rec.RunID != filter.RunID {
		return false
	}
	if filter.Ticker != "" && rec.Ticker != filter.Ticker {
		return false
	}
	if filter.Status != "" && rec.Status != filter.Status {
		return false
	}
	if !filter.From.IsZero() && rec.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && rec.CreatedAt.After(filter.To) {
		return false
	}
	return true
}

func clone(rec Record) Record {
	if rec.SharpeRatio != nil {
		v := *rec.SharpeRatio
		rec.SharpeRatio = &v
	}
	return rec
}
