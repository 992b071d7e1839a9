package records

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo for tests and database-less dev runs.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]ConfirmedRecord
}

// NewMemoryRepo constructs an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: make(map[string]ConfirmedRecord)}
}

// Create stores a confirmed record.
func (r *MemoryRepo) Create(ctx context.Context, record ConfirmedRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = record
	return nil
}

// Get fetches one confirmed record by id.
func (r *MemoryRepo) Get(ctx context.Context, id string) (ConfirmedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return ConfirmedRecord{}, ErrNotFound
	}
	return record, nil
}

// ListByUser returns the latest confirmed records for a user.
func (r *MemoryRepo) ListByUser(ctx context.Context, usuarioID string, limit int) ([]ConfirmedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ConfirmedRecord
	for _, record := range r.records {
		if record.UsuarioID == usuarioID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
