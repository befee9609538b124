package repository

import (
	"context"
	"sync"

	apperrors "go-image-compressor/internal/errors"
)

// DefaultResultCapacity bounds the in-memory result history
const DefaultResultCapacity = 1000

// MemoryResultRepository keeps the most recent results in memory. Once full,
// the oldest record is evicted.
type MemoryResultRepository struct {
	mu       sync.RWMutex
	capacity int

	// order is a ring of run IDs; head is the oldest, size the live count
	order   []string
	head    int
	size    int
	records map[string]*ResultRecord
}

// NewMemoryResultRepository creates a repository holding up to capacity
// records; non-positive values select DefaultResultCapacity.
func NewMemoryResultRepository(capacity int) *MemoryResultRepository {
	if capacity <= 0 {
		capacity = DefaultResultCapacity
	}
	return &MemoryResultRepository{
		capacity: capacity,
		order:    make([]string, capacity),
		records:  make(map[string]*ResultRecord, capacity),
	}
}

func (r *MemoryResultRepository) SaveResult(_ context.Context, result *ResultRecord) error {
	if result == nil || result.RunID == "" {
		return apperrors.NewValidationError("result must have a run id", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *result
	if _, exists := r.records[cp.RunID]; !exists {
		if r.size == r.capacity {
			// overwrite the oldest slot
			delete(r.records, r.order[r.head])
			r.order[r.head] = cp.RunID
			r.head = (r.head + 1) % r.capacity
		} else {
			r.order[(r.head+r.size)%r.capacity] = cp.RunID
			r.size++
		}
	}
	r.records[cp.RunID] = &cp
	return nil
}

func (r *MemoryResultRepository) GetResult(_ context.Context, runID string) (*ResultRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[runID]
	if !ok {
		return nil, apperrors.NewNotFoundError(ErrResultNotFound.Error(), ErrResultNotFound).
			WithDetails("run %s", runID)
	}
	cp := *rec
	return &cp, nil
}

func (r *MemoryResultRepository) GetResultHistory(_ context.Context, imageURL string) ([]*ResultRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var history []*ResultRecord
	for i := r.size - 1; i >= 0; i-- {
		rec := r.records[r.order[(r.head+i)%r.capacity]]
		if rec.ImageURL == imageURL {
			cp := *rec
			history = append(history, &cp)
		}
	}
	return history, nil
}
