package repository

import (
	"context"
	"sync"
)

// AckMarker is the stored value of an acknowledgment entry.
const AckMarker = "1"

// AckRepository persists one acknowledgment flag per student id. A missing
// entry reads as false.
type AckRepository interface {
	IsAcknowledged(ctx context.Context, studentID string) (bool, error)
	Acknowledge(ctx context.Context, studentID string) error
	Close() error
}

type MemoryAckRepository struct {
	mu      sync.RWMutex
	entries map[string]struct{}
}

func NewMemoryAckRepository() *MemoryAckRepository {
	return &MemoryAckRepository{entries: make(map[string]struct{})}
}

func (r *MemoryAckRepository) IsAcknowledged(_ context.Context, studentID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[studentID]
	return ok, nil
}

func (r *MemoryAckRepository) Acknowledge(_ context.Context, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[studentID] = struct{}{}
	return nil
}

// Len is the number of distinct acknowledged ids.
func (r *MemoryAckRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *MemoryAckRepository) Close() error {
	return nil
}
