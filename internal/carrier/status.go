package carrier

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a carrier billing transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed || s == StatusCancelled
}

// StatusRecord is the last known status of a transaction.
type StatusRecord struct {
	TransactionID uuid.UUID
	Status        Status
	UpdatedAt     time.Time
}

// StatusStore remembers the last known status per transaction id for the
// lifetime of the process. Terminal statuses are never overwritten.
type StatusStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]StatusRecord
}

// NewStatusStore creates an empty StatusStore.
func NewStatusStore() *StatusStore {
	return &StatusStore{records: make(map[uuid.UUID]StatusRecord)}
}

// Get returns the record for id.
func (s *StatusStore) Get(id uuid.UUID) (StatusRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Record stores status for id unless id already reached a terminal status,
// and returns the record now held.
func (s *StatusStore) Record(id uuid.UUID, status Status) StatusRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[id]; ok && (rec.Status.Terminal() || rec.Status == status) {
		return rec
	}
	rec := StatusRecord{TransactionID: id, Status: status, UpdatedAt: time.Now()}
	s.records[id] = rec
	return rec
}

// Len returns the number of tracked transactions.
func (s *StatusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
