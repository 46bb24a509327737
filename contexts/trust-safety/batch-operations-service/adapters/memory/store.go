package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainerrors "warden/contexts/trust-safety/batch-operations-service/domain/errors"
	"warden/contexts/trust-safety/batch-operations-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory history adapter used by tests and DSN-less runs.
type Store struct {
	mu         sync.Mutex
	operations map[string]ports.ArchivedOperation
	audit      []ports.AuditEntry
}

func NewStore() *Store {
	return &Store{
		operations: make(map[string]ports.ArchivedOperation),
	}
}

// Now implements ports.Clock for in-memory wiring.
func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

// NewID implements ports.IDGenerator for in-memory wiring.
func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) AppendAuditLog(_ context.Context, row ports.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, row)
	return nil
}

func (s *Store) ListRecentAuditLogs(_ context.Context, limit int) ([]ports.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]ports.AuditEntry, 0, limit)
	for i := len(s.audit) - 1; i >= 0; i-- {
		out = append(out, s.audit[i])
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) ArchiveOperation(_ context.Context, row ports.ArchivedOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.operations[row.OperationID]; ok {
		return domainerrors.ErrDuplicateOperation
	}
	row.Items = append([]ports.ArchivedItem(nil), row.Items...)
	s.operations[row.OperationID] = row
	return nil
}

func (s *Store) ListRecentOperations(_ context.Context, limit int) ([]ports.ArchivedOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]ports.ArchivedOperation, 0, len(s.operations))
	for _, row := range s.operations {
		clone := row
		clone.Items = append([]ports.ArchivedItem(nil), row.Items...)
		out = append(out, clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EndedAt.After(out[j].EndedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) PruneOperationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pruned int64
	for id, row := range s.operations {
		if row.EndedAt.Before(cutoff) {
			delete(s.operations, id)
			pruned++
		}
	}
	return pruned, nil
}
