package infrastructure

import (
	"context"
	"sync"

	"github.com/brgy-santafe/registry/internal/case/domain"
	"github.com/brgy-santafe/registry/internal/sequence"
	"github.com/brgy-santafe/registry/internal/shared/errors"
	"github.com/brgy-santafe/registry/internal/shared/types"
)

// MemoryStore is an in-memory stage store for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[types.ID]*domain.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[types.ID]*domain.Record)}
}

// NewMemoryStores builds a full pipeline of in-memory stores.
func NewMemoryStores() domain.Stores {
	stores := make(domain.Stores)
	for _, st := range domain.LiveStages {
		stores[st] = NewMemoryStore()
	}
	for _, st := range domain.ArchiveStages {
		stores[st] = NewMemoryStore()
	}
	return stores
}

var _ domain.Store = (*MemoryStore)(nil)

func (s *MemoryStore) FindByID(_ context.Context, id types.ID) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, errors.NotFound("case", id.String())
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Find(_ context.Context, f domain.Filter) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Record, 0, len(s.records))
	for _, rec := range s.records {
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if f.CaseNumber != "" && rec.CaseNumber != f.CaseNumber {
			continue
		}
		out = append(out, *rec.Clone())
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) FindMaxByField(_ context.Context, field string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Record
	bestN := -1
	for _, rec := range s.records {
		n := sequence.NumericPrefix(fieldValue(rec, field))
		if n > bestN {
			best, bestN = rec, n
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.Clone(), nil
}

func (s *MemoryStore) Insert(_ context.Context, rec *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID.IsZero() {
		rec.ID = types.NewID()
	}
	if _, exists := s.records[rec.ID]; exists {
		return errors.Conflict("case already exists: " + rec.ID.String())
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, rec *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return errors.NotFound("case", rec.ID.String())
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return errors.NotFound("case", id.String())
	}
	delete(s.records, id)
	return nil
}

func fieldValue(rec *domain.Record, field string) string {
	if field == domain.FieldCaseNumber {
		return rec.CaseNumber
	}
	return rec.Fields[field]
}
