package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu      sync.RWMutex
	records map[model.GameID]*model.GameRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		records: make(map[model.GameID]*model.GameRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveGameRecord(ctx context.Context, record *model.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *Storage) GetGameRecord(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return cloneRecord(record), nil
}

func (s *Storage) ListGameRecords(ctx context.Context, limit int) ([]*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*model.GameRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, cloneRecord(r))
	}
	slices.SortFunc(records, func(a, b *model.GameRecord) int {
		return b.EndedAt.Compare(a.EndedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Storage) Close() error {
	return nil
}

func cloneRecord(r *model.GameRecord) *model.GameRecord {
	c := *r
	c.Players = slices.Clone(r.Players)
	c.Eliminations = slices.Clone(r.Eliminations)
	return &c
}
