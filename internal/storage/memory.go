package storage

import (
	"context"
	"sync"

	"github.com/xaenox/intentbot/internal/models"
)

// MemoryStorage keeps records in an in-process buffer.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []models.Interaction
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Append(ctx context.Context, rec *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, *rec)
	return nil
}

// Records returns a copy of everything appended so far.
func (s *MemoryStorage) Records() []models.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Interaction, len(s.records))
	copy(out, s.records)
	return out
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
