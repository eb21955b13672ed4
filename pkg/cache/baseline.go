package cache

import (
	"context"
	"sync"

	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// BaselineStore holds one baseline per rule. Entries are write-once:
// PutIfAbsent never replaces an existing baseline.
type BaselineStore interface {
	Get(ctx context.Context, ruleID string) (*models.Baseline, bool, error)
	// PutIfAbsent stores b unless a baseline already exists. It returns the
	// baseline stored afterwards and whether b was the one written.
	PutIfAbsent(ctx context.Context, ruleID string, b *models.Baseline) (*models.Baseline, bool, error)
	Delete(ctx context.Context, ruleID string) error
	Clear(ctx context.Context) error
}

// MemoryBaselineStore keeps baselines for the lifetime of the process
type MemoryBaselineStore struct {
	data  map[string]*models.Baseline
	mutex sync.RWMutex
}

func NewMemoryBaselineStore() *MemoryBaselineStore {
	return &MemoryBaselineStore{
		data: make(map[string]*models.Baseline),
	}
}

func (s *MemoryBaselineStore) Get(_ context.Context, ruleID string) (*models.Baseline, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	b, exists := s.data[ruleID]
	return b, exists, nil
}

func (s *MemoryBaselineStore) PutIfAbsent(_ context.Context, ruleID string, b *models.Baseline) (*models.Baseline, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if existing, exists := s.data[ruleID]; exists {
		return existing, false, nil
	}
	s.data[ruleID] = b
	return b, true, nil
}

func (s *MemoryBaselineStore) Delete(_ context.Context, ruleID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, ruleID)
	return nil
}

func (s *MemoryBaselineStore) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data = make(map[string]*models.Baseline)
	return nil
}

// Len returns the number of cached baselines
func (s *MemoryBaselineStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
