package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jonathan/resume-versions/internal/logger"
	"github.com/jonathan/resume-versions/internal/types"
)

// MemoryStore keeps encoded records in process memory. Records are stored as bytes so callers
// never share structure with the store, matching the durable backends.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	log     *logger.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &MemoryStore{
		records: make(map[string][]byte),
		log:     log.With("component", "memory_store"),
	}
}

func (s *MemoryStore) Put(_ context.Context, companyID string, history *types.CompanyVersionHistory) error {
	data, err := EncodeHistory(companyID, history)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records[companyID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, companyID string) (*types.CompanyVersionHistory, error) {
	s.mu.RLock()
	data, ok := s.records[companyID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return DecodeHistory("get", companyID, data)
}

func (s *MemoryStore) Delete(_ context.Context, companyID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[companyID]; !ok {
		return false, nil
	}
	delete(s.records, companyID)
	return true, nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]*types.CompanyVersionHistory, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	snapshot := make(map[string][]byte, len(keys))
	for _, key := range keys {
		snapshot[key] = s.records[key]
	}
	s.mu.RUnlock()

	histories := make([]*types.CompanyVersionHistory, 0, len(keys))
	for _, key := range keys {
		history, err := DecodeHistory("list", key, snapshot[key])
		if err != nil {
			s.log.Warn("skipping corrupt history record", "key", key, "error", err)
			continue
		}
		histories = append(histories, history)
	}
	return histories, nil
}

// Raw returns the stored bytes for companyID. Used by tests that compare records byte for byte.
func (s *MemoryStore) Raw(companyID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[companyID]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}
