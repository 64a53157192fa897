package smartflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps the encoded saved-flow list in memory. The list goes
// through JSON like every other backend, so a round trip through it matches
// a round trip through a real store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// CreateSchema is a no-op; the map needs no setup.
func (s *MemoryStore) CreateSchema(ctx context.Context) error { return nil }

// DropSchema discards everything stored.
func (s *MemoryStore) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.data)
	return nil
}

// LoadFlows decodes the stored list. Returns nil, nil if nothing has been
// saved yet.
func (s *MemoryStore) LoadFlows(ctx context.Context) ([]SavedFlow, error) {
	s.mu.Lock()
	raw, ok := s.data[StorageKey]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return DecodeSavedFlows(raw)
}

// SaveFlows encodes and replaces the stored list.
func (s *MemoryStore) SaveFlows(ctx context.Context, flows []SavedFlow) error {
	raw, err := EncodeSavedFlows(flows)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[StorageKey] = raw
	return nil
}

// Put stores raw bytes under the storage key, bypassing encoding.
func (s *MemoryStore) Put(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[StorageKey] = raw
}

// EncodeSavedFlows encodes the list as a JSON array. A nil list encodes as [].
func EncodeSavedFlows(flows []SavedFlow) ([]byte, error) {
	if flows == nil {
		flows = []SavedFlow{}
	}
	raw, err := json.Marshal(flows)
	if err != nil {
		return nil, fmt.Errorf("smartflow: encode saved flows: %w", err)
	}
	return raw, nil
}

// DecodeSavedFlows decodes a JSON array of saved flows.
func DecodeSavedFlows(raw []byte) ([]SavedFlow, error) {
	var flows []SavedFlow
	if err := json.Unmarshal(raw, &flows); err != nil {
		return nil, fmt.Errorf("smartflow: decode saved flows: %w", err)
	}
	return flows, nil
}
