package monitor

import "sync"

// Store persists per-object key-value mappings across evaluation cycles.
// Implementations own the external representation; the monitor only defines
// the logical shape (mapping of algorithm identifier to tagged fingerprint).
type Store interface {
	Put(object, key string, value map[string]string) error
	Get(object, key string) (map[string]string, bool, error)
	Delete(object, key string) error
}

// MemoryStore is a process-local Store. Safe for concurrent use across
// objects; it is the default when no persistent journal is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]map[string]string)}
}

func (s *MemoryStore) Put(object, key string, value map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.data[object]
	if !ok {
		keys = make(map[string]map[string]string)
		s.data[object] = keys
	}
	copied := make(map[string]string, len(value))
	for k, v := range value {
		copied[k] = v
	}
	keys[key] = copied
	return nil
}

func (s *MemoryStore) Get(object, key string) (map[string]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys, ok := s.data[object]
	if !ok {
		return nil, false, nil
	}
	value, ok := keys[key]
	if !ok {
		return nil, false, nil
	}
	copied := make(map[string]string, len(value))
	for k, v := range value {
		copied[k] = v
	}
	return copied, true, nil
}

func (s *MemoryStore) Delete(object, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keys, ok := s.data[object]; ok {
		delete(keys, key)
	}
	return nil
}
