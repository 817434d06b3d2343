// Package externalities provides an in-memory implementation of
// runtime.Externalities, standing in for the chain database this module
// does not own: a plain map guarded by a single RWMutex.
package externalities

import (
	"sync"

	"github.com/nodalchain/core/pkg/chainhash"
)

// Store is a keyed byte-slice store with content hashing, implementing
// runtime.Externalities.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// Set installs or replaces the value at key. Intended for test setup and
// for the demo CLI wiring; a real node's externalities view is backed by
// the chain trie instead.
func (s *Store) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key, if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// OriginalStorage implements runtime.Externalities.
func (s *Store) OriginalStorage(key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[string(key)]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// OriginalStorageHash implements runtime.Externalities.
func (s *Store) OriginalStorageHash(key []byte) (chainhash.Hash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[string(key)]
	if !ok {
		return chainhash.Hash{}, false
	}
	return chainhash.Sum(v), true
}
