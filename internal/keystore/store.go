package keystore

import "sync"

// Store is the single live IFTTT key.
//
// The zero value is an empty store ready for use.
// Thread Safety: All methods are safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	key string
	set bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Set replaces the key with payload, verbatim.
//
// An empty or nil payload makes the key absent. Non-empty payloads are not
// trimmed or validated; whitespace and arbitrary bytes are kept as-is.
func (s *Store) Set(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(payload) == 0 {
		s.key = ""
		s.set = false
		return
	}

	s.key = string(payload)
	s.set = true
}

// Current returns the live key and whether one is present.
func (s *Store) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.set
}

// Provisioned reports whether a key is present.
func (s *Store) Provisioned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}
