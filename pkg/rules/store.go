package rules

import "sync/atomic"

// Store holds the active knowledge base snapshot. Reloads replace the
// pointer; snapshots themselves are never modified, so a request that
// loaded one keeps a consistent rule set even if a swap happens mid-flight.
type Store struct {
	current atomic.Pointer[KnowledgeBase]
}

func NewStore(kb *KnowledgeBase) *Store {
	s := &Store{}
	s.current.Store(kb)
	return s
}

// Load returns the current snapshot.
func (s *Store) Load() *KnowledgeBase {
	return s.current.Load()
}

// Swap installs kb and returns the previous snapshot. A nil kb is ignored.
func (s *Store) Swap(kb *KnowledgeBase) *KnowledgeBase {
	if kb == nil {
		return s.current.Load()
	}
	return s.current.Swap(kb)
}
