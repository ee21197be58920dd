package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/saramaebee/devrev-mcp/engine/core"
)

// DefaultMaxEntries bounds the enrichment cache. Entries live for the
// process lifetime; the only eviction is LRU at this cap.
const DefaultMaxEntries = 500

// Key identifies a cached enrichment by object type and canonical ID
type Key struct {
	Type core.ObjectType
	ID   string
}

// Store is a size-bounded LRU of enriched JSON payloads. There is no
// TTL and no cross-request invalidation beyond overwrite-on-fetch and
// explicit deletion after updates.
type Store struct {
	entries *lru.Cache[Key, string]
}

// New creates a store capped at maxEntries (DefaultMaxEntries when <= 0)
func New(maxEntries int) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[Key, string](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Store{entries: entries}, nil
}

// Get returns the cached payload for (objectType, id), marking it
// most recently used.
func (s *Store) Get(objectType core.ObjectType, id string) (string, bool) {
	return s.entries.Get(Key{Type: objectType, ID: id})
}

// Set stores a payload, overwriting any previous entry for the key and
// evicting the least recently used entry if the store is full.
func (s *Store) Set(objectType core.ObjectType, id, payload string) {
	s.entries.Add(Key{Type: objectType, ID: id}, payload)
}

// Delete removes an entry, reporting whether it existed. Update tools
// call this so the next read refetches.
func (s *Store) Delete(objectType core.ObjectType, id string) bool {
	return s.entries.Remove(Key{Type: objectType, ID: id})
}

// Len returns the current number of cached entries
func (s *Store) Len() int {
	return s.entries.Len()
}
