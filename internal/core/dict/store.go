package dict

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/certogo-tech/meilisearch-thai-sub002/internal/core/model"
)

// Snapshot is one immutable view of the compound dictionary. In-flight
// requests keep the snapshot they started with; a reload builds a new
// Snapshot and swaps the store's pointer, it never patches entries in place.
type Snapshot struct {
	entries  map[string]*model.DictionaryEntry
	trie     *trie
	loadedAt time.Time
}

func newSnapshot(entries []model.DictionaryEntry) *Snapshot {
	s := &Snapshot{
		entries:  make(map[string]*model.DictionaryEntry, len(entries)),
		trie:     newTrie(),
		loadedAt: time.Now().UTC(),
	}
	for i := range entries {
		e := entries[i]
		if e.Term == "" {
			continue
		}
		s.entries[e.Term] = &e
		s.trie.insert(&e)
	}
	return s
}

// Lookup returns the entry for an exact term match.
func (s *Snapshot) Lookup(term string) (*model.DictionaryEntry, bool) {
	e, ok := s.entries[term]
	return e, ok
}

// LongestMatch returns the longest dictionary term starting at text[pos],
// with its rune length.
func (s *Snapshot) LongestMatch(text []rune, pos int) (*model.DictionaryEntry, int, bool) {
	return s.trie.longestMatch(text, pos)
}

// Size returns the number of distinct terms in the snapshot.
func (s *Snapshot) Size() int {
	return s.trie.size
}

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Loader is the administration boundary: something that can produce the full
// set of dictionary records, typically from a file or an admin service.
type Loader interface {
	LoadSnapshot() ([]model.DictionaryEntry, error)
}

// Store holds the current dictionary snapshot behind an atomic pointer.
// Lookups on the hot path never take a lock; only Reload swaps the pointer.
type Store struct {
	loader  Loader
	current atomic.Pointer[Snapshot]
}

// NewStore loads the initial snapshot from the loader. A loader failure at
// startup is fatal to the caller, not silently degraded.
func NewStore(loader Loader) (*Store, error) {
	s := &Store{loader: loader}
	if err := s.Reload(); err != nil {
		return nil, fmt.Errorf("initial dictionary load: %w", err)
	}
	return s, nil
}

// Current returns the live snapshot. The returned snapshot stays valid even
// if a reload happens while the caller is still using it.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload pulls a fresh set of records from the loader and atomically swaps
// the snapshot. On loader error the previous snapshot stays in service.
func (s *Store) Reload() error {
	entries, err := s.loader.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("load dictionary snapshot: %w", err)
	}
	s.current.Store(newSnapshot(entries))
	return nil
}
