package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lepinkainen/biblio/internal/books"
)

const (
	// StorageKey is the single KV key the whole favorites table lives under.
	StorageKey = "favorites:v1"

	storageVersion = 1
)

const (
	msgLoadFailed = "Could not load your favorites."
	msgSaveFailed = "Could not save your favorites."
)

// persistedState is the wire shape stored in the KV.
type persistedState struct {
	ByID    map[string]books.Book `json:"byId"`
	AllIDs  []string              `json:"allIds"`
	SavedAt time.Time             `json:"savedAt"`
	Version int                   `json:"version"`
}

// Store holds the favorites table in memory and mirrors it to a KV. Reads are
// always served from memory; writes go through the pure apply transition and
// are persisted asynchronously, best effort. A persistence failure never rolls
// back in-memory state.
type Store struct {
	kv  KV
	key string
	now func() time.Time

	mu         sync.Mutex
	state      State
	persistGen uint64

	// persistMu serializes KV writes; persistGen drops superseded payloads so
	// the durable blob always ends up at the newest committed state.
	persistMu sync.Mutex
	persists  sync.WaitGroup
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStorageKey overrides the KV key the table is stored under.
func WithStorageKey(key string) StoreOption {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the time source used for the savedAt stamp.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store over the given KV. Call Hydrate before relying on
// Snapshot contents; until then the store reports IsLoading.
func NewStore(kv KV, opts ...StoreOption) *Store {
	s := &Store{
		kv:    kv,
		key:   StorageKey,
		now:   time.Now,
		state: initialState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads the persisted table into memory. A missing key yields an empty
// loaded table. A corrupt or incompatible payload is discarded, the key is
// removed so the next save starts clean, and hydration still succeeds empty.
// Inconsistent payloads are repaired rather than rejected.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.state.IsLoaded {
		s.mu.Unlock()
		return nil
	}
	s.state = apply(s.state, setLoadingCmd{loading: true})
	s.mu.Unlock()

	raw, found, err := s.kv.GetItem(ctx, s.key)
	if err != nil {
		s.mu.Lock()
		s.state = apply(s.state, setErrorCmd{msg: msgLoadFailed})
		s.mu.Unlock()
		return fmt.Errorf("failed to hydrate favorites: %w", err)
	}

	byID := map[string]books.Book{}
	var allIDs []string
	if found {
		var stored persistedState
		if unmarshalErr := json.Unmarshal(raw, &stored); unmarshalErr != nil || stored.Version != storageVersion {
			slog.Warn("Discarding unreadable favorites payload",
				"key", s.key, "error", unmarshalErr)
			if removeErr := s.kv.RemoveItem(ctx, s.key); removeErr != nil {
				slog.Warn("Failed to remove unreadable favorites payload", "error", removeErr)
			}
		} else {
			byID, allIDs = repair(stored.ByID, stored.AllIDs)
			if len(allIDs) != len(stored.AllIDs) || len(byID) != len(stored.ByID) {
				slog.Warn("Repaired inconsistent favorites payload",
					"stored", len(stored.AllIDs), "kept", len(allIDs))
			}
		}
	}

	s.mu.Lock()
	s.state = apply(s.state, hydrateCmd{byID: byID, allIDs: allIDs})
	s.mu.Unlock()
	return nil
}

// Toggle adds the book to the favorites if absent and removes it if present.
// It returns whether the book is a favorite after the call. Books without an
// id are rejected without touching state.
func (s *Store) Toggle(book books.Book) (bool, error) {
	if book.ID == "" {
		return false, fmt.Errorf("cannot favorite a book without an id")
	}

	s.mu.Lock()
	s.state = apply(s.state, toggleCmd{book: book})
	_, nowFavorite := s.state.ByID[book.ID]
	s.schedulePersistLocked()
	s.mu.Unlock()

	return nowFavorite, nil
}

// IsFavorite reports whether the given id is currently favorited.
func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.ByID[id]
	return ok
}

// Get returns the favorited book for id, if present.
func (s *Store) Get(id string) (books.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.state.ByID[id]
	return book, ok
}

// List returns the favorites in insertion order.
func (s *Store) List() []books.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]books.Book, 0, len(s.state.AllIDs))
	for _, id := range s.state.AllIDs {
		list = append(list, s.state.ByID[id])
	}
	return list
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.ByID = cloneByID(s.state.ByID)
	snap.AllIDs = append([]string(nil), s.state.AllIDs...)
	return snap
}

// Clear empties the table and removes the persisted payload.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.state = apply(s.state, hydrateCmd{byID: map[string]books.Book{}, allIDs: []string{}})
	s.mu.Unlock()

	if err := s.kv.RemoveItem(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	return nil
}

// Wait blocks until all in-flight persistence writes have drained. Call it
// before process exit so the last toggle reaches disk.
func (s *Store) Wait() {
	s.persists.Wait()
}

// schedulePersistLocked snapshots the table under the held lock and writes it
// out on a goroutine. Persistence only starts once hydration has completed,
// so a slow load can never be clobbered by an early empty write. Writes are
// serialized and stale snapshots dropped, so two quick toggles can never land
// on disk in the wrong order. A failed write surfaces in State.Err but never
// rolls back memory.
func (s *Store) schedulePersistLocked() {
	if !s.state.IsLoaded {
		return
	}

	s.persistGen++
	gen := s.persistGen
	payload := persistedState{
		ByID:    cloneByID(s.state.ByID),
		AllIDs:  append([]string(nil), s.state.AllIDs...),
		SavedAt: s.now().UTC(),
		Version: storageVersion,
	}

	s.persists.Add(1)
	go func() {
		defer s.persists.Done()

		s.persistMu.Lock()
		defer s.persistMu.Unlock()

		s.mu.Lock()
		stale := gen != s.persistGen
		s.mu.Unlock()
		if stale {
			// A newer snapshot is already queued behind this write.
			return
		}

		raw, err := json.Marshal(payload)
		if err == nil {
			err = s.kv.SetItem(context.Background(), s.key, raw)
		}
		if err != nil {
			slog.Warn("Failed to persist favorites", "error", err)
			s.mu.Lock()
			s.state = apply(s.state, setErrorCmd{msg: msgSaveFailed})
			s.mu.Unlock()
		}
	}()
}
