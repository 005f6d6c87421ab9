// Package favorites holds the set of favorited product ids for this
// context, with the same persistence and reconciliation wiring as the cart
// but without quantity semantics.
package favorites

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/benyxel/shopsync/internal/cart"
	serrors "github.com/benyxel/shopsync/internal/errors"
	"github.com/benyxel/shopsync/internal/logfields"
	"github.com/benyxel/shopsync/internal/metrics"
	"github.com/benyxel/shopsync/internal/storage"
)

// Store owns the in-memory favorites set. Uniqueness is enforced by the set
// itself; the persisted form is a JSON array of product ids.
type Store struct {
	mu        sync.RWMutex
	ids       map[string]struct{}
	persister cart.Persister
	rec       metrics.Recorder
	sink      cart.MutationSink
}

// Option configures optional store collaborators.
type Option func(*Store)

// WithRecorder injects a metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(s *Store) {
		if rec != nil {
			s.rec = rec
		}
	}
}

// WithMutationSink injects a mutation journal.
func WithMutationSink(sink cart.MutationSink) Option {
	return func(s *Store) { s.sink = sink }
}

// NewStore creates an empty favorites store.
func NewStore(persister cart.Persister, opts ...Option) *Store {
	s := &Store{
		ids:       map[string]struct{}{},
		persister: persister,
		rec:       metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the durable entry key this store reconciles against.
func (s *Store) Key() string { return storage.KeyFavorites }

// Rehydrate loads the durable entry at startup; missing or malformed
// entries yield an empty set.
func (s *Store) Rehydrate(kv storage.KV) {
	data, found, err := kv.Get(s.Key())
	if err != nil {
		slog.Warn("Favorites rehydration read failed, starting empty",
			logfields.EntryKey(s.Key()), logfields.Error(err))
		return
	}
	s.ApplyDurable(data, found)
}

// ApplyDurable decodes a freshly read entry and replaces the in-memory set
// only when it differs. Reports whether the set changed.
func (s *Store) ApplyDurable(data []byte, found bool) bool {
	next := map[string]struct{}{}
	if found {
		decoded, err := Decode(data)
		if err != nil {
			slog.Warn("Discarding malformed favorites entry",
				logfields.EntryKey(s.Key()), logfields.Error(err))
		} else {
			next = decoded
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if setsEqual(s.ids, next) {
		return false
	}
	s.ids = next
	return true
}

// Toggle adds the product if absent and removes it if present. It returns
// whether the product is a favorite after the call.
func (s *Store) Toggle(productID string) bool {
	s.mu.Lock()
	_, present := s.ids[productID]
	if present {
		delete(s.ids, productID)
	} else {
		s.ids[productID] = struct{}{}
	}
	result := s.persistLocked()
	s.mu.Unlock()

	if s.sink != nil {
		op := "favorite"
		if present {
			op = "unfavorite"
		}
		s.sink.Record("favorites", op, struct {
			ProductID string `json:"product_id"`
		}{productID})
	}
	s.rec.IncMutation("favorites", "toggle", result)
	return !present
}

// IsFavorite is a pure membership test.
func (s *Store) IsFavorite(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[productID]
	return ok
}

// Count returns the favorites cardinality.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns the favorited product ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIDs(s.ids)
}

// Clear empties the set and removes the durable entry entirely.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.ids = map[string]struct{}{}
	err := s.persister.Remove(s.Key())
	s.mu.Unlock()

	result := metrics.MutationApplied
	if err != nil {
		slog.Warn("Favorites clear could not remove durable entry",
			logfields.EntryKey(s.Key()), logfields.Error(err))
		result = metrics.MutationPersistFailed
	}
	s.rec.IncMutation("favorites", "clear", result)
	return nil
}

// persistLocked writes the sorted id list so identical sets always produce
// byte-identical entries.
func (s *Store) persistLocked() metrics.MutationResult {
	if err := s.persister.Save(s.Key(), sortedIDs(s.ids)); err != nil {
		slog.Warn("Favorites persist failed, in-memory state remains authoritative",
			logfields.EntryKey(s.Key()), logfields.Error(err))
		return metrics.MutationPersistFailed
	}
	return metrics.MutationApplied
}

// Decode parses a persisted favorites entry. The entry must be a JSON
// array; ids arrive as strings or numbers and are normalized to strings.
// Anything else yields an empty set and a MalformedPersistedState error.
func Decode(data []byte) (map[string]struct{}, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[string]struct{}{}, serrors.MalformedPersistedState(storage.KeyFavorites, err)
	}

	ids := make(map[string]struct{}, len(raw))
	for _, v := range raw {
		switch id := v.(type) {
		case string:
			if id != "" {
				ids[id] = struct{}{}
			}
		case float64:
			ids[trimFloatID(id)] = struct{}{}
		}
	}
	return ids, nil
}

func trimFloatID(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func sortedIDs(ids map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
