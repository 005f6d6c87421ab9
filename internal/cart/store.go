package cart

import (
	"log/slog"
	"sync"

	"github.com/benyxel/shopsync/internal/catalog"
	serrors "github.com/benyxel/shopsync/internal/errors"
	"github.com/benyxel/shopsync/internal/logfields"
	"github.com/benyxel/shopsync/internal/metrics"
	"github.com/benyxel/shopsync/internal/storage"
)

// Catalog resolves product ids against the current catalog snapshot.
type Catalog interface {
	Lookup(id string) (catalog.Product, bool)
}

// Persister writes store state to the durable entry and raises the local
// change notification.
type Persister interface {
	Save(key string, value any) error
	Remove(key string) error
}

// MutationSink receives applied mutations for diagnostics (the journal).
type MutationSink interface {
	Record(store, op string, payload any)
}

// mutation is the journal payload for a single applied operation.
type mutation struct {
	ProductID string `json:"product_id,omitempty"`
	SizeKey   string `json:"size_key,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

// Store is the single source of truth for the cart in this context. All
// mutations go through it; the syncer replaces its state wholesale when the
// shared storage diverges.
type Store struct {
	mu        sync.RWMutex
	state     State
	catalog   Catalog
	persister Persister
	rec       metrics.Recorder
	sink      MutationSink
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
func WithMutationSink(sink MutationSink) Option {
	return func(s *Store) { s.sink = sink }
}

// NewStore creates an empty cart store. Call Rehydrate to load durable
// state from a previous session.
func NewStore(cat Catalog, persister Persister, opts ...Option) *Store {
	s := &Store{
		state:     State{},
		catalog:   cat,
		persister: persister,
		rec:       metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the durable entry key this store reconciles against.
func (s *Store) Key() string { return storage.KeyCart }

// Rehydrate loads the durable entry into memory at startup. A missing or
// malformed entry yields an empty cart; nothing is persisted or notified.
func (s *Store) Rehydrate(kv storage.KV) {
	data, found, err := kv.Get(s.Key())
	if err != nil {
		slog.Warn("Cart rehydration read failed, starting empty",
			logfields.EntryKey(s.Key()), logfields.Error(err))
		return
	}
	s.ApplyDurable(data, found)
}

// ApplyDurable is the reconcile entry point: it decodes the freshly read
// entry and replaces the in-memory state only when it structurally differs,
// so unchanged content never triggers downstream recomputation. It reports
// whether the state changed.
func (s *Store) ApplyDurable(data []byte, found bool) bool {
	next := State{}
	if found {
		decoded, err := DecodeState(data)
		if err != nil {
			slog.Warn("Discarding malformed cart entry",
				logfields.EntryKey(s.Key()), logfields.Error(err))
		} else {
			next = decoded
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Equal(next) {
		return false
	}
	s.state = next
	s.rec.SetCartLines(next.Lines())
	return true
}

// Add increments the quantity for (productID, sizeKey) by one, creating
// intermediate levels as needed. The product must exist in the catalog and,
// when its inventory is known, have stock. Rejections leave the cart
// unchanged.
func (s *Store) Add(productID, sizeKey string) error {
	if sizeKey == "" {
		sizeKey = DefaultSize
	}

	p, ok := s.catalog.Lookup(productID)
	if !ok {
		s.rec.IncMutation("cart", "add", metrics.MutationRejected)
		return serrors.ProductNotFound(productID)
	}
	if p.InventoryKnown && p.Inventory <= 0 {
		s.rec.IncMutation("cart", "add", metrics.MutationRejected)
		return serrors.OutOfStock(productID)
	}

	s.mu.Lock()
	if s.state == nil {
		s.state = State{}
	}
	if s.state[productID] == nil {
		s.state[productID] = map[string]int{}
	}
	s.state[productID][sizeKey]++
	qty := s.state[productID][sizeKey]
	result := s.persistLocked("add")
	s.mu.Unlock()

	s.record("add", mutation{ProductID: productID, SizeKey: sizeKey, Quantity: qty})
	s.rec.IncMutation("cart", "add", result)
	return nil
}

// SetQuantity sets the quantity for (productID, sizeKey) directly. Negative
// input clamps to zero; zero removes the line and, when it was the last
// size, the product. Manual edits are deliberately not re-checked against
// inventory.
func (s *Store) SetQuantity(productID, sizeKey string, quantity int) error {
	if sizeKey == "" {
		sizeKey = DefaultSize
	}
	if quantity < 0 {
		quantity = 0
	}

	s.mu.Lock()
	if quantity == 0 {
		if sizes, ok := s.state[productID]; ok {
			delete(sizes, sizeKey)
			if len(sizes) == 0 {
				delete(s.state, productID)
			}
		}
	} else {
		if s.state == nil {
			s.state = State{}
		}
		if s.state[productID] == nil {
			s.state[productID] = map[string]int{}
		}
		s.state[productID][sizeKey] = quantity
	}
	result := s.persistLocked("set_quantity")
	s.mu.Unlock()

	s.record("set_quantity", mutation{ProductID: productID, SizeKey: sizeKey, Quantity: quantity})
	s.rec.IncMutation("cart", "set_quantity", result)
	return nil
}

// Clear resets the cart to empty and removes the durable entry entirely.
// This is the one operation that deletes rather than overwrites.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.state = State{}
	s.rec.SetCartLines(0)
	err := s.persister.Remove(s.Key())
	s.mu.Unlock()

	result := metrics.MutationApplied
	if err != nil {
		slog.Warn("Cart clear could not remove durable entry",
			logfields.EntryKey(s.Key()), logfields.Error(err))
		result = metrics.MutationPersistFailed
	}
	s.record("clear", mutation{})
	s.rec.IncMutation("cart", "clear", result)
	return nil
}

// Count sums all quantities across products and sizes. Malformed or
// non-positive entries count as zero rather than propagating an error.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, sizes := range s.state {
		for _, qty := range sizes {
			if qty > 0 {
				total += qty
			}
		}
	}
	return total
}

// Amount computes the monetary total by joining the cart against the
// catalog snapshot. Lines whose product cannot be resolved are skipped with
// a diagnostic; Amount never fails and never double counts.
func (s *Store) Amount() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	skipped := 0
	for id, sizes := range s.state {
		p, ok := s.catalog.Lookup(id)
		if !ok {
			skipped += len(sizes)
			slog.Debug("Cart line excluded from amount, product not in catalog",
				logfields.ProductID(id))
			continue
		}
		for _, qty := range sizes {
			if qty > 0 {
				total += float64(qty) * p.Price
			}
		}
	}
	if skipped > 0 {
		s.rec.IncSkippedAmountLines(skipped)
	}
	return total
}

// Snapshot returns a deep copy of the current state for read-only
// consumers such as checkout.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// persistLocked writes the current state through the persister. Called with
// the mutex held. A failed write keeps the in-memory mutation authoritative.
func (s *Store) persistLocked(op string) metrics.MutationResult {
	s.rec.SetCartLines(s.state.Lines())
	if err := s.persister.Save(s.Key(), s.state); err != nil {
		slog.Warn("Cart persist failed, in-memory state remains authoritative",
			logfields.EntryKey(s.Key()),
			slog.String("op", op),
			logfields.Error(err))
		return metrics.MutationPersistFailed
	}
	return metrics.MutationApplied
}

func (s *Store) record(op string, payload mutation) {
	if s.sink != nil {
		s.sink.Record("cart", op, payload)
	}
}
