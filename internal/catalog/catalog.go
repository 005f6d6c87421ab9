// Package catalog holds the most recently fetched product records, keyed for
// lookup by product id. The snapshot is read-only reference data for the cart
// and favorites stores; it is refreshed at startup and on demand.
package catalog

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/benyxel/shopsync/internal/logfields"
)

// Product is the canonical, normalized product record.
type Product struct {
	ID    string
	Name  string
	Price float64
	// Inventory is zero when the catalog did not report one; InventoryKnown
	// distinguishes "reported zero" from "not reported".
	Inventory      int
	InventoryKnown bool
	Images         []string
	// Image is the single-image convenience field (first of Images).
	Image string
}

// Snapshot is an immutable view of the catalog at fetch time.
type Snapshot struct {
	products []Product
	byID     map[string]Product
}

// NewSnapshot builds a snapshot from normalized products. Later duplicates of
// an id win, matching overwrite-on-refetch semantics.
func NewSnapshot(products []Product) *Snapshot {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Snapshot{products: products, byID: byID}
}

// EmptySnapshot returns a snapshot with no products. Callers can always
// iterate a snapshot safely; there is no nil snapshot in normal operation.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil)
}

// Products returns the product list. Callers must not modify it.
func (s *Snapshot) Products() []Product { return s.products }

// Get looks up a product by id.
func (s *Snapshot) Get(id string) (Product, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Len returns the number of products in the snapshot.
func (s *Snapshot) Len() int { return len(s.products) }

// Lookup is an alias for Get so a bare snapshot satisfies the stores'
// catalog dependency without a holder.
func (s *Snapshot) Lookup(id string) (Product, bool) { return s.Get(id) }

// Holder provides an atomically swappable current snapshot so a refetch can
// replace the catalog without coordinating with readers.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder returns a holder primed with an empty snapshot.
func NewHolder() *Holder {
	h := &Holder{}
	h.current.Store(EmptySnapshot())
	return h
}

// Set replaces the current snapshot.
func (h *Holder) Set(s *Snapshot) {
	if s == nil {
		s = EmptySnapshot()
	}
	h.current.Store(s)
}

// Current returns the current snapshot.
func (h *Holder) Current() *Snapshot { return h.current.Load() }

// Lookup resolves a product id against the current snapshot.
func (h *Holder) Lookup(id string) (Product, bool) {
	return h.Current().Get(id)
}

// rawProduct is the wire shape of a catalog record before normalization.
// id and price arrive as either JSON numbers or strings depending on the
// upstream API version, so both decode into any and are coerced.
type rawProduct struct {
	ID        any      `json:"id"`
	Name      string   `json:"name"`
	Price     any      `json:"price"`
	Inventory any      `json:"inventory"`
	Images    []string `json:"images"`
}

// normalize maps a raw record into the canonical Product shape.
func normalize(raw rawProduct) (Product, bool) {
	id, ok := coerceID(raw.ID)
	if !ok {
		slog.Warn("Skipping catalog record without usable id")
		return Product{}, false
	}

	p := Product{
		ID:     id,
		Name:   raw.Name,
		Images: raw.Images,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if len(p.Images) > 0 {
		p.Image = p.Images[0]
	}

	p.Price = coercePrice(raw.Price, id)

	if inv, known := coerceInventory(raw.Inventory); known {
		p.Inventory = inv
		p.InventoryKnown = true
	}

	return p, true
}

// coerceID normalizes a product identifier to a string key regardless of the
// JSON type it arrived in, so lookups stay consistent.
func coerceID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		id = strings.TrimSpace(id)
		return id, id != ""
	case json.Number:
		return id.String(), true
	default:
		return "", false
	}
}

func coercePrice(v any, productID string) float64 {
	var price float64
	switch p := v.(type) {
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			slog.Warn("Unparsable catalog price, treating as zero", logfields.ProductID(productID))
			return 0
		}
		price = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			slog.Warn("Unparsable catalog price, treating as zero", logfields.ProductID(productID))
			return 0
		}
		price = f
	default:
		return 0
	}
	if price < 0 {
		slog.Warn("Negative catalog price, clamping to zero", logfields.ProductID(productID))
		return 0
	}
	return price
}

func coerceInventory(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil || i < 0 {
		return 0, true // malformed or negative inventory reads as depleted
	}
	return int(i), true
}
