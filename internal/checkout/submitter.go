// Package checkout builds a read-only order snapshot from the cart and
// submits it to the external order API. The cart core is unaffected by the
// result beyond the explicit clear on success.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/benyxel/shopsync/internal/cart"
	serrors "github.com/benyxel/shopsync/internal/errors"
	"github.com/benyxel/shopsync/internal/logfields"
)

// Line is one order line joined against the catalog snapshot.
type Line struct {
	ProductID string  `json:"product_id"`
	SizeKey   string  `json:"size_key"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// Order is the snapshot submitted to the order API.
type Order struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	Total     float64   `json:"total"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Cart is the read side of the cart store the submitter consumes.
type Cart interface {
	Snapshot() cart.State
	Clear() error
}

// Submitter posts order snapshots to the checkout API.
type Submitter struct {
	url      string
	currency string
	cart     Cart
	catalog  cart.Catalog
	http     *http.Client
}

// NewSubmitter wires a submitter against the external order API.
func NewSubmitter(url, currency string, c Cart, cat cart.Catalog, timeout time.Duration) *Submitter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Submitter{
		url:      url,
		currency: currency,
		cart:     c,
		catalog:  cat,
		http:     &http.Client{Timeout: timeout},
	}
}

// BuildOrder joins the current cart snapshot against the catalog. Lines for
// products absent from the catalog are skipped, mirroring the amount
// computation.
func (s *Submitter) BuildOrder() Order {
	state := s.cart.Snapshot()

	order := Order{
		ID:        uuid.NewString(),
		Currency:  s.currency,
		CreatedAt: time.Now(),
	}
	for productID, sizes := range state {
		p, ok := s.catalog.Lookup(productID)
		if !ok {
			slog.Warn("Order line skipped, product not in catalog",
				logfields.ProductID(productID))
			continue
		}
		for sizeKey, qty := range sizes {
			if qty <= 0 {
				continue
			}
			line := Line{
				ProductID: productID,
				SizeKey:   sizeKey,
				Name:      p.Name,
				Quantity:  qty,
				UnitPrice: p.Price,
				LineTotal: float64(qty) * p.Price,
			}
			order.Lines = append(order.Lines, line)
			order.Total += line.LineTotal
		}
	}

	sort.Slice(order.Lines, func(i, j int) bool {
		if order.Lines[i].ProductID != order.Lines[j].ProductID {
			return order.Lines[i].ProductID < order.Lines[j].ProductID
		}
		return order.Lines[i].SizeKey < order.Lines[j].SizeKey
	})
	return order
}

// Submit posts the order snapshot and clears the cart on acceptance.
func (s *Submitter) Submit(ctx context.Context) (*Order, error) {
	order := s.BuildOrder()
	if len(order.Lines) == 0 {
		return nil, fmt.Errorf("nothing to submit: cart is empty")
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serrors.CheckoutRejected(resp.StatusCode)
	}

	slog.Info("Order accepted", logfields.OrderID(order.ID),
		slog.Int("lines", len(order.Lines)), slog.Float64("total", order.Total))

	if err := s.cart.Clear(); err != nil {
		slog.Warn("Cart clear after checkout failed", logfields.Error(err))
	}
	return &order, nil
}
