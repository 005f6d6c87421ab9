package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCoercesNumericID(t *testing.T) {
	p, ok := normalize(rawProduct{ID: json.Number("42"), Name: "Tee", Price: json.Number("19.99")})
	require.True(t, ok)
	assert.Equal(t, "42", p.ID)
	assert.Equal(t, 19.99, p.Price)
	assert.False(t, p.InventoryKnown)
	assert.Empty(t, p.Images)
	assert.NotNil(t, p.Images)
}

func TestNormalizeStringPrice(t *testing.T) {
	p, ok := normalize(rawProduct{ID: "7", Price: "12.50"})
	require.True(t, ok)
	assert.Equal(t, 12.5, p.Price)
}

func TestNormalizeRejectsMissingID(t *testing.T) {
	_, ok := normalize(rawProduct{Name: "nameless"})
	assert.False(t, ok)

	_, ok = normalize(rawProduct{ID: "   "})
	assert.False(t, ok)
}

func TestNormalizeGarbagePriceIsZero(t *testing.T) {
	p, ok := normalize(rawProduct{ID: "9", Price: "free!"})
	require.True(t, ok)
	assert.Zero(t, p.Price)

	p, ok = normalize(rawProduct{ID: "10", Price: json.Number("-5")})
	require.True(t, ok)
	assert.Zero(t, p.Price)
}

func TestNormalizeInventory(t *testing.T) {
	p, ok := normalize(rawProduct{ID: "1", Inventory: json.Number("3")})
	require.True(t, ok)
	assert.True(t, p.InventoryKnown)
	assert.Equal(t, 3, p.Inventory)

	p, ok = normalize(rawProduct{ID: "2", Inventory: json.Number("-1")})
	require.True(t, ok)
	assert.True(t, p.InventoryKnown)
	assert.Zero(t, p.Inventory)
}

func TestNormalizeImageConvenienceField(t *testing.T) {
	p, ok := normalize(rawProduct{ID: "3", Images: []string{"a.jpg", "b.jpg"}})
	require.True(t, ok)
	assert.Equal(t, "a.jpg", p.Image)
}

func TestSnapshotLookup(t *testing.T) {
	s := NewSnapshot([]Product{{ID: "42", Name: "Tee", Price: 19.99}})

	p, ok := s.Get("42")
	require.True(t, ok)
	assert.Equal(t, "Tee", p.Name)

	_, ok = s.Get("99")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestHolderStartsEmptyAndSwaps(t *testing.T) {
	h := NewHolder()
	require.NotNil(t, h.Current())
	assert.Zero(t, h.Current().Len())

	h.Set(NewSnapshot([]Product{{ID: "1"}}))
	_, ok := h.Lookup("1")
	assert.True(t, ok)

	// A nil set falls back to empty rather than a nil snapshot.
	h.Set(nil)
	assert.Zero(t, h.Current().Len())
}
