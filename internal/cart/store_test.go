package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benyxel/shopsync/internal/catalog"
	serrors "github.com/benyxel/shopsync/internal/errors"
	"github.com/benyxel/shopsync/internal/storage"
)

func testCatalog() *catalog.Snapshot {
	return catalog.NewSnapshot([]catalog.Product{
		{ID: "42", Name: "Tee", Price: 19.99, Inventory: 5, InventoryKnown: true},
		{ID: "7", Name: "Cap", Price: 9.50},
		{ID: "13", Name: "Sold Out", Price: 4.00, Inventory: 0, InventoryKnown: true},
	})
}

func newTestStore(t *testing.T) (*Store, *storage.MemKV) {
	t.Helper()
	kv := storage.NewMemKV()
	s := NewStore(testCatalog(), storage.NewPersister(kv, nil, nil))
	return s, kv
}

func TestAddTwiceAccumulates(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Add("42", "M"))
	require.NoError(t, s.Add("42", "M"))

	assert.True(t, s.Snapshot().Equal(State{"42": {"M": 2}}))
	assert.Equal(t, 2, s.Count())
}

func TestAddDefaultsSizeKey(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Add("7", ""))
	assert.True(t, s.Snapshot().Equal(State{"7": {DefaultSize: 1}}))
}

func TestAddUnknownProductRejected(t *testing.T) {
	s, kv := newTestStore(t)

	err := s.Add("99", DefaultSize)
	require.Error(t, err)
	assert.True(t, serrors.IsProductNotFound(err))
	assert.Empty(t, s.Snapshot())
	assert.Zero(t, kv.Puts())
}

func TestAddOutOfStockRejected(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Add("13", DefaultSize)
	require.Error(t, err)
	assert.True(t, serrors.IsOutOfStock(err))
	assert.Empty(t, s.Snapshot())
}

func TestAddUnknownInventoryIsSellable(t *testing.T) {
	s, _ := newTestStore(t)

	// Product "7" reports no inventory at all; that is not out of stock.
	require.NoError(t, s.Add("7", "M"))
	assert.Equal(t, 1, s.Count())
}

func TestSetQuantityZeroRemovesLineAndParent(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Add("42", "M"))
	require.NoError(t, s.Add("42", "M"))

	require.NoError(t, s.SetQuantity("42", "M", 0))
	assert.Empty(t, s.Snapshot())
}

func TestSetQuantityKeepsSiblingSizes(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Add("42", "M"))
	require.NoError(t, s.Add("42", "L"))

	require.NoError(t, s.SetQuantity("42", "M", 0))
	assert.True(t, s.Snapshot().Equal(State{"42": {"L": 1}}))
}

func TestSetQuantityClampsNegative(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Add("42", "M"))

	require.NoError(t, s.SetQuantity("42", "M", -3))
	assert.Empty(t, s.Snapshot())
}

func TestSetQuantityNoInventoryRecheck(t *testing.T) {
	s, _ := newTestStore(t)

	// Manual edits set directly, even for products the catalog reports as
	// depleted or absent. Deliberate policy.
	require.NoError(t, s.SetQuantity("13", DefaultSize, 4))
	assert.Equal(t, 4, s.Count())
}

func TestClearRemovesDurableEntry(t *testing.T) {
	s, kv := newTestStore(t)
	require.NoError(t, s.Add("42", "M"))

	_, found, err := kv.Get(storage.KeyCart)
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Snapshot())

	_, found, err = kv.Get(storage.KeyCart)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAmountJoinsCatalog(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Add("42", "M"))
	require.NoError(t, s.Add("42", "M"))

	assert.InDelta(t, 39.98, s.Amount(), 1e-9)
}

func TestAmountSkipsUnresolvedLines(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Add("42", "M"))
	// Force a line for a product the catalog no longer carries.
	require.NoError(t, s.SetQuantity("ghost", DefaultSize, 3))

	assert.InDelta(t, 19.99, s.Amount(), 1e-9)
}

func TestMutationSurvivesPersistFailure(t *testing.T) {
	kv := storage.NewMemKV()
	s := NewStore(testCatalog(), storage.NewPersister(kv, nil, nil))

	kv.FailNextPuts(1, assert.AnError)
	require.NoError(t, s.Add("42", "M"))

	// Durability is best-effort; the in-memory model is authoritative.
	assert.Equal(t, 1, s.Count())
}

func TestRehydrateFromDurableEntry(t *testing.T) {
	kv := storage.NewMemKV()
	require.NoError(t, kv.Put(storage.KeyCart, []byte(`{"42": {"M": 2}}`)))

	s := NewStore(testCatalog(), storage.NewPersister(kv, nil, nil))
	s.Rehydrate(kv)

	assert.Equal(t, 2, s.Count())
}

func TestRehydrateMalformedEntryStartsEmpty(t *testing.T) {
	kv := storage.NewMemKV()
	require.NoError(t, kv.Put(storage.KeyCart, []byte(`not json`)))

	s := NewStore(testCatalog(), storage.NewPersister(kv, nil, nil))
	s.Rehydrate(kv)

	assert.Empty(t, s.Snapshot())
	assert.Zero(t, s.Count())
}

func TestApplyDurableGatesOnDeepEquality(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Add("42", "M"))

	// Same content: no change reported, no redundant downstream work.
	assert.False(t, s.ApplyDurable([]byte(`{"42": {"M": 1}}`), true))
	// Different content replaces the state.
	assert.True(t, s.ApplyDurable([]byte(`{"42": {"M": 3}}`), true))
	assert.Equal(t, 3, s.Count())
	// Entry removed in another context empties the cart.
	assert.True(t, s.ApplyDurable(nil, false))
	assert.Empty(t, s.Snapshot())
}

func TestPersistedShapeIsObjectNotArray(t *testing.T) {
	s, kv := newTestStore(t)
	require.NoError(t, s.Add("42", "M"))

	data, found, err := kv.Get(storage.KeyCart)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, byte('{'), data[0])

	decoded, err := DecodeState(data)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(s.Snapshot()))
}
