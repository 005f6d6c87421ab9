package favorites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/benyxel/shopsync/internal/errors"
	"github.com/benyxel/shopsync/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemKV) {
	t.Helper()
	kv := storage.NewMemKV()
	return NewStore(storage.NewPersister(kv, nil, nil)), kv
}

func TestToggleIsIdempotentPair(t *testing.T) {
	s, _ := newTestStore(t)

	assert.True(t, s.Toggle("5"))
	assert.True(t, s.IsFavorite("5"))

	assert.False(t, s.Toggle("5"))
	assert.False(t, s.IsFavorite("5"))
	assert.Zero(t, s.Count())
}

func TestUniquenessEnforced(t *testing.T) {
	s, _ := newTestStore(t)

	s.Toggle("5")
	s.Toggle("9")
	s.Toggle("5")
	s.Toggle("5")

	assert.Equal(t, []string{"5", "9"}, s.IDs())
}

func TestPersistedFormIsSortedArray(t *testing.T) {
	s, kv := newTestStore(t)
	s.Toggle("9")
	s.Toggle("5")

	data, found, err := kv.Get(storage.KeyFavorites)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `["5","9"]`, string(data))
}

func TestDecodeMalformed(t *testing.T) {
	ids, err := Decode([]byte(`{"not": "an array"}`))
	require.Error(t, err)
	assert.True(t, serrors.IsMalformedPersistedState(err))
	assert.Empty(t, ids)

	ids, err = Decode([]byte(`not json`))
	require.Error(t, err)
	assert.Empty(t, ids)
}

func TestDecodeNormalizesNumericIDs(t *testing.T) {
	ids, err := Decode([]byte(`["5", 7, "", true]`))
	require.NoError(t, err)

	assert.Len(t, ids, 2)
	_, ok := ids["5"]
	assert.True(t, ok)
	_, ok = ids["7"]
	assert.True(t, ok)
}

func TestRehydrate(t *testing.T) {
	kv := storage.NewMemKV()
	require.NoError(t, kv.Put(storage.KeyFavorites, []byte(`["5","9"]`)))

	s := NewStore(storage.NewPersister(kv, nil, nil))
	s.Rehydrate(kv)

	assert.Equal(t, 2, s.Count())
	assert.True(t, s.IsFavorite("9"))
}

func TestApplyDurableGate(t *testing.T) {
	s, _ := newTestStore(t)
	s.Toggle("5")

	assert.False(t, s.ApplyDurable([]byte(`["5"]`), true))
	assert.True(t, s.ApplyDurable([]byte(`["5","6"]`), true))
	assert.True(t, s.IsFavorite("6"))
	assert.True(t, s.ApplyDurable(nil, false))
	assert.Zero(t, s.Count())
}

func TestClearRemovesEntry(t *testing.T) {
	s, kv := newTestStore(t)
	s.Toggle("5")

	require.NoError(t, s.Clear())

	_, found, err := kv.Get(storage.KeyFavorites)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, s.Count())
}

func TestMutationSurvivesPersistFailure(t *testing.T) {
	kv := storage.NewMemKV()
	s := NewStore(storage.NewPersister(kv, nil, nil))

	kv.FailNextPuts(1, assert.AnError)
	assert.True(t, s.Toggle("5"))
	assert.True(t, s.IsFavorite("5"))
}
