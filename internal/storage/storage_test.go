package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/benyxel/shopsync/internal/errors"
	"github.com/benyxel/shopsync/internal/events"
)

func TestFileKVRoundTrip(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	_, found, err := kv.Get(KeyCart)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Put(KeyCart, []byte(`{"42":{"M":2}}`)))

	data, found, err := kv.Get(KeyCart)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"42":{"M":2}}`, string(data))

	require.NoError(t, kv.Delete(KeyCart))
	_, found, err = kv.Get(KeyCart)
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent entry is not an error.
	require.NoError(t, kv.Delete(KeyCart))
}

func TestFileKVWritesAreAtomic(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Put(KeyFavorites, []byte(`["1","2"]`)))

	// No temp file left behind after a successful write.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName(KeyFavorites), entries[0].Name())
	assert.Equal(t, filepath.Join(dir, "favorites.json"), kv.Path(KeyFavorites))
}

func TestPersisterSavePublishesLocalChange(t *testing.T) {
	kv := NewMemKV()
	bus := events.NewBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	p := NewPersister(kv, bus, nil)
	require.NoError(t, p.Save(KeyCart, map[string]map[string]int{"42": {"M": 2}}))

	data, found, err := kv.Get(KeyCart)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"42":{"M":2}}`, string(data))

	change := <-ch
	assert.Equal(t, KeyCart, change.Key)
	assert.Equal(t, events.OriginLocal, change.Origin)
}

func TestPersisterQuotaClearAndRetry(t *testing.T) {
	kv := NewMemKV()
	kv.FailNextPuts(1, ErrQuotaExceeded)

	p := NewPersister(kv, nil, nil)
	require.NoError(t, p.Save(KeyCart, map[string]int{"a": 1}))

	// First put failed on quota, entry was cleared, retry succeeded.
	assert.Equal(t, 2, kv.Puts())
	assert.Equal(t, 1, kv.Deletes())

	_, found, err := kv.Get(KeyCart)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestPersisterRetryAlsoFails(t *testing.T) {
	kv := NewMemKV()
	kv.FailNextPuts(2, ErrQuotaExceeded)
	bus := events.NewBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	p := NewPersister(kv, bus, nil)
	err := p.Save(KeyCart, map[string]int{"a": 1})
	require.Error(t, err)
	assert.True(t, serrors.IsStorageWriteFailure(err))

	// No notification on a write that did not stick.
	select {
	case <-ch:
		t.Fatal("unexpected change notification after failed write")
	default:
	}
}

func TestPersisterNonQuotaFailureIsNotRetried(t *testing.T) {
	kv := NewMemKV()
	kv.FailNextPuts(1, errors.New("io error"))

	p := NewPersister(kv, nil, nil)
	err := p.Save(KeyCart, map[string]int{"a": 1})
	require.Error(t, err)
	assert.Equal(t, 1, kv.Puts())
	assert.Zero(t, kv.Deletes())
}

func TestPersisterRemovePublishes(t *testing.T) {
	kv := NewMemKV()
	bus := events.NewBus()
	defer bus.Close()

	ch, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	require.NoError(t, kv.Put(KeyCart, []byte(`{}`)))

	p := NewPersister(kv, bus, nil)
	require.NoError(t, p.Remove(KeyCart))

	_, found, err := kv.Get(KeyCart)
	require.NoError(t, err)
	assert.False(t, found)

	change := <-ch
	assert.Equal(t, KeyCart, change.Key)
}
