package storage

import (
	"encoding/json"
	"errors"
	"time"

	serrors "github.com/benyxel/shopsync/internal/errors"
	"github.com/benyxel/shopsync/internal/events"
	"github.com/benyxel/shopsync/internal/metrics"
)

// Persister serializes store state to a durable entry after every mutation
// and raises the local change notification. Durability is best-effort: a
// failed write is reported but never rolls back the in-memory mutation.
type Persister struct {
	kv  KV
	bus *events.Bus
	rec metrics.Recorder
}

// NewPersister wires the persister. bus may be nil when no local consumers
// exist (some tests); rec may be nil for no metrics.
func NewPersister(kv KV, bus *events.Bus, rec metrics.Recorder) *Persister {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Persister{kv: kv, bus: bus, rec: rec}
}

// Save writes the JSON form of value under key. When the write fails on
// storage capacity, the previous entry is deleted and the write retried
// once. The local change notification is raised only after a write that
// stuck; on final failure the caller's in-memory state stays authoritative
// and no notification is sent, so a reconcile cannot revert it.
func (p *Persister) Save(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return serrors.StorageWriteFailure(key, err)
	}

	start := time.Now()
	err = p.kv.Put(key, data)
	if errors.Is(err, ErrQuotaExceeded) {
		_ = p.kv.Delete(key)
		err = p.kv.Put(key, data)
	}
	p.rec.ObservePersistDuration(key, time.Since(start), err == nil)

	if err != nil {
		return serrors.StorageWriteFailure(key, err)
	}
	p.notify(key)
	return nil
}

// Remove deletes the entry entirely. Used only by the explicit clear
// operations, which are defined to delete rather than overwrite.
func (p *Persister) Remove(key string) error {
	if err := p.kv.Delete(key); err != nil {
		return serrors.StorageWriteFailure(key, err)
	}
	p.notify(key)
	return nil
}

func (p *Persister) notify(key string) {
	if p.bus != nil {
		p.bus.Publish(events.Change{Key: key, Origin: events.OriginLocal})
	}
}
