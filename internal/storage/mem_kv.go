package storage

import "sync"

// MemKV is an in-memory KV used in tests. It doubles as the shared storage
// in convergence tests, where two store instances read and write the same
// MemKV, and supports injected write failures to exercise the quota path.
type MemKV struct {
	mu      sync.Mutex
	entries map[string][]byte

	failNext int
	failErr  error
	puts     int
	deletes  int
}

func NewMemKV() *MemKV {
	return &MemKV{entries: make(map[string][]byte)}
}

// FailNextPuts makes the next n Put calls fail with err.
func (m *MemKV) FailNextPuts(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
	m.failErr = err
}

// Puts returns how many Put calls were attempted.
func (m *MemKV) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Deletes returns how many Delete calls were made.
func (m *MemKV) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

func (m *MemKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *MemKV) Put(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failNext > 0 {
		m.failNext--
		return m.failErr
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.entries[key] = stored
	return nil
}

func (m *MemKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.entries, key)
	return nil
}

func (m *MemKV) Close() error { return nil }
