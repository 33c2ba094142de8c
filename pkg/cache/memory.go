package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tabi/pkg/observability"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process-local Cache used when no Redis address is configured.
type Memory struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		// A Set may have refreshed the key since the read lock was released.
		if cur, ok := m.data[key]; ok && m.now().After(cur.expiresAt) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.value, dst)
}

func (m *Memory) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entry{value: b, expiresAt: m.now().Add(ttl)}
	observability.ObserveCache("memory", "set")
	return nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	observability.ObserveCache("memory", "del")
	return nil
}

// Sweep drops expired entries; callers may run it periodically.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for k, e := range m.data {
		if now.After(e.expiresAt) {
			delete(m.data, k)
			n++
		}
	}
	return n
}
