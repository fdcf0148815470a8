package history

import (
	"context"
	"sync"

	"github.com/guillermoBallester/askdb/internal/core/port"
)

// DefaultMemorySize is how many entries Memory keeps when no size is given.
const DefaultMemorySize = 100

// Memory keeps the most recent entries in order. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	size    int
	entries []port.HistoryEntry
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &Memory{size: size}
}

func (m *Memory) Record(_ context.Context, entry port.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.size; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
}

// Entries returns a copy, oldest first.
func (m *Memory) Entries() []port.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]port.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Memory) Close() error { return nil }
