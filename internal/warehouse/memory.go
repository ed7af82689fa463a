package warehouse

import (
	"context"
	"sort"
	"sync"

	"github.com/JonMunkholm/salesetl/internal/frame"
)

// MemorySink keeps written tables in memory.
type MemorySink struct {
	mu     sync.RWMutex
	tables map[string]*frame.Frame
	writes int
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{tables: make(map[string]*frame.Frame)}
}

// Write stores a copy of f under table, replacing any previous copy.
func (m *MemorySink) Write(ctx context.Context, table string, f *frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := f.Copy()
	if c == nil {
		c = frame.New(table)
	}
	c.Name = table
	m.mu.Lock()
	m.tables[table] = c
	m.writes++
	m.mu.Unlock()
	return nil
}

// Table returns the stored copy of table.
func (m *MemorySink) Table(table string) (*frame.Frame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.tables[table]
	return f, ok
}

// Tables lists stored table names in sorted order.
func (m *MemorySink) Tables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for n := range m.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Writes counts Write calls, including replacements.
func (m *MemorySink) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *MemorySink) Close() error { return nil }
