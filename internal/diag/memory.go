package diag

import (
	"context"
	"sync"
)

// Memory keeps the most recent records in a ring buffer.
type Memory struct {
	mu    sync.Mutex
	buf   []Record
	next  int
	full  bool
	total int
}

// NewMemory returns a Memory holding at most capacity records.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 50
	}
	return &Memory{buf: make([]Record, capacity)}
}

func (m *Memory) Report(_ context.Context, rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf[m.next] = rec
	m.next = (m.next + 1) % len(m.buf)
	if m.next == 0 {
		m.full = true
	}
	m.total++
}

// Recent returns up to n records, newest first.
func (m *Memory) Recent(n int) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = len(m.buf)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.buf)) % len(m.buf)
		out = append(out, m.buf[idx])
	}
	return out
}

// Total is the number of records ever reported.
func (m *Memory) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}
