package pagination

import (
	"cmp"
	"slices"
	"sync"
)

// Buffer accumulates items from concurrently completing pages. Each page's
// items are stored as one chunk under its key, so an append is atomic and a
// reader never sees a partial page.
type Buffer[K cmp.Ordered, I any] struct {
	mu     sync.Mutex
	chunks map[K][]I
	count  int
}

// NewBuffer creates an empty buffer.
func NewBuffer[K cmp.Ordered, I any]() *Buffer[K, I] {
	return &Buffer[K, I]{chunks: make(map[K][]I)}
}

// Add stores items under key. A repeated key replaces the earlier chunk.
func (b *Buffer[K, I]) Add(key K, items []I) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count += len(items) - len(b.chunks[key])
	b.chunks[key] = items
}

// Len returns the number of buffered items.
func (b *Buffer[K, I]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Items returns all items flattened in key order.
func (b *Buffer[K, I]) Items() []I {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]K, 0, len(b.chunks))
	for k := range b.chunks {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]I, 0, b.count)
	for _, k := range keys {
		out = append(out, b.chunks[k]...)
	}
	return out
}
