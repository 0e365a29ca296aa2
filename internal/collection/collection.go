// Package collection provides the owning, resizable entry sequence shared by
// the text and VF file types.
package collection

import (
	"fmt"
	"iter"

	"github.com/jchantrell/ssoformats/internal/codec"
)

// Entry is implemented by the per-format entry types. Clone returns a deep
// copy that shares no buffers with the receiver; Release drops every owned
// string so the entry no longer references payload memory.
type Entry[E any] interface {
	Clone() E
	Release()
}

// DefaultMaxEntries bounds how many entries a collection may hold.
const DefaultMaxEntries = 1 << 24

// Collection owns a contiguous sequence of entries. It is not safe for
// concurrent use; callers sharing one must serialize access themselves.
type Collection[E Entry[E]] struct {
	entries    []E
	newEntry   func() E
	maxEntries uint32
}

// New returns an empty collection. newEntry builds the zero-filled entries
// used when growing; maxEntries of 0 selects DefaultMaxEntries.
func New[E Entry[E]](newEntry func() E, maxEntries uint32) *Collection[E] {
	if maxEntries == 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Collection[E]{
		newEntry:   newEntry,
		maxEntries: maxEntries,
	}
}

// Count returns the number of entries.
func (c *Collection[E]) Count() uint32 {
	return uint32(len(c.entries))
}

// Get returns the entry at index. The entry stays owned by the collection.
func (c *Collection[E]) Get(index uint32) (E, error) {
	if index >= c.Count() {
		var zero E
		return zero, fmt.Errorf("%w: entry %d of %d", codec.ErrIndexOutOfRange, index, c.Count())
	}
	return c.entries[index], nil
}

// Add appends a deep copy of e.
func (c *Collection[E]) Add(e E) error {
	if c.Count() >= c.maxEntries {
		return fmt.Errorf("%w: collection already holds %d entries", codec.ErrAllocation, c.Count())
	}
	c.entries = append(c.entries, e.Clone())
	return nil
}

// Fill appends n fresh entries, handing each to decode before it is added.
// n is checked against the limit up front, but storage grows only as entries
// are decoded. If decode fails the failed entry is released and the error is
// returned; entries added before it stay in the collection.
func (c *Collection[E]) Fill(n uint32, decode func(index uint32, e E) error) error {
	count := c.Count()
	if n > c.maxEntries-count {
		return fmt.Errorf("%w: %d entries requested, limit is %d", codec.ErrAllocation, count+n, c.maxEntries)
	}
	for i := range n {
		e := c.newEntry()
		if err := decode(count+i, e); err != nil {
			e.Release()
			return err
		}
		c.entries = append(c.entries, e)
	}
	return nil
}

// Remove releases the entry at index and shifts the following entries down
// by one, preserving order.
func (c *Collection[E]) Remove(index uint32) error {
	if index >= c.Count() {
		return fmt.Errorf("%w: cannot remove entry %d of %d", codec.ErrIndexOutOfRange, index, c.Count())
	}

	c.entries[index].Release()
	copy(c.entries[index:], c.entries[index+1:])

	last := len(c.entries) - 1
	var zero E
	c.entries[last] = zero
	c.entries = c.entries[:last]

	if len(c.entries) == 0 {
		c.entries = nil
	}
	return nil
}

// Resize grows or shrinks the collection to n entries. Growing appends fresh
// zero-filled entries; shrinking releases every entry past n before
// truncating. Resize(0) drops the backing store entirely.
func (c *Collection[E]) Resize(n uint32) error {
	count := c.Count()
	switch {
	case n == count:
		return nil
	case n == 0:
		c.Free()
		return nil
	case n > c.maxEntries:
		return fmt.Errorf("%w: %d entries requested, limit is %d", codec.ErrAllocation, n, c.maxEntries)
	case n < count:
		var zero E
		for i := n; i < count; i++ {
			c.entries[i].Release()
			c.entries[i] = zero
		}
		c.entries = c.entries[:n]
	default:
		grown := make([]E, n)
		copy(grown, c.entries)
		for i := count; i < n; i++ {
			grown[i] = c.newEntry()
		}
		c.entries = grown
	}
	return nil
}

// Free releases every entry and the backing store. It may be called any
// number of times.
func (c *Collection[E]) Free() {
	for i := range c.entries {
		c.entries[i].Release()
	}
	c.entries = nil
}

// All iterates over the entries in order.
func (c *Collection[E]) All() iter.Seq2[uint32, E] {
	return func(yield func(uint32, E) bool) {
		for i, e := range c.entries {
			if !yield(uint32(i), e) {
				return
			}
		}
	}
}
