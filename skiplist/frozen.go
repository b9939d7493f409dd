package skiplist

import "github.com/archonlabs/forkjoin/internal/xlog"

// Frozen is the immutable, cursor-queryable view of a Skiplist after its
// one-way Freeze transition. It shares the same head (and therefore every
// node) with the Skiplist it was frozen from — Freeze performs no copy,
// it only stops further Emplace calls from being meaningful (nothing
// prevents calling Emplace on the original Skiplist afterward, but doing
// so is a misuse the caller must avoid; nothing about Frozen's read path
// depends on that discipline being honored, it would just observe the
// extra node).
type Frozen[V any] struct {
	h *head[V]
}

// Freeze returns the frozen view of s. The transition is a pointer copy:
// Frozen and Skiplist both read through the same head, matching spec
// §4.F's "ownership move that reinterprets the same bytes."
func (s *Skiplist[V]) Freeze() *Frozen[V] {
	return &Frozen[V]{h: s.h}
}

// Cursor holds a search-path position: a reference to the successor
// array of some node (or the head) and a level index into it. Advancing
// or descending a cursor costs O(1); copying one to explore two
// sub-ranges from the same position costs O(1) too, since a Cursor is a
// plain value (pointer + int).
type Cursor[V any] struct {
	node  levelSource[V]
	level int
}

// NewCursor returns a cursor positioned at the head, at the frozen
// structure's top level.
func (f *Frozen[V]) NewCursor() Cursor[V] {
	return Cursor[V]{node: f.h, level: int(f.h.top.Load()) - 1}
}

// Descend moves the cursor to one level lower at the same node. level
// must be greater than 0.
func (c Cursor[V]) Descend() Cursor[V] {
	xlog.Invariant(c.level > 0, "skiplist: cursor descend below level 0")
	return Cursor[V]{node: c.node, level: c.level - 1}
}

// Advance moves the cursor to the successor at its current level. If
// there is no successor, Advance is a no-op (the cursor stays put; the
// caller distinguishes this case via Peek returning ok=false).
func (c Cursor[V]) Advance() Cursor[V] {
	if next := c.node.successorPtr(c.level).Load(); next != nil {
		return Cursor[V]{node: next, level: c.level}
	}
	return c
}

// Peek returns the key/value and true for the node the cursor's current
// successor pointer references, or ok=false if there is none.
func (c Cursor[V]) Peek() (key uint64, value V, ok bool) {
	next := c.node.successorPtr(c.level).Load()
	if next == nil {
		return 0, value, false
	}
	return next.key, next.value, true
}

// Current reports the key/value of the node the cursor is positioned at
// (not its successor), or ok=false if the cursor is still at the head.
func (c Cursor[V]) Current() (key uint64, value V, ok bool) {
	if n, isNode := c.node.(*node[V]); isNode {
		return n.key, n.value, true
	}
	return 0, value, false
}

// RefineClosedRange descends and advances the cursor until its
// successor's key either lies within [a, b] (returns true, cursor's
// Peek is that key), or is provably absent from [a, b] and the cursor has
// reached level 0 (returns false). It never overshoots past b: if the
// next key exceeds b, it descends rather than advancing past it.
func (c *Cursor[V]) RefineClosedRange(a, b uint64) bool {
	for {
		key, _, ok := c.Peek()
		if ok && key >= a && key <= b {
			return true
		}
		if ok && key < a {
			*c = c.Advance()
			continue
		}
		if c.level == 0 {
			return false
		}
		*c = c.Descend()
	}
}

// LowerBound returns a cursor whose Peek, if ok, is the smallest key >= q
// in f.
func (f *Frozen[V]) LowerBound(q uint64) Cursor[V] {
	c := f.NewCursor()
	for {
		key, _, ok := c.Peek()
		if ok && key < q {
			c = c.Advance()
			continue
		}
		if c.level == 0 {
			return c
		}
		c = c.Descend()
	}
}

// Find reports whether f contains q, and its value if so.
func (f *Frozen[V]) Find(q uint64) (V, bool) {
	c := f.LowerBound(q)
	key, value, ok := c.Peek()
	if ok && key == q {
		return value, true
	}
	var zero V
	return zero, false
}

// ReverseLowerBound returns a cursor positioned at the largest key <= q
// in f; Current reports that key, or ok=false if every key exceeds q.
func (f *Frozen[V]) ReverseLowerBound(q uint64) Cursor[V] {
	c := f.NewCursor()
	for {
		key, _, ok := c.Peek()
		if ok && key <= q {
			c = c.Advance()
			continue
		}
		if c.level == 0 {
			return c
		}
		c = c.Descend()
	}
}

// All calls visit with every (key, value) pair in f in ascending order,
// stopping early if visit returns false. Supplemented beyond the
// distilled spec (see SPEC_FULL.md "SUPPLEMENTED FEATURES") to make
// spec §8's "Order" testable property exercisable directly.
func (f *Frozen[V]) All(visit func(key uint64, value V) bool) {
	for cur := f.h.next[0].Load(); cur != nil; cur = cur.next[0].Load() {
		if !visit(cur.key, cur.value) {
			return
		}
	}
}

// Keys returns every key in f in ascending order.
func (f *Frozen[V]) Keys() []uint64 {
	var out []uint64
	f.All(func(k uint64, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}
