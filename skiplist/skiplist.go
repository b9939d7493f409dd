// Package skiplist implements the runtime's lock-free ordered map: an
// insert-only skiplist keyed by uint64 that supports concurrent Emplace
// from any number of goroutines, followed by a one-way Freeze into an
// immutable form with a cursor-based range-query API (see frozen.go).
//
// The concurrent half never removes a node and never mutates a
// published node's key; the only mutation after a node is linked in is
// another insertion linking in front of or behind it. That restriction
// is what makes Freeze a zero-copy transition: once nothing is inserting
// any more, the same head and node structures are simply reinterpreted
// through the Frozen/Cursor API in frozen.go.
package skiplist

import (
	"math/bits"
	"sync/atomic"

	"lukechampine.com/frand"

	"github.com/archonlabs/forkjoin/gc"
)

// maxHeight bounds a node's successor array length. Spec's height
// distribution has a hard ceiling of 13 in practice (the ctz of a 24-bit
// sample OR'd with bit 12 can never exceed 13), but the array is sized to
// 33 to match the source's own head layout exactly, which future-proofs
// the geometric distribution's parameters without a layout change.
const maxHeight = 33

// node is one entry of the skiplist. next[l] is the successor reachable
// by following level-l links; next has exactly height entries, fixed at
// allocation — a node's height never changes after construction.
type node[V any] struct {
	key   uint64
	value V
	next  []atomic.Pointer[node[V]]
}

// Scan enumerates n's outgoing references. A frozen cursor walks next
// directly (see frozen.go); nothing besides the collector needs to treat
// next as a graph edge set, but we expose it so an external collector can
// still trace the chain without special-casing this package.
func (n *node[V]) Scan(visit func(gc.Shader)) {
	for i := range n.next {
		if s := n.next[i].Load(); s != nil {
			visit(s)
		}
	}
}

// Shade is a no-op: once linked, a node's own fields never change; only
// its predecessors' next pointers are rewritten, and those rewrites are
// always a publish (a new node CAS'd in), never a clear.
func (n *node[V]) Shade() {}

// levelSource is implemented by both head and node: "the thing a cursor
// or an inserter holds a successor-at-level-l pointer into."
type levelSource[V any] interface {
	successorPtr(level int) *atomic.Pointer[node[V]]
}

// head is the skiplist's keyless sentinel. top tracks the highest level
// currently in use by any published node, so searches need not always
// start at maxHeight-1.
type head[V any] struct {
	top  atomic.Uint32
	next [maxHeight]atomic.Pointer[node[V]]
}

func (h *head[V]) successorPtr(level int) *atomic.Pointer[node[V]] { return &h.next[level] }
func (n *node[V]) successorPtr(level int) *atomic.Pointer[node[V]] {
	return &n.next[level]
}

// Skiplist is the concurrent, insert-only half. The zero value is not
// usable; construct with New.
type Skiplist[V any] struct {
	h *head[V]
}

// New returns an empty Skiplist.
func New[V any]() *Skiplist[V] {
	s := &Skiplist[V]{h: &head[V]{}}
	s.h.top.Store(1)
	return s
}

// sampleHeight draws a node height from the geometric distribution of
// spec §3: h = 1 + ctz(R | (1<<12)) for a 24-bit uniform sample R. Using
// frand (see SPEC_FULL.md DOMAIN STACK) instead of math/rand avoids the
// per-call mutex math/rand's global source would otherwise serialize
// every concurrent Emplace through.
func sampleHeight() int {
	r := uint32(frand.Uint64n(1 << 24))
	return bits.TrailingZeros32(r|(1<<12)) + 1
}

// search descends from the head, filling preds[l] with the last node (or
// head) observed at level l whose key is less than key, for every level
// from the head's current top down to 0. If a node with key equal to key
// is encountered at any level, search returns it immediately (short
// circuit) without finishing lower levels — the caller only needs preds
// when no match exists.
func (s *Skiplist[V]) search(key uint64) (preds [maxHeight]levelSource[V], found *node[V]) {
	for i := range preds {
		preds[i] = s.h
	}
	top := int(s.h.top.Load())
	var cur levelSource[V] = s.h
	for l := top - 1; l >= 0; l-- {
		for {
			next := cur.successorPtr(l).Load()
			if next == nil || next.key > key {
				break
			}
			if next.key == key {
				return preds, next
			}
			cur = next
		}
		preds[l] = cur
	}
	return preds, nil
}

// Emplace installs key/value if key is absent, or returns the existing
// node if present. The returned bool reports whether this call's node was
// the one installed; when two callers race on the same key, exactly one
// sees true and both receive the same *node reference.
func (s *Skiplist[V]) Emplace(key uint64, value V) (*node[V], bool) {
	for {
		preds, found := s.search(key)
		if found != nil {
			return found, false
		}
		h := sampleHeight()
		n := &node[V]{key: key, value: value, next: make([]atomic.Pointer[node[V]], h)}

		succ0 := preds[0].successorPtr(0).Load()
		if succ0 != nil && succ0.key == key {
			// Lost the race at level 0 between our search and our CAS.
			continue
		}
		n.next[0].Store(succ0)
		if !preds[0].successorPtr(0).CompareAndSwap(succ0, n) {
			continue
		}

		for l := 1; l < h; l++ {
			pred := preds[l]
			for {
				succ := pred.successorPtr(l).Load()
				if succ != nil && succ.key < key {
					pred = succ
					continue
				}
				if succ != nil && succ.key == key {
					// Shouldn't happen: level 0 already claimed key for
					// us. A higher level racing ahead of level 0's CAS
					// is impossible under this protocol; treat it as a
					// benign stale observation and re-read.
					succ = pred.successorPtr(l).Load()
					continue
				}
				n.next[l].Store(succ)
				if pred.successorPtr(l).CompareAndSwap(succ, n) {
					break
				}
			}
		}

		for {
			top := s.h.top.Load()
			if uint32(h) <= top {
				break
			}
			if s.h.top.CompareAndSwap(top, uint32(h)) {
				break
			}
		}
		return n, true
	}
}

// Len is a debug/test convenience: a full forward walk counting nodes.
// It is not part of the concurrent API's hot path and gives no snapshot
// consistency guarantee if called concurrently with Emplace.
func (s *Skiplist[V]) Len() int {
	n := 0
	for cur := s.h.next[0].Load(); cur != nil; cur = cur.next[0].Load() {
		n++
	}
	return n
}
