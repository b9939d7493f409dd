// Package arena implements the runtime's thread-local bump allocator: a
// chain of monotonically-growing slabs that back every short-lived,
// per-phase allocation a worker makes (task frames, scratch node arrays,
// intermediate merge buffers).
//
// The allocator's contract mirrors the teacher repository's arena-indexed
// pools (see QuantumQueue's fixed-capacity handle arena in the retrieval
// pack): a caller gets back raw, zeroed memory sized to a multiple of its
// own alignment requirement, and the arena never runs a destructor on it.
// Types placed here must be trivially destructible — in Go that is every
// type, since the garbage collector (not this package) ultimately owns
// reclamation of anything still reachable after Advance. Advance's job is
// narrower: it lets the bump pointer of the head slab snap back to the
// start of the slab and drops the slab's predecessors, so a worker can
// reuse the same backing memory across every fork/join phase without the
// allocator ever calling into the runtime's general-purpose allocator on
// the hot path.
package arena

import (
	"unsafe"

	"github.com/archonlabs/forkjoin/gc"
)

// initialSlabSize is the size, in bytes, of the first slab allocated for
// a fresh Arena. Each subsequent slab doubles the previous one's size,
// matching the doubling strategy the teacher's own growable structures
// use (see the Chase-Lev deque's array-doubling policy in package deque).
const initialSlabSize = 64 << 10 // 64 KiB

// slab is one link in the arena's slab chain. begin advances monotonically
// as allocations are carved out of data; predecessor chains back to the
// slab that was head before this one was created.
type slab struct {
	data        []byte
	begin       int
	predecessor *slab
}

// Arena is a single-thread-owned bump allocator. It is not safe for
// concurrent use — per spec, the arena's thread-locality is intrinsic to
// its contract, so callers must give each worker its own Arena.
type Arena struct {
	head      *slab
	collector *gc.Collector
}

// New returns an Arena with one initialSlabSize slab already attached and
// no reclamation collaborator. Equivalent to NewWithCollector(nil).
func New() *Arena {
	return NewWithCollector(nil)
}

// NewWithCollector is New, additionally wiring c's Handshake hook into
// every Advance call — the "phase boundary" safe-point gc.Handshake's doc
// comment describes. A nil c is a legal no-op collector.
func NewWithCollector(c *gc.Collector) *Arena {
	return &Arena{head: &slab{data: make([]byte, initialSlabSize)}, collector: c}
}

// Allocate returns n bytes of zeroed, arena-owned memory. n should be a
// multiple of the caller's maximum required alignment — Allocate enforces
// no alignment of its own beyond the natural word alignment Go's
// allocator already gives make([]byte, ...).
func (a *Arena) Allocate(n int) unsafe.Pointer {
	h := a.head
	if len(h.data)-h.begin < n {
		a.grow(n)
		h = a.head
	}
	p := unsafe.Pointer(&h.data[h.begin])
	h.begin += n
	return p
}

// grow allocates a new head slab at least as large as needed, sized by
// doubling the current head's capacity, and chains the old head as its
// predecessor.
func (a *Arena) grow(need int) {
	size := len(a.head.data) * 2
	if size == 0 {
		size = initialSlabSize
	}
	for size < need {
		size *= 2
	}
	a.head = &slab{data: make([]byte, size), predecessor: a.head}
}

// Advance resets the head slab's bump pointer to its start and drops every
// predecessor slab, reclaiming them en masse. It must only be called once
// every allocation made since the arena's creation (or the prior Advance)
// is unreachable — the scheduler calls it from a worker's parkOrRetry
// whenever that worker's park leaves every worker in the pool parked at
// once. It also ticks the
// arena's collector, if any: reclaiming a slab chain en masse is itself a
// safe point a cooperative collector needs to observe.
func (a *Arena) Advance() {
	a.head.begin = 0
	a.head.predecessor = nil
	a.collector.Tick()
}

// AllocateObject is a typed convenience wrapper around Allocate: it
// returns a pointer to a zeroed T carved from the arena.
func AllocateObject[T any](a *Arena) *T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	p := a.Allocate(size)
	return (*T)(p)
}

// AllocateSlice returns a zeroed []T of length n carved from the arena, as
// a contiguous block — used for the trie's packed child/value arrays and
// the skiplist node's successor array.
func AllocateSlice[T any](a *Arena, n int) []T {
	if n == 0 {
		return nil
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	p := a.Allocate(elemSize * n)
	return unsafe.Slice((*T)(p), n)
}
