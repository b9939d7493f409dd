package deque

import (
	"sync/atomic"
	"unsafe"
)

// The helpers below name the memory ordering they provide rather than
// just calling through to sync/atomic's sequentially-consistent
// primitives, following the same style as the teacher repository's
// ring buffer (loadAcquireUint64/storeReleaseUint64 in package ring).
// Go's atomic package does not expose separate acquire/release/consume
// orderings, so these are seq-cst underneath — a conservative superset
// of what each call site requires — but naming them by intent keeps the
// Chase-Lev algorithm's ordering requirements legible at each use site.

func loadAcquireUint64(p *uint64) uint64 {
	return atomic.LoadUint64(p)
}

func loadAcquirePointer(p *unsafe.Pointer) unsafe.Pointer {
	return atomic.LoadPointer(p)
}

func storeReleasePointer(p *unsafe.Pointer, v unsafe.Pointer) {
	atomic.StorePointer(p, v)
}

// loadConsumePointer loads the array pointer with the ordering a thief
// needs before indexing into the slots it references: "consume" on
// platforms that distinguish it, acquire (a superset) everywhere else.
func loadConsumePointer(p *unsafe.Pointer) unsafe.Pointer {
	return atomic.LoadPointer(p)
}

// releaseFence stands in for a standalone release fence; Go's memory
// model ties ordering to the atomic op itself, so the store immediately
// following this call is what actually carries the release semantics.
func releaseFence() {}

// seqCstFence separates the bottom decrement from the top load in Pop,
// and the top load from the bottom load in Steal, so the single-element
// race between a Pop and a Steal is resolved consistently by both sides.
func seqCstFence() {
	// A no-op CAS on a throwaway location forces a full fence on every
	// Go-supported architecture's atomic implementation, standing in
	// for the source's explicit std::atomic_thread_fence(seq_cst).
	var dummy uint64
	atomic.CompareAndSwapUint64(&dummy, 0, 0)
}
