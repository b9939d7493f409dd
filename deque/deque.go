// Package deque implements the Chase-Lev work-stealing deque: a
// single-producer (the owning worker), multi-consumer (thief workers)
// unbounded deque of pointer-sized task handles.
//
// The owner treats its end as a LIFO stack (push/pop the bottom) so the
// cache-hot tail of its own work is what it resumes first; thieves treat
// the other end as a FIFO queue (steal the top) so they tend to take the
// oldest, typically largest, subtrees, which spreads load better than
// stealing freshly-forked leaves.
//
// Layout and the acquire/release helpers below follow the same
// cache-line-isolation and minimal-fence discipline as the teacher
// repository's SPSC ring buffer (package ring in the retrieval pack):
// producer-owned fields live on one cache line, the contested counter
// thieves CAS lives on another, and every cross-thread handoff goes
// through a helper named for the ordering it needs (acquire load, release
// store); atomics.go explains why those helpers are sequentially
// consistent underneath.
package deque

import (
	"sync/atomic"
	"unsafe"

	"github.com/archonlabs/forkjoin/gc"
)

// circularArray is the deque's backing storage. It implements gc.Scanner
// as a no-op (it holds opaque task handles, not GC references of its own)
// and gc.Shader so that a retired array from a resize can be handed to
// the collector instead of being freed outright, per the reclamation
// hook's contract.
type circularArray struct {
	mask uint64
	buf  []unsafe.Pointer
}

func newCircularArray(capacity uint64) *circularArray {
	return &circularArray{mask: capacity - 1, buf: make([]unsafe.Pointer, capacity)}
}

func (c *circularArray) get(i uint64) unsafe.Pointer {
	return loadAcquirePointer(&c.buf[i&c.mask])
}

func (c *circularArray) put(i uint64, v unsafe.Pointer) {
	storeReleasePointer(&c.buf[i&c.mask], v)
}

func (c *circularArray) capacity() uint64 { return c.mask + 1 }

// Scan enumerates outgoing references from the array. The array holds
// opaque task handles that the GC will scan via the task's own Scan, not
// through the deque, so this is a no-op.
func (c *circularArray) Scan(func(gc.Shader)) {}

// Shade is a no-op marker; retired arrays are simply handed to the
// collector via the reclamation hook instead of being freed synchronously.
func (c *circularArray) Shade() {}

const minCapacity = 32

// Deque is a Chase-Lev work-stealing deque of unsafe.Pointer task handles.
// The zero value is not usable; construct with New.
type Deque struct {
	_         [64]byte
	bottom    uint64
	cachedTop uint64
	array     unsafe.Pointer // *circularArray, owner-writes-only except during resize publish
	_         [40]byte

	_   [64]byte
	top uint64
	_   [56]byte

	collector *gc.Collector
}

// New returns an empty Deque with the given initial capacity. A capacity
// below minCapacity is raised to minCapacity; any other capacity must be a
// power of two, and New panics if it is not.
func New(initialCapacity uint64, collector *gc.Collector) *Deque {
	if initialCapacity < minCapacity {
		initialCapacity = minCapacity
	}
	if initialCapacity&(initialCapacity-1) != 0 {
		panic("deque: initial capacity must be a power of two")
	}
	d := &Deque{collector: collector}
	arr := newCircularArray(initialCapacity)
	atomic.StorePointer(&d.array, unsafe.Pointer(arr))
	return d
}

func (d *Deque) loadArray() *circularArray {
	return (*circularArray)(atomic.LoadPointer(&d.array))
}

// Push is called only by the deque's owner. It appends item at the
// bottom, growing the backing array if it is full.
func (d *Deque) Push(item unsafe.Pointer) {
	b := d.bottom
	arr := d.loadArray()
	if b-d.cachedTop == arr.capacity() {
		d.cachedTop = loadAcquireUint64(&d.top)
		if b-d.cachedTop == arr.capacity() {
			arr = d.grow(arr, b)
		}
	}
	arr.put(b, item)
	releaseFence()
	atomic.StoreUint64(&d.bottom, b+1)
}

// grow doubles the backing array, copies every live element, publishes
// the new array with a release store, and hands the old one to the
// collector instead of freeing it — per the reclamation hook's contract,
// a structure that might still be observed by an in-flight thief is
// shaded, not freed.
func (d *Deque) grow(old *circularArray, bottom uint64) *circularArray {
	newArr := newCircularArray(old.capacity() * 2)
	for i := d.cachedTop; i != bottom; i++ {
		newArr.put(i, old.get(i))
	}
	atomic.StorePointer(&d.array, unsafe.Pointer(newArr))
	d.collector.Shade(old)
	return newArr
}

// Pop is called only by the deque's owner. It removes and returns the
// bottom item, or nil if the deque is empty. Pop and a concurrent Steal
// race over the single last element; the seq-cst fence between the
// bottom decrement and the top load is what serializes that race.
func (d *Deque) Pop() unsafe.Pointer {
	b := d.bottom - 1
	atomic.StoreUint64(&d.bottom, b)
	seqCstFence()
	t := atomic.LoadUint64(&d.top)

	// Compare as a signed difference: on an empty deque b is t-1, which
	// wraps to 2^64-1 when t is 0.
	if int64(b-t) < 0 {
		atomic.StoreUint64(&d.bottom, t)
		return nil
	}

	arr := d.loadArray()
	item := arr.get(b)
	if int64(b-t) > 0 {
		return item
	}

	// b == t: exactly one element left, contested with thieves.
	ok := atomic.CompareAndSwapUint64(&d.top, t, t+1)
	atomic.StoreUint64(&d.bottom, t+1)
	if !ok {
		return nil
	}
	return item
}

// Steal is called by any thief. It removes and returns the top item, or
// nil if the deque appeared empty or lost a race with another thief or
// with the owner's Pop.
func (d *Deque) Steal() unsafe.Pointer {
	t := loadAcquireUint64(&d.top)
	seqCstFence()
	b := loadAcquireUint64(&d.bottom)
	if int64(b-t) <= 0 {
		return nil
	}
	arr := (*circularArray)(loadConsumePointer(&d.array))
	item := arr.get(t)
	if !atomic.CompareAndSwapUint64(&d.top, t, t+1) {
		return nil
	}
	return item
}

// Empty reports whether the deque currently has no elements. It is a
// snapshot, useful only for the scheduler's quiescence probe, never for
// correctness: the result can be stale the instant it is returned.
func (d *Deque) Empty() bool {
	b := atomic.LoadUint64(&d.bottom)
	t := atomic.LoadUint64(&d.top)
	return int64(b-t) <= 0
}
