package scheduler

import (
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/VividCortex/ewma"

	"github.com/archonlabs/forkjoin/arena"
	"github.com/archonlabs/forkjoin/deque"
	"github.com/archonlabs/forkjoin/internal/xlog"
	"github.com/archonlabs/forkjoin/metrics"
	"github.com/archonlabs/forkjoin/task"
)

// worker is one pool slot: its own deque (pushed to by itself and
// forked-into by task bodies resuming on it, stolen from by peers), its
// own arena (advanced at phase boundaries it alone decides), and a cached
// view of the global sleep generation used by the quiescence probe.
type worker struct {
	idx        int
	sched      *Scheduler
	deque      *deque.Deque
	arena      *arena.Arena
	steals     ewma.MovingAverage
	metrics    *metrics.Metrics
	sawGen     uint64 // last sleep generation this worker observed while awake
	sleeping   bool
}

// Push implements task.Scheduler: task bodies resuming on this worker
// fork new children onto this worker's own deque, not the deque of
// whatever worker originally constructed the task. If any peer is
// currently parked, it bumps the wake generation so that peer discovers
// the new work well before sleepTimeout lapses — per spec §4.C's wake
// protocol, this is the "idle-to-busy transitions pay for it" amortized
// cost landing on the worker that actually found new work, not on every
// push when every peer is already busy.
func (w *worker) Push(t *task.Task) {
	w.deque.Push(taskPtr(t))
	if int(w.sched.term.active.Load()) < len(w.sched.workers) {
		w.sched.wake()
		w.sched.recordWake()
	}
}

// NewTask implements task.Scheduler: every Task frame a task body forks
// while resuming on this worker is carved from this worker's own arena,
// per spec §4.E and §5's "Task memory: owned by the arena of the thread
// that allocated it."
func (w *worker) NewTask() *task.Task {
	return arena.AllocateObject[task.Task](w.arena)
}

func taskPtr(t *task.Task) unsafe.Pointer { return unsafe.Pointer(t) }
func taskFrom(p unsafe.Pointer) *task.Task { return (*task.Task)(p) }

// loop is a worker's entire body for the life of the pool: pop own work,
// else steal, else probe for quiescence, else park.
func (w *worker) loop() {
	defer w.sched.term.setInactive()
	for {
		if w.sched.stop.Load() {
			return
		}
		if p := w.deque.Pop(); p != nil {
			w.execute(taskFrom(p))
			continue
		}
		if p := w.stealFromPeers(); p != nil {
			w.execute(taskFrom(p))
			continue
		}
		if w.sched.stop.Load() {
			return
		}
		w.parkOrRetry()
	}
}

func (w *worker) execute(t *task.Task) {
	w.steals.Add(1)
	if w.metrics != nil {
		w.metrics.TasksExecuted.Inc()
	}
	t.Resume(w)
}

// stealFromPeers visits every other worker once, in index order starting
// just after this worker, per spec §4.C step 2.
func (w *worker) stealFromPeers() unsafe.Pointer {
	n := len(w.sched.workers)
	for j := 1; j < n; j++ {
		peer := w.sched.workers[(w.idx+j)%n]
		if p := peer.deque.Steal(); p != nil {
			if w.metrics != nil {
				w.metrics.Steals.Inc()
			}
			return p
		}
	}
	return nil
}

// parkOrRetry implements spec §4.C steps 3-4: a quiescence probe (re-scan
// peers once more in case work appeared while we were deciding to sleep),
// then an actual bounded wait on the global sleep generation.
func (w *worker) parkOrRetry() {
	gen := w.sched.sleepGen.Load()
	if gen != w.sawGen {
		// Someone published new work (or woke someone) since we last
		// looked; go steal again instead of sleeping on a stale view.
		w.sawGen = gen
		return
	}
	if w.anyPeerNonEmpty() {
		return
	}
	w.sleeping = true
	if w.metrics != nil {
		w.metrics.QuiescenceCycles.Inc()
	}
	if w.sched.term.markIdle() {
		// Every worker in the pool is parked at the same instant: no Task
		// frame this worker allocated can still be sitting unexecuted in
		// any deque (a pending frame would mean some peer's deque is
		// non-empty, contradicting isTerminated), so this phase boundary
		// is safe to reclaim.
		w.arena.Advance()
	}
	w.waitForWake(gen)
	w.sched.term.markActive()
	w.sleeping = false
}

func (w *worker) anyPeerNonEmpty() bool {
	n := len(w.sched.workers)
	for j := 1; j < n; j++ {
		peer := w.sched.workers[(w.idx+j)%n]
		if !peer.deque.Empty() {
			return true
		}
	}
	return false
}

// waitForWake spins with a short sleep until the global generation
// counter changes or sleepTimeout elapses, whichever first. A real
// condition variable would avoid the poll, but the bounded-timeout
// requirement (spec §5: "progress even if a wake notification is lost")
// means this loop must wake on its own regardless, so a short poll
// interval serves both purposes with one mechanism.
func (w *worker) waitForWake(observed uint64) {
	const pollInterval = 200 * time.Microsecond
	deadline := time.Now().Add(sleepTimeout)
	for time.Now().Before(deadline) {
		if cur := w.sched.sleepGen.Load(); cur != observed {
			w.sawGen = cur
			return
		}
		if w.sched.stop.Load() {
			return
		}
		time.Sleep(pollInterval)
	}
	w.sawGen = w.sched.sleepGen.Load()
}

// terminationBarrier counts active (non-parked, non-returned) workers so
// the pool can distinguish "everyone is idle" from "no work ever
// arrived" — spec component I.
type terminationBarrier struct {
	active atomic.Int64
}

// init seeds the barrier with the pool's worker count, per spec: "a
// single atomic counter initialized to the number of non-main workers."
func (b *terminationBarrier) init(n int) { b.active.Store(int64(n)) }

// setInactive releases one worker's slot for good; called once, via
// defer, when a worker's loop returns for good.
func (b *terminationBarrier) setInactive() {
	v := b.active.Add(-1)
	xlog.Invariant(v >= 0, "scheduler: termination barrier went negative")
}

// markIdle releases one worker's slot because that worker found no work
// anywhere and is about to park — the temporary counterpart to
// setInactive's permanent departure, reusing the same counter since both
// mean "not currently available to execute a task." It reports
// isTerminated's value immediately after the release, so the caller that
// tips the barrier to zero learns it was the one to do so.
func (b *terminationBarrier) markIdle() bool {
	v := b.active.Add(-1)
	xlog.Invariant(v >= 0, "scheduler: termination barrier went negative")
	return b.isTerminated()
}

// markActive reverses markIdle once the worker wakes back up.
func (b *terminationBarrier) markActive() { b.active.Add(1) }

// isTerminated reports whether every worker in the pool is simultaneously
// idle — spec component I's "distinguish 'everyone is idle' from 'no work
// ever arrived'" — as opposed to merely observing this one worker's own
// deque and its peers' deques as empty, which can be stale the instant
// after it's checked.
func (b *terminationBarrier) isTerminated() bool { return b.active.Load() == 0 }
