// Package latch implements the fork/join runtime's countdown
// synchronizer: a latch that resumes a single awaiter continuation once
// every fork registered against it has completed.
//
// A Latch is reusable only up to its single Await: spec's open question on
// single-use vs reusable latches is resolved here in favor of the source's
// own behavior — await_ready mutates the latch's count, so a second Await
// on the same latch is a misuse and panics rather than silently returning.
package latch

import (
	"sync/atomic"

	"github.com/archonlabs/forkjoin/internal/xlog"
)

// continuation states, stored in contState. Whether a continuation has
// been installed (or the latch signaled) is decided by the contSet flag,
// and the continuation itself lives in its own field.
const (
	nonsignaled = 0
	signaled    = 1
)

// Pusher is the capability a latch's continuation needs in order to keep
// the CPS chain going once it resumes: "push a further continuation onto
// whatever worker happens to resume this one." Package task adapts its
// own Scheduler (Push(*Task)) into a Pusher, so a continuation that itself
// needs to complete an outer latch (the recursive fork/join case: a node
// level's join step reporting into its parent's join step) never blocks an
// OS thread to do it. Defined here, rather than imported from task, so
// that latch never depends on task — task already depends on latch.
type Pusher interface {
	PushContinuation(Continuation)
}

// Continuation is scheduled by Complete once the latch reaches zero, or
// invoked directly by Await if every fork had already completed. The
// Pusher argument lets the continuation itself push further work instead
// of running synchronously on whatever goroutine resumed it.
type Continuation func(p Pusher)

// Latch is a forkjoin countdown synchronizer. The zero value is ready to
// use: pending and count both start at zero, and the continuation slot
// starts empty.
type Latch struct {
	pending      int64 // owner-thread-only, non-atomic during the fork phase
	count        int64 // atomic: outstanding completions
	contState    int64 // atomic: nonsignaled | signaled, racing with contSet
	contSet      atomic.Bool
	continuation Continuation
	awaited      atomic.Bool
}

// Fork registers one more outstanding child against l. Fork must only be
// called by the latch's owning goroutine, and only before that goroutine
// calls Await — it is the non-atomic "pending" increment from spec §4.D.
func (l *Latch) Fork() {
	l.pending++
}

// Complete records that one forked child has finished. If this was the
// last outstanding completion, it runs (or schedules) the latch's
// continuation. schedule is called instead of running the continuation
// inline when one was installed via Await's suspend path, so the
// scheduler — not this package — decides which worker resumes it.
func (l *Latch) Complete(schedule func(Continuation)) {
	if atomic.AddInt64(&l.count, -1) != 0 {
		return
	}
	// We were the final completion: publish signaled, or hand off to
	// whatever continuation Await already installed.
	if l.contSet.CompareAndSwap(false, true) {
		atomic.StoreInt64(&l.contState, signaled)
		return
	}
	// A continuation was installed before we got here.
	cont := l.continuation
	xlog.Invariant(cont != nil, "latch: signaled with no continuation installed")
	if schedule != nil {
		schedule(cont)
	} else {
		cont(nil)
	}
}

// Ready reports whether every fork registered so far has already
// completed, folding l.pending into l.count as spec's await_ready does.
// It must be called at most once per latch (see Await).
func (l *Latch) Ready() bool {
	xlog.Invariant(!l.awaited.Swap(true), "latch: Await called more than once")
	pending := l.pending
	l.pending = 0
	return atomic.AddInt64(&l.count, pending) == 0
}

// Suspend installs cont as the latch's continuation, to be run (via
// schedule, from Complete) when the latch reaches zero. It must only be
// called when Ready returned false. If Complete raced ahead of us and
// already observed zero, Suspend returns false and the caller must resume
// cont itself immediately instead of relying on the latch.
func (l *Latch) Suspend(cont Continuation) bool {
	l.continuation = cont
	if l.contSet.CompareAndSwap(false, true) {
		return true
	}
	// Complete already reached zero and claimed contSet first (publishing
	// signaled), so it will never run cont: the caller resumes cont itself.
	return false
}

// Await blocks synchronously until every forked child of l has
// completed. It exists for call sites outside the scheduler's own
// continuation-passing machinery (tests, and the package boundary
// between this library and ordinary goroutines); task bodies running
// inside the scheduler should prefer Ready/Suspend so that the awaiting
// worker can go steal other work instead of blocking an OS thread.
func (l *Latch) Await() {
	if l.Ready() {
		return
	}
	done := make(chan struct{})
	ok := l.Suspend(func(Pusher) { close(done) })
	if !ok {
		return
	}
	<-done
}
