// Package scheduler implements the runtime's fixed worker pool: each
// worker owns a Chase-Lev deque (package deque) and a bump arena (package
// arena), pops its own deque first, steals from peers on failure, and
// parks on a shared sleep-generation counter when no work is anywhere to
// be found.
//
// The pool is brought up with Start and torn down with Stop, mirroring
// the lifecycle shape of the teacher repository's pinned consumer loops
// (package ring in the retrieval pack start/stop around a goroutine), but
// generalized from one fixed consumer to N peers that both produce
// (fork) and consume (steal) each other's work.
package scheduler

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/sourcegraph/conc"

	"github.com/archonlabs/forkjoin/arena"
	"github.com/archonlabs/forkjoin/deque"
	"github.com/archonlabs/forkjoin/gc"
	"github.com/archonlabs/forkjoin/internal/xlog"
	"github.com/archonlabs/forkjoin/metrics"
	"github.com/archonlabs/forkjoin/task"
)

// sleepTimeout bounds how long a parked worker waits for a wake
// notification before re-checking on its own, per spec §5 "Sleep/wake":
// "a bounded timeout on the order of seconds, ensuring progress even if a
// wake notification is lost."
const sleepTimeout = 2 * time.Second

// deque initial capacity; grown by doubling as needed (package deque).
const initialDequeCapacity = 1024

// Option configures a Scheduler at Start.
type Option func(*config)

type config struct {
	collector *gc.Collector
	metrics   *metrics.Metrics
}

// WithCollector wires an external reclamation collaborator (package gc)
// into every worker's deque, so retired circular arrays are shaded
// instead of freed. The zero Collector (nil) is a legal default: Go's own
// GC reclaims them once unreachable.
func WithCollector(c *gc.Collector) Option {
	return func(cfg *config) { cfg.collector = c }
}

// WithMetrics wires an ambient metrics sink (package metrics). A nil
// Metrics is legal and every recording call becomes a no-op.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *config) { cfg.metrics = m }
}

// Scheduler owns the fixed worker pool. The zero value is not usable;
// construct with Start.
type Scheduler struct {
	workers  []*worker
	sleepGen atomic.Uint64
	stop     atomic.Bool
	next     atomic.Uint64 // round-robin counter for externally Submitted tasks
	wg       *conc.WaitGroup
	metrics  *metrics.Metrics
	term     terminationBarrier
}

// Start brings up a pool of n workers and returns the handle. n must be
// at least 1; spec's "N = hardware_concurrency - 1, launching thread acts
// as one of them" describes a process-level default, which callers can
// compute themselves via runtime.NumCPU()-1 and pass in — this library
// takes no process-wide default on its own, per SPEC_FULL.md's
// configuration-is-constructor-arguments convention.
func Start(n int, opts ...Option) *Scheduler {
	xlog.Invariant(n >= 1, "scheduler: Start requires at least one worker")
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Scheduler{wg: conc.NewWaitGroup(), metrics: cfg.metrics}
	s.term.init(n)
	s.workers = make([]*worker, n)
	for i := 0; i < n; i++ {
		s.workers[i] = &worker{
			idx:     i,
			sched:   s,
			deque:   deque.New(initialDequeCapacity, cfg.collector),
			arena:   arena.NewWithCollector(cfg.collector),
			steals:  ewma.NewMovingAverage(),
			metrics: cfg.metrics,
		}
	}
	for _, w := range s.workers {
		w := w
		s.wg.Go(func() { w.loop() })
	}
	return s
}

// Stop signals every worker to drain no further work and exit, wakes any
// parked worker, and blocks until all worker goroutines have returned. A
// worker mid-task always finishes that task before observing stop.
func (s *Scheduler) Stop() {
	s.stop.Store(true)
	s.wake()
	s.wg.Wait()
}

// Submit pushes t onto one of the pool's deques, chosen round-robin, and
// wakes a parked worker if any. It is the entry point for task bodies
// constructed outside any worker's own Resume call — typically a
// synchronous caller starting a root fork/join phase, which then blocks
// on the root latch's Await (package latch) while the pool executes it.
func (s *Scheduler) Submit(t *task.Task) {
	i := s.next.Add(1) % uint64(len(s.workers))
	s.workers[i].deque.Push(taskPtr(t))
	s.wake()
	s.recordWake()
}

// NumWorkers returns the pool's fixed worker count.
func (s *Scheduler) NumWorkers() int { return len(s.workers) }

// Metrics returns the pool's metrics sink, or nil if none was configured
// via WithMetrics. Supplemented per SPEC_FULL.md: ambient observability
// is not excluded by any Non-goal.
func (s *Scheduler) Metrics() *metrics.Metrics { return s.metrics }

func (s *Scheduler) recordWake() {
	if s.metrics != nil {
		s.metrics.Wakes.Inc()
	}
}

// wake bumps the global sleep generation and relies on every parked
// worker's condition wait to observe the change. This is the "wake cost
// paid by whoever finds new work, not by every push" amortization from
// spec §4.C's wake protocol: Submit/Push both call it, but a worker that
// successfully pops or steals without ever having declared sleep does
// not.
func (s *Scheduler) wake() {
	s.sleepGen.Add(1)
}

// DefaultParallelism returns runtime.NumCPU()-1, floored at 1 — the
// process-level default spec §4.C names, left for callers to opt into
// explicitly rather than applied silently inside Start.
func DefaultParallelism() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}
