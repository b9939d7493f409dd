package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/archonlabs/forkjoin/latch"
	"github.com/archonlabs/forkjoin/metrics"
	"github.com/archonlabs/forkjoin/task"
)

func TestSubmitRunsTask(t *testing.T) {
	s := Start(4)
	defer s.Stop()

	done := make(chan struct{})
	rt := task.New(nil, func(sc task.Scheduler, tk *task.Task) {
		close(done)
	})
	s.Submit(rt)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("submitted task never ran")
	}
}

// TestForkJoinAcrossPoolMakesProgress is spec §8's "Progress" property:
// a latch with many forks spread across every worker's own deque must
// still reach zero and resume its continuation, i.e. the pool as a whole
// always converges even though individual deques run dry and refill by
// stealing.
func TestForkJoinAcrossPoolMakesProgress(t *testing.T) {
	s := Start(4)
	defer s.Stop()

	const n = 2000
	var completed atomic.Int64
	l := &latch.Latch{}

	done := make(chan struct{})
	root := task.New(nil, func(sc task.Scheduler, rootTask *task.Task) {
		for i := 0; i < n; i++ {
			ct := task.Spawn(l, func(sc2 task.Scheduler, ct *task.Task) {
				completed.Add(1)
				task.Finish(sc2, ct)
			})
			sc.Push(ct)
		}
		if l.Ready() {
			close(done)
			return
		}
		ok := l.Suspend(func(latch.Pusher) {
			close(done)
		})
		if !ok {
			close(done)
		}
	})
	s.Submit(root)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("fork/join across the pool never converged")
	}
	if completed.Load() != n {
		t.Fatalf("expected %d completions, got %d", n, completed.Load())
	}
}

func TestStopDrainsRunningWorkersAndReturns(t *testing.T) {
	s := Start(2)
	var ran atomic.Bool
	done := make(chan struct{})
	s.Submit(task.New(nil, func(sc task.Scheduler, tk *task.Task) {
		ran.Store(true)
		close(done)
	}))
	<-done
	s.Stop()
	if !ran.Load() {
		t.Fatal("task should have run before Stop returned")
	}
}

func TestNumWorkers(t *testing.T) {
	s := Start(6)
	defer s.Stop()
	if got := s.NumWorkers(); got != 6 {
		t.Fatalf("expected 6 workers, got %d", got)
	}
}

func TestWithMetricsRecordsWakes(t *testing.T) {
	m := metrics.New()
	s := Start(2, WithMetrics(m))
	defer s.Stop()

	done := make(chan struct{})
	s.Submit(task.New(nil, func(sc task.Scheduler, tk *task.Task) {
		close(done)
	}))
	<-done

	snap := m.Snapshot()
	if snap.Wakes == 0 {
		t.Fatal("expected at least one recorded wake after Submit")
	}
}

func TestDefaultParallelismAtLeastOne(t *testing.T) {
	if DefaultParallelism() < 1 {
		t.Fatal("DefaultParallelism should never return less than 1")
	}
}
