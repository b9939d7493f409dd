package metrics

import "testing"

func TestNewCountersStartAtZero(t *testing.T) {
	m := New()
	snap := m.Snapshot()
	if snap.TasksExecuted != 0 || snap.Steals != 0 || snap.Wakes != 0 ||
		snap.QuiescenceCycles != 0 || snap.NodesSynthesized != 0 {
		t.Fatalf("expected all-zero snapshot, got %+v", snap)
	}
}

func TestCountersIncrementIndependently(t *testing.T) {
	m := New()
	m.TasksExecuted.Inc()
	m.TasksExecuted.Inc()
	m.Steals.Inc()

	snap := m.Snapshot()
	if snap.TasksExecuted != 2 {
		t.Fatalf("expected TasksExecuted=2, got %v", snap.TasksExecuted)
	}
	if snap.Steals != 1 {
		t.Fatalf("expected Steals=1, got %v", snap.Steals)
	}
	if snap.Wakes != 0 {
		t.Fatalf("expected Wakes=0, got %v", snap.Wakes)
	}
}

func TestTwoSchedulersDoNotCollide(t *testing.T) {
	a := New()
	b := New()
	a.Wakes.Inc()
	if got := b.Snapshot().Wakes; got != 0 {
		t.Fatalf("b's private registry should be unaffected by a, got %v", got)
	}
}

func TestGatherReturnsFiveFamilies(t *testing.T) {
	m := New()
	families, err := m.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if len(families) != 5 {
		t.Fatalf("expected 5 metric families, got %d", len(families))
	}
}
