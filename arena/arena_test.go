package arena

import "testing"

func TestAllocateWithinSlab(t *testing.T) {
	a := New()
	p1 := a.Allocate(8)
	p2 := a.Allocate(8)
	if p1 == p2 {
		t.Fatalf("expected distinct allocations, got same pointer")
	}
}

func TestAllocateGrowsAcrossSlabs(t *testing.T) {
	a := New()
	// Force at least one grow by requesting more than the initial slab.
	big := a.Allocate(initialSlabSize + 1)
	if big == nil {
		t.Fatal("expected non-nil allocation after grow")
	}
	if len(a.head.data) < initialSlabSize+1 {
		t.Fatalf("head slab too small after grow: %d", len(a.head.data))
	}
	if a.head.predecessor == nil {
		t.Fatal("expected grow to chain the old head as predecessor")
	}
}

func TestAdvanceResetsAndDropsPredecessors(t *testing.T) {
	a := New()
	a.Allocate(initialSlabSize + 1) // grow once
	if a.head.predecessor == nil {
		t.Fatal("setup: expected a predecessor before Advance")
	}
	a.Advance()
	if a.head.predecessor != nil {
		t.Fatal("Advance should drop every predecessor slab")
	}
	if a.head.begin != 0 {
		t.Fatalf("Advance should reset head.begin to 0, got %d", a.head.begin)
	}
}

func TestAllocateObjectAndSlice(t *testing.T) {
	a := New()
	type point struct{ x, y int64 }
	p := AllocateObject[point](a)
	if p.x != 0 || p.y != 0 {
		t.Fatal("expected zeroed object")
	}
	p.x, p.y = 1, 2

	s := AllocateSlice[int64](a, 4)
	if len(s) != 4 {
		t.Fatalf("expected length 4, got %d", len(s))
	}
	for i, v := range s {
		if v != 0 {
			t.Fatalf("slice element %d not zeroed: %d", i, v)
		}
	}
	s[0] = 42
	if s[0] != 42 {
		t.Fatal("slice element not writable")
	}
}

func TestAllocateSliceZeroLength(t *testing.T) {
	a := New()
	s := AllocateSlice[int](a, 0)
	if s != nil {
		t.Fatalf("expected nil slice for n=0, got %v", s)
	}
}
