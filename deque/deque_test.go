package deque

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"
)

func token(n int) unsafe.Pointer {
	v := int64(n)
	return unsafe.Pointer(&v)
}

func tokenValue(p unsafe.Pointer) int64 {
	return *(*int64)(p)
}

func TestPushPopLIFO(t *testing.T) {
	d := New(minCapacity, nil)
	for i := 0; i < 10; i++ {
		d.Push(token(i))
	}
	for i := 9; i >= 0; i-- {
		p := d.Pop()
		if p == nil {
			t.Fatalf("expected item, got nil at i=%d", i)
		}
		if got := tokenValue(p); got != int64(i) {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
	if d.Pop() != nil {
		t.Fatal("expected empty deque")
	}
}

func TestStealFIFO(t *testing.T) {
	d := New(minCapacity, nil)
	for i := 0; i < 10; i++ {
		d.Push(token(i))
	}
	for i := 0; i < 10; i++ {
		p := d.Steal()
		if p == nil {
			t.Fatalf("expected item, got nil at i=%d", i)
		}
		if got := tokenValue(p); got != int64(i) {
			t.Fatalf("expected %d (FIFO from thief end), got %d", i, got)
		}
	}
	if d.Steal() != nil {
		t.Fatal("expected empty deque")
	}
}

func TestGrowPreservesContents(t *testing.T) {
	d := New(minCapacity, nil)
	n := int(minCapacity) * 4
	for i := 0; i < n; i++ {
		d.Push(token(i))
	}
	seen := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		p := d.Pop()
		if p == nil {
			t.Fatalf("expected item at i=%d", i)
		}
		seen = append(seen, tokenValue(p))
	}
	for i := 0; i < n; i++ {
		want := int64(n - 1 - i)
		if seen[i] != want {
			t.Fatalf("at i=%d expected %d, got %d", i, want, seen[i])
		}
	}
}

// TestStealingRacePreservesMultiset is spec §8's "Deque linearizability"
// property / scenario 5: owner pushes N distinct tokens, several thieves
// steal concurrently with owner pops, and the union of popped+stolen
// tokens must equal the pushed multiset exactly once.
func TestStealingRacePreservesMultiset(t *testing.T) {
	const n = 20000
	const thieves = 8

	d := New(minCapacity, nil)
	for i := 0; i < n; i++ {
		d.Push(token(i))
	}

	var collected sync.Map // int64 -> struct{}
	var count atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < thieves; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				p := d.Steal()
				if p == nil {
					if count.Load() >= n {
						return
					}
					continue
				}
				v := tokenValue(p)
				if _, dup := collected.LoadOrStore(v, struct{}{}); dup {
					t.Errorf("token %d observed twice", v)
				}
				count.Add(1)
			}
		}()
	}

	for {
		p := d.Pop()
		if p == nil {
			if count.Load() >= n {
				break
			}
			continue
		}
		v := tokenValue(p)
		if _, dup := collected.LoadOrStore(v, struct{}{}); dup {
			t.Errorf("token %d observed twice", v)
		}
		count.Add(1)
		if count.Load() >= n {
			break
		}
	}
	wg.Wait()

	var got []int64
	collected.Range(func(k, _ any) bool {
		got = append(got, k.(int64))
		return true
	})
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if len(got) != n {
		t.Fatalf("expected %d distinct tokens, got %d", n, len(got))
	}
	for i, v := range got {
		if v != int64(i) {
			t.Fatalf("missing token %d in result set", i)
		}
	}
}

func TestEmpty(t *testing.T) {
	d := New(minCapacity, nil)
	if !d.Empty() {
		t.Fatal("fresh deque should be empty")
	}
	d.Push(token(1))
	if d.Empty() {
		t.Fatal("deque with one item should not be empty")
	}
	d.Pop()
	if !d.Empty() {
		t.Fatal("deque should be empty after popping its only item")
	}
}
