package benchlog

import (
	"path/filepath"
	"testing"
)

func TestRecordAndRecent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.db")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer l.Close()

	if err := l.Record("trie_insert", 1000.0, 5); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.Record("trie_insert", 1100.0, 6); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.Record("skiplist_emplace", 500.0, 0); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	recent, err := l.Recent("trie_insert", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 samples for trie_insert, got %d", len(recent))
	}
	seen := map[float64]bool{recent[0]: true, recent[1]: true}
	if !seen[1000.0] || !seen[1100.0] {
		t.Fatalf("expected both recorded samples present, got %v", recent)
	}
}

func TestRecentWithNoSamples(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "bench.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer l.Close()

	recent, err := l.Recent("nonexistent", 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected no samples, got %v", recent)
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "bench.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer l.Close()

	for i := 0; i < 5; i++ {
		if err := l.Record("probe", float64(i), 0); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	recent, err := l.Recent("probe", 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(recent))
	}
}
