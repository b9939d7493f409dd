package testutil

import "testing"

func TestKVStreamDigestOrderIndependent(t *testing.T) {
	pairs := [][2]uint64{{1, 10}, {2, 20}, {3, 30}}
	toBytes := func(v uint64) []byte {
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	}

	forward := KVStreamDigest(func(yield func(uint64, []byte)) {
		for _, p := range pairs {
			yield(p[0], toBytes(p[1]))
		}
	})
	reversed := KVStreamDigest(func(yield func(uint64, []byte)) {
		for i := len(pairs) - 1; i >= 0; i-- {
			yield(pairs[i][0], toBytes(pairs[i][1]))
		}
	})
	if forward != reversed {
		t.Fatalf("digest should be order-independent: forward=%x reversed=%x", forward, reversed)
	}
}

func TestKVStreamDigestDiffersOnDifferentContent(t *testing.T) {
	d1 := KVStreamDigest(func(yield func(uint64, []byte)) { yield(1, []byte{1}) })
	d2 := KVStreamDigest(func(yield func(uint64, []byte)) { yield(1, []byte{2}) })
	if d1 == d2 {
		t.Fatal("different values should produce different digests")
	}
}

func TestSubtreeDigestDeterministic(t *testing.T) {
	encode := func(h func([]byte)) {
		h([]byte("abc"))
		h([]byte("def"))
	}
	d1 := SubtreeDigest(encode)
	d2 := SubtreeDigest(encode)
	if d1 != d2 {
		t.Fatal("SubtreeDigest should be deterministic for identical encodings")
	}
}

func TestSubtreeDigestDiffersOnDifferentContent(t *testing.T) {
	d1 := SubtreeDigest(func(h func([]byte)) { h([]byte("a")) })
	d2 := SubtreeDigest(func(h func([]byte)) { h([]byte("b")) })
	if d1 == d2 {
		t.Fatal("different encodings should produce different digests")
	}
}
