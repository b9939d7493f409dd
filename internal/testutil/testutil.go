// Package testutil provides content-fingerprinting helpers shared by the
// trie and skiplist property tests (spec §8 "Structural sharing",
// "Parallel equivalence").
//
// Grounded on the teacher repository's own use of golang.org/x/crypto/sha3
// in router/update_test.go (a seeded sha3.Sum256 digest used to generate
// deterministic test fixtures) and on the rest of the retrieval pack's use
// of cespare/xxhash for fast, allocation-light fingerprinting of streamed
// key/value pairs (see inngest-inngest's pkg/util/hash.go). Neither
// algorithm needs to be cryptographically strong here — they're used to
// compare two large key/value streams without holding both in memory as
// maps, not for anything security-sensitive.
package testutil

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/sha3"
)

// KVStreamDigest folds every (key, value) pair visit emits into a single
// xxhash fingerprint, order-independent (pairs are combined with XOR so
// that two streams visiting the same multiset in different orders produce
// the same digest) — exactly what the parallel-equivalence property test
// (spec §8 scenario 3) needs to compare a parallel merge's output against
// a sequential one without materializing either as a map.
func KVStreamDigest(visit func(yield func(key uint64, value []byte))) uint64 {
	var acc uint64
	var buf [8]byte
	visit(func(key uint64, value []byte) {
		h := xxhash.New()
		binary.LittleEndian.PutUint64(buf[:], key)
		h.Write(buf[:])
		h.Write(value)
		acc ^= h.Sum64()
	})
	return acc
}

// SubtreeDigest computes a sha3-256 digest over the byte chunks encode
// feeds it. The trie tests feed it a root's (key, value) pairs in
// ascending order, to assert that two roots built independently
// nonetheless hold identical content (a weaker, content-based check, distinct from the pointer-identity check
// structural sharing itself demands — see the trie package's own tests for
// the pointer-identity assertion).
func SubtreeDigest(encode func(h func([]byte))) [32]byte {
	hasher := sha3.New256()
	encode(func(b []byte) { hasher.Write(b) })
	var out [32]byte
	hasher.Sum(out[:0])
	return out
}
