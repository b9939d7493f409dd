// Package diag produces a point-in-time JSON snapshot of a running
// scheduler for debug dumps — never part of the core scheduling algorithm,
// and never a wire format or persisted application state (spec §6: "there
// is no file format, wire protocol, or persisted state").
//
// Grounded on the teacher repository's own use of sonnet as a drop-in,
// faster encoding/json replacement (see syncharvester.go's
// sonnet.Unmarshal of RPC responses): diag uses the encode half of the
// same library for the same reason the teacher uses the decode half —
// it is on a path (a debug/test dump) that runs often enough in a stress
// test or benchmark loop that encoding/json's allocation profile would
// show up in profiles the teacher doesn't want cluttered by this.
package diag

import (
	"github.com/sugawarayuuta/sonnet"

	"github.com/archonlabs/forkjoin/metrics"
	"github.com/archonlabs/forkjoin/scheduler"
)

// Snapshot is the JSON-serializable view of a scheduler's counters at one
// instant, plus whatever structural counts the caller wants to attach
// (trie size, skiplist length) — the core itself has no notion of
// "snapshot", this package only packages up a metrics.Snapshot for
// dumping.
type Snapshot struct {
	Workers int               `json:"workers"`
	Metrics metrics.Snapshot  `json:"metrics"`
	Extra   map[string]uint64 `json:"extra,omitempty"`
}

// Dump encodes snap as JSON using sonnet's faster Marshal, matching the
// teacher's own choice of JSON library for this codebase's hot decode
// paths, applied here to the symmetric encode case.
func Dump(snap Snapshot) ([]byte, error) {
	return sonnet.Marshal(snap)
}

// Parse decodes a Dump'd snapshot back into a Snapshot, for tests that
// round-trip a dump.
func Parse(data []byte) (Snapshot, error) {
	var snap Snapshot
	err := sonnet.Unmarshal(data, &snap)
	return snap, err
}

// Capture builds a Snapshot from a running scheduler's worker count and
// metrics sink. If s has no metrics wired (WithMetrics was never passed
// to scheduler.Start), Metrics is the zero Snapshot.
func Capture(s *scheduler.Scheduler, extra map[string]uint64) Snapshot {
	snap := Snapshot{Workers: s.NumWorkers(), Extra: extra}
	if m := s.Metrics(); m != nil {
		snap.Metrics = m.Snapshot()
	}
	return snap
}
