// Package gc defines the narrow capability interface the runtime's
// structures use to talk to an external tracing collector.
//
// The runtime never implements a collector itself (the source's tracing GC
// is explicitly out of scope); it only specifies the two mutator-side hooks
// a collector needs, and the discipline under which they are called:
// "once a reference is published via a release store, readers may observe
// it until the next quiescence." Any reclamation strategy that honors
// that discipline — a real tracing collector, Go's own garbage collector,
// or a no-op — satisfies this interface.
package gc

// Shader is implemented by anything a write barrier can mark gray: a
// reference that was just overwritten (and so may still be reachable from
// an in-flight reader) is handed to Shade instead of being freed.
type Shader interface {
	Shade()
}

// Scanner is implemented by node kinds the collector needs to walk. Scan
// calls visit once per outgoing reference; leaf nodes with no outgoing
// references (trie values, the deque's circular array) implement Scan as
// a no-op.
type Scanner interface {
	Scan(visit func(Shader))
}

// Handshake is the collector's periodic safe-point hook. The runtime calls
// it at phase boundaries (arena.Advance, scheduler quiescence) so a
// collector that needs cooperative safe-points has somewhere to run.
// Nil is a legal collector: the zero value of Collector below is a no-op.
type Handshake func()

// Collector bundles the hooks a caller wants invoked; all fields are
// optional. The zero value performs no reclamation bookkeeping at all,
// which is correct when the host process relies on Go's own garbage
// collector and only wants the Scan/Shade capability wired through for
// a future external collector.
type Collector struct {
	ShadeFn     func(Shader)
	Handshake   Handshake
}

// Shade forwards to c.ShadeFn if set; nil Collector and nil ShadeFn are
// both legal no-ops.
func (c *Collector) Shade(s Shader) {
	if c == nil || c.ShadeFn == nil {
		return
	}
	c.ShadeFn(s)
}

// Tick forwards to c.Handshake if set.
func (c *Collector) Tick() {
	if c == nil || c.Handshake == nil {
		return
	}
	c.Handshake()
}
