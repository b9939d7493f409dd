// Package task defines the forkjoin runtime's continuation task type: the
// unit of work a worker pops, steals, and runs to its next suspension
// point.
//
// Go has no native stackful coroutines, so a Task is the explicit
// state-machine rendering the spec calls for: a frame holding a step
// function pointer, the task's parent latch, and whatever closure state
// the task body captured. "Resuming" a Task just means calling its Step
// function again; "suspending" means Step returns after having arranged,
// via a latch continuation, for some future call to resume it.
//
// Task intentionally does not import the scheduler package. A task body
// needs to push new tasks onto the deque of whichever worker happens to
// be resuming it (not the worker that forked it), so Resume takes a
// Scheduler capability — the narrow interface any worker satisfies — and
// passes it to the step function. This mirrors the reclamation hook's own
// capability-interface shape (package gc): one method, implemented
// directly by the concrete type that needs to play the role, no
// inheritance hierarchy.
package task

import "github.com/archonlabs/forkjoin/latch"

// Scheduler is the capability a task body needs from whatever worker is
// currently resuming it: somewhere to push newly forked tasks, and
// somewhere to carve their frames from. NewTask returns a zeroed Task
// frame allocated by whatever backs the calling worker — its arena, in
// the real scheduler — so that forking, the dominant operation per spec
// §1's "millions of small continuation-style tasks", never touches the
// Go heap.
type Scheduler interface {
	Push(*Task)
	NewTask() *Task
}

// Step is a task's resume function. s is the worker currently resuming
// the task — bodies that fork children push them via s, not via whatever
// worker originally constructed the Task.
type Step func(s Scheduler, t *Task)

// Task is the runtime's coroutine frame. Parent is nil for a synthetic
// root task that drives a top-level operation with nothing to join back
// into.
type Task struct {
	step   Step
	Parent *latch.Latch
}

// New constructs a Task with the given parent latch and initial step.
// Construction doubles as fork registration: the caller is expected to
// have already called parent.Fork() (a nil parent marks a root task).
func New(parent *latch.Latch, step Step) *Task {
	return &Task{step: step, Parent: parent}
}

// Resume runs the task's current step with s as its scheduling
// capability. The scheduler's worker loop is the only caller.
func (t *Task) Resume(s Scheduler) {
	t.step(s, t)
}

// Rebind installs next as the step a future Resume will run — the
// "suspend" half of the coroutine protocol. A body that forks children
// calls Rebind with its join logic before returning, so that once the
// children's latch fires, the next Resume runs the join step instead of
// re-running the fork step.
func (t *Task) Rebind(next Step) {
	t.step = next
}

// Spawn registers a fork against parent and returns a new Task with the
// given initial step, ready to be pushed onto some worker's deque. It is
// the combined "parent.Fork(); task.New(...)" pattern every fork site
// uses, per spec §4.E's task construction doubling as fork registration.
//
// Spawn always allocates the frame on the Go heap. It exists for the
// handful of call sites that have no Scheduler in hand yet — a
// synchronous caller starting a root fork/join phase before the task has
// ever touched a worker (see trie.ParallelGenerate, ParallelMergeRight).
// Every fork made from inside a running task body, where a Scheduler is
// always available, uses SpawnVia instead so the frame comes from the
// resuming worker's own arena per spec §4.E "Task allocation comes from
// the arena."
func Spawn(parent *latch.Latch, step Step) *Task {
	if parent != nil {
		parent.Fork()
	}
	return New(parent, step)
}

// From installs parent and step into mem, a Task frame already allocated
// (typically via Scheduler.NewTask), and returns it ready to push. Unlike
// New, it performs no allocation of its own.
func From(mem *Task, parent *latch.Latch, step Step) *Task {
	mem.step = step
	mem.Parent = parent
	return mem
}

// SpawnVia is Spawn generalized to carve the new Task's frame from s
// instead of the Go heap: s.NewTask allocates from whatever arena backs
// the worker currently resuming the caller, so the fork never reaches the
// general-purpose allocator.
func SpawnVia(s Scheduler, parent *latch.Latch, step Step) *Task {
	if parent != nil {
		parent.Fork()
	}
	return From(s.NewTask(), parent, step)
}

// pusherAdapter adapts a Scheduler (Push(*Task)) into a latch.Pusher:
// pushing a continuation means wrapping it as a new, parentless root Task
// and pushing that, so whichever worker pops it later resumes the
// continuation with a fresh Scheduler of its own — exactly the trick
// Finish already needs for the outermost latch in a fork/join chain, now
// shared with any nested latch a continuation wants to push through. The
// wrapper frame itself comes from s.NewTask, not the heap: a join
// continuation firing is just as much "discovering new work" as any other
// fork.
type pusherAdapter struct{ s Scheduler }

func (p pusherAdapter) PushContinuation(cont latch.Continuation) {
	p.s.Push(From(p.s.NewTask(), nil, func(s Scheduler, t *Task) { cont(pusherAdapter{s}) }))
}

// Finish runs t's final suspend: it decrements t.Parent (if non-nil) and,
// if that was the parent latch's last outstanding completion, schedules
// the latch's continuation as a new root task on s instead of running it
// inline — so the resuming worker returns to its loop and can go steal
// other work rather than unwinding an arbitrary call depth of
// continuations on its own stack.
func Finish(s Scheduler, t *Task) {
	FinishVia(pusherAdapter{s}, t)
}

// FinishVia is Finish generalized to any latch.Pusher, not just a
// Scheduler directly in hand. A continuation that itself completes a
// nested fork (the common shape for a recursive parallel operation: each
// level's join step reports into its parent's latch) calls this with the
// Pusher it was resumed with, instead of Finish, since it has no raw
// Scheduler of its own — only the capability to push further work.
func FinishVia(p latch.Pusher, t *Task) {
	if t.Parent == nil {
		return
	}
	t.Parent.Complete(func(cont latch.Continuation) {
		p.PushContinuation(cont)
	})
}
