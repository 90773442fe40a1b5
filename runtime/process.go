package runtime

import (
	"sync/atomic"

	"github.com/arnm-lang/arnm/runtime/internal/fiber"
)

// State is a process's scheduling state (spec §4.8/§4.10).
type State int32

const (
	StateReady State = iota
	StateRunning
	StateWaiting
	StateDead
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateDead:
		return "dead"
	}
	return "?"
}

// DefaultStackSize is the spec §4.8 default fiber stack size. Kept as
// a documented constant even though the goroutine-based fiber (see
// runtime/internal/fiber) delegates real stack allocation to the Go
// runtime; ARNM_STACK_SIZE-style tuning would plug in here if the
// spec's hand-rolled-stack option were chosen instead.
const DefaultStackSize = 64 * 1024

// Process is one ARNm actor instance: saved execution context, owned
// actor-state bytes, and an owned mailbox. Grounded in spec §4.8/§9
// ("a process holds a pointer to its actor state (owned), a pointer to
// its mailbox (owned), and can be referenced by any number of other
// processes via their local variables (non-owning)"). No teacher
// analogue: std/runtime/runtime.go has no process concept at all.
type Process struct {
	PID   uint64
	state atomic.Int32

	ActorState []byte
	Mailbox    *Mailbox

	ctx     *fiber.Context
	control chan ctrlEvent

	sched *Scheduler
}

// ctrlEvent is what a process's goroutine reports back to the worker
// at each suspension point (spec §5: receive, explicit yield, process
// exit).
type ctrlEvent int

const (
	ctrlYield ctrlEvent = iota
	ctrlPark
	ctrlExit
)

// fiberStart lazily launches p's goroutine on first spawn, wiring its
// body to report yield/park/exit back to the scheduler through
// p.control and to block via fiber.Wait between turns.
func fiberStart(p *Process, entry Entry, arg uint64) {
	fiber.Start(p.ctx, func() {
		entry(p, arg)
		p.control <- ctrlExit
	})
}

func fiberResume(p *Process) {
	fiber.Resume(p.ctx)
}

// Yield implements arnm_sched_yield (spec §4.10/§4.11): the process
// transitions Running -> Ready and control returns to the scheduler;
// execution resumes here on the process's next scheduled turn.
func (p *Process) Yield() {
	p.control <- ctrlYield
	fiber.Wait(p.ctx)
}

// Receive implements arnm_receive (spec §4.11): loop try_receive; on
// empty, park and yield; on non-empty, return the message.
func (p *Process) Receive() *Message {
	for {
		if msg, ok := p.Mailbox.TryReceive(); ok {
			return msg
		}
		p.control <- ctrlPark
		fiber.Wait(p.ctx)
	}
}

// Self implements arnm_self: trivial once the calling process is known
// explicitly (see runtime ABI note in abi.go).
func (p *Process) Self() *Process { return p }

func (p *Process) State() State { return State(p.state.Load()) }

func (p *Process) setState(s State) { p.state.Store(int32(s)) }

// casState performs the scheduler's atomic state transitions (spec
// §4.9: "the transition is observable via an atomic CAS on the state
// word").
func (p *Process) casState(from, to State) bool {
	return p.state.CompareAndSwap(int32(from), int32(to))
}

// Entry is the signature generated code's entry functions present to
// the runtime: a single packed argument word per spec §4.6's
// arnm_spawn contract.
type Entry func(self *Process, arg uint64)

// newProcess allocates process state per spec §4.8 steps 1-3 (state
// allocation, mailbox init) and step 5 (pid, Ready state); step 4 (the
// trampoline context) is wired by Scheduler.Spawn via fiberStart
// immediately after, before any worker has been chosen to run it.
func newProcess(pid uint64, stateSize uint64) *Process {
	p := &Process{
		PID:     pid,
		Mailbox: NewMailbox(),
		ctx:     fiber.NewContext(),
		control: make(chan ctrlEvent),
	}
	if stateSize > 0 {
		p.ActorState = make([]byte, stateSize)
	}
	p.setState(StateReady)
	return p
}
