// Package runtime implements ARNm's execution core (spec §4.8-§4.11,
// C11-C14): processes, the MPSC mailbox (mailbox.go), the M:N
// work-stealing scheduler (this file), and the runtime ABI (abi.go).
//
// No teacher analogue exists for any of this — std/runtime/runtime.go
// is a single-threaded bump allocator with no concurrency. The
// scheduler's global overflow queue is grounded in
// code.hybscloud.com/lfq's pointer-queue variant (BuildPtr, see its
// doc.go in the retrieved corpus), chosen over a hand-rolled
// implementation because, unlike the mailbox, the spec does not treat
// the global run queue's internal algorithm as the thing under test —
// any correct concurrent queue satisfies §4.10. Each worker's local
// run queue stays a plain mutex-guarded slice rather than a literal
// Chase-Lev deque (spec §5: "the usual atomic operations... or
// equivalent"); see DESIGN.md for why the lock-free version was not
// attempted here. Logging uses zerolog at debug level so a normal run
// stays silent, matching spec §7's "the runtime prints nothing and
// terminates via the operating system on a crash". NewFromEnv applies
// spec §6's ARNM_WORKERS override so callers that want the default
// sizing behavior don't have to read the environment themselves.
package runtime

import (
	"math/rand"
	"os"
	goruntime "runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"code.hybscloud.com/lfq"
	"github.com/rs/zerolog"
)

const globalQueueCapacity = 4096

type localQueue struct {
	mu    sync.Mutex
	items []*Process
}

func (q *localQueue) pushOwn(p *Process) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.mu.Unlock()
}

func (q *localQueue) popOwn() *Process {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	p := q.items[0]
	q.items = q.items[1:]
	return p
}

// steal removes one item from the tail, per spec §4.10 ("pops from
// the tail of the peer's deque").
func (q *localQueue) steal() *Process {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if n == 0 {
		return nil
	}
	p := q.items[n-1]
	q.items = q.items[:n-1]
	return p
}

type worker struct {
	id       int
	local    localQueue
	runCount atomic.Int64
}

// ptrQueue is the subset of code.hybscloud.com/lfq's pointer-queue API
// (lfq.NewMPMCPtr) the scheduler relies on, named locally so this file
// depends on the documented method shape rather than an exact
// generated interface name.
type ptrQueue interface {
	Enqueue(unsafe.Pointer) error
	Dequeue() (unsafe.Pointer, error)
}

// Scheduler is the M:N scheduler: num_workers OS-thread-backed
// goroutines, each with a local run queue, draining a shared global
// overflow queue and a wait set of parked processes (spec §4.10).
type Scheduler struct {
	workers []*worker
	global  ptrQueue

	waitMu sync.Mutex
	waitSet map[uint64]*Process

	activeProcs atomic.Int64
	nextPID     atomic.Uint64
	shutdown    atomic.Bool

	wg  sync.WaitGroup
	log zerolog.Logger
}

// NewFromEnv creates a Scheduler sized per spec §6: ARNM_WORKERS
// overrides the worker count when set to an integer; when it is unset
// or does not parse, the detected CPU count is used. Either way the
// result is bounded to at least 1 worker (an override of 0 or less
// gives 1).
func NewFromEnv() *Scheduler {
	n := goruntime.NumCPU()
	if v := os.Getenv("ARNM_WORKERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			n = parsed
		}
	}
	return New(n)
}

// New creates a Scheduler with numWorkers workers. Callers that want
// spec §6's ARNM_WORKERS/CPU-count defaulting should use NewFromEnv
// instead.
func New(numWorkers int) *Scheduler {
	if numWorkers < 1 {
		numWorkers = 1
	}
	s := &Scheduler{
		global:  lfq.NewMPMCPtr(globalQueueCapacity),
		waitSet: make(map[uint64]*Process),
		log:     zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel).With().Timestamp().Logger(),
	}
	for i := 0; i < numWorkers; i++ {
		s.workers = append(s.workers, &worker{id: i})
	}
	return s
}

// Spawn implements process_create (spec §4.8): allocate the process,
// assign a pid, enqueue it Ready, and return it. The caller supplies
// entry/arg, matching arnm_spawn's (entry_fn_ptr, arg_word) contract.
func (s *Scheduler) Spawn(entry Entry, arg uint64, stateSize uint64) *Process {
	pid := s.nextPID.Add(1)
	p := newProcess(pid, stateSize)
	p.sched = s
	s.activeProcs.Add(1)
	fiberStart(p, entry, arg)

	s.log.Debug().Uint64("pid", pid).Msg("spawned")
	s.enqueueGlobal(p)
	return p
}

func (s *Scheduler) enqueueGlobal(p *Process) {
	for {
		if err := s.global.Enqueue(unsafe.Pointer(p)); err == nil || !lfq.IsWouldBlock(err) {
			return
		}
		time.Sleep(time.Microsecond)
	}
}

func (s *Scheduler) popGlobal() *Process {
	ptr, err := s.global.Dequeue()
	if err != nil {
		return nil
	}
	return (*Process)(ptr)
}

func (s *Scheduler) addWaiting(p *Process) {
	s.waitMu.Lock()
	s.waitSet[p.PID] = p
	s.waitMu.Unlock()
}

func (s *Scheduler) removeWaiting(p *Process) {
	s.waitMu.Lock()
	delete(s.waitSet, p.PID)
	s.waitMu.Unlock()
}

// wake implements the send-to-waiting transition (spec §4.9/§4.10):
// atomic Waiting -> Ready, then re-enqueue. Per spec this should
// prefer the sender's local queue; this implementation always uses the
// global queue, a documented simplification (see DESIGN.md) since the
// sender's worker identity is not threaded through Send's signature.
func (s *Scheduler) wake(p *Process) {
	if !p.casState(StateWaiting, StateReady) {
		return
	}
	s.removeWaiting(p)
	s.enqueueGlobal(p)
}

// Run starts all workers and blocks until shutdown (spec §4.10).
func (s *Scheduler) Run() {
	for _, w := range s.workers {
		s.wg.Add(1)
		go s.workerLoop(w)
	}
	s.wg.Wait()
}

func (s *Scheduler) workerLoop(w *worker) {
	defer s.wg.Done()
	idleRounds := 0
	for {
		next := w.local.popOwn()
		if next == nil {
			next = s.popGlobal()
		}
		if next == nil {
			next = s.stealFrom(w)
		}
		if next == nil {
			if s.activeProcs.Load() == 0 {
				s.log.Debug().Int("worker", w.id).Msg("shutdown")
				return
			}
			idleRounds++
			if idleRounds > 1000 {
				time.Sleep(time.Millisecond)
			} else {
				goruntime.Gosched()
			}
			continue
		}
		idleRounds = 0
		s.runOnce(w, next)
	}
}

// stealFrom tries a bounded number of random peers (spec §4.10: "the
// number of attempts per starvation interval is bounded").
func (s *Scheduler) stealFrom(self *worker) *Process {
	n := len(s.workers)
	if n <= 1 {
		return nil
	}
	attempts := n
	if attempts > 4 {
		attempts = 4
	}
	for i := 0; i < attempts; i++ {
		peer := s.workers[rand.Intn(n)]
		if peer == self {
			continue
		}
		if p := peer.local.steal(); p != nil {
			return p
		}
	}
	return nil
}

// runOnce resumes p for one scheduling turn and applies the resulting
// transition, per spec §4.10's per-worker loop step 4.
func (s *Scheduler) runOnce(w *worker, p *Process) {
	p.setState(StateRunning)
	w.runCount.Add(1)
	fiberResume(p)
	ev := <-p.control
	switch ev {
	case ctrlYield:
		p.setState(StateReady)
		w.local.pushOwn(p)
	case ctrlPark:
		p.setState(StateWaiting)
		s.addWaiting(p)
	case ctrlExit:
		p.setState(StateDead)
		s.activeProcs.Add(-1)
		s.log.Debug().Uint64("pid", p.PID).Msg("exited")
	}
}

// RunCount exposes a worker's completed-turn count (spec §8's
// "work-stealing" testable property: "both workers' run_count
// grows").
func (s *Scheduler) RunCount(workerIdx int) int64 {
	return s.workers[workerIdx].runCount.Load()
}
