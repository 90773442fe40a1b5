package runtime

import "fmt"

// This file documents and implements the Go-side surface of spec
// §4.11's runtime ABI. The spec's C signatures resolve "the calling
// process" through thread-local storage (e.g. arnm_self() takes no
// argument); this Go implementation instead threads the calling
// *Process explicitly through every call, since idiomatic Go has no
// goroutine-local storage and each process already runs as its own
// goroutine with the *Process closed over its entry call (see
// process.go's fiberStart). A real cgo-linked build pairs these with a
// small TLS shim at the assembly call boundary; the semantics above
// that boundary are unchanged.

// ArnmSpawn implements arnm_spawn(entry, arg, state_size) -> *Process.
func (s *Scheduler) ArnmSpawn(entry Entry, arg uint64, stateSize uint64) *Process {
	return s.Spawn(entry, arg, stateSize)
}

// ArnmSend implements arnm_send(target, tag, data, size): build a
// message (copying data into a fresh msg.Data buffer, the
// deep-copy-on-send contract of spec §5), enqueue it, and wake the
// target if parked.
func (s *Scheduler) ArnmSend(target *Process, tag int64, data []byte) {
	var payload []byte
	if len(data) > 0 {
		payload = make([]byte, len(data))
		copy(payload, data)
	}
	target.Mailbox.Send(&Message{Tag: tag, Data: payload})
	s.wake(target)
}

// ArnmReceive implements arnm_receive(_) -> *Message for the calling
// process self.
func ArnmReceive(self *Process) *Message { return self.Receive() }

// ArnmSelf implements arnm_self() -> *Process.
func ArnmSelf(self *Process) *Process { return self.Self() }

// ArnmSchedYield implements arnm_sched_yield().
func ArnmSchedYield(self *Process) { self.Yield() }

// ArnmPrintInt implements arnm_print_int(v): write v followed by a
// newline to standard output (spec §4.11, debug only).
func ArnmPrintInt(v int64) {
	fmt.Printf("%d\n", v)
}

// ArnmArrayLen implements arnm_array_len(ptr) -> i64, a runtime
// intrinsic the IR generator's `for ident in expr` lowering relies on
// (see DESIGN.md) but that spec §4.11's ABI list does not itself name.
// Arrays are represented as a length-prefixed byte buffer: the first
// word is the element count.
func ArnmArrayLen(ptr []byte) int64 {
	if len(ptr) < 8 {
		return 0
	}
	var n int64
	for i := 7; i >= 0; i-- {
		n = n<<8 | int64(ptr[i])
	}
	return n
}
