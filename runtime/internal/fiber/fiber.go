// Package fiber implements ARNm's process-level cooperative scheduling
// primitive. Spec §9 ("Coroutine-style control flow") permits either
// (a) hand-rolled stacks and register-level context switches, or (b)
// modeling each process as a single cooperative task whose suspension
// points match §5 (receive, explicit yield, process exit). This
// implementation takes option (b): Go already provides a safe,
// GC-aware M:N goroutine scheduler, so re-deriving raw rsp/rbp context
// switches in hand-written assembly on top of it would fight the
// runtime rather than use it. A Context is therefore a goroutine
// plus an unbuffered resume channel; Resume hands control to the
// fiber and Wait blocks the fiber until its next Resume — the
// save-caller/load-callee shape the spec describes for register
// switching, expressed as a channel handoff instead of a register
// save.
//
// No teacher analogue exists for this component (std/runtime/runtime.go
// is single-threaded); the channel-handoff shape is grounded in the
// spec's own fallback clause rather than in any retrieved example.
package fiber

// Context is one suspendable unit of execution. The zero value is not
// usable; use NewContext.
type Context struct {
	resume chan struct{}
}

// NewContext allocates a Context. The caller must arrange for exactly
// one goroutine to run the fiber's body, blocking on Wait at every
// suspension point and being unblocked only via Resume from the
// scheduler.
func NewContext() *Context {
	return &Context{resume: make(chan struct{})}
}

// Start launches body as the fiber's goroutine. The goroutine blocks
// on the first Resume before running body, so that it only actually
// runs while holding the conceptual "current" slot a single worker
// dedicates to it.
func Start(ctx *Context, body func()) {
	go func() {
		<-ctx.resume
		body()
	}()
}

// Resume hands control to ctx's goroutine and returns immediately;
// the caller does not block on the fiber finishing its turn. Pair with
// a rendezvous channel in the caller (see runtime.Scheduler) to learn
// when the fiber yields back.
func Resume(ctx *Context) {
	ctx.resume <- struct{}{}
}

// Wait blocks the calling fiber's goroutine until the next Resume.
// Processes call this at receive/yield suspension points.
func Wait(ctx *Context) {
	<-ctx.resume
}
