package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnm-lang/arnm/internal/ast"
	"github.com/arnm-lang/arnm/internal/parser"
	"github.com/arnm-lang/arnm/internal/sema"
)

func check(t *testing.T, src string) *sema.Analyzer {
	t.Helper()
	arena := ast.NewArena()
	p := parser.New([]byte(src), arena)
	prog := p.Parse()
	require.False(t, p.HadError(), "%v", p.Diagnostics())
	a := sema.New()
	a.Check(prog)
	return a
}

func TestWellTypedProgramHasNoErrors(t *testing.T) {
	a := check(t, `
fn add(a: i32, b: i32) -> i32 {
	return a + b;
}

fn main() {
	let x = add(1, 2);
	print(x);
}`)
	assert.False(t, a.HadError(), "%v", a.Diagnostics())
}

func TestMismatchedArgumentCountIsReported(t *testing.T) {
	a := check(t, `
fn add(a: i32, b: i32) -> i32 { return a + b; }
fn main() { add(1); }`)
	assert.True(t, a.HadError())
}

func TestBareActorFieldAccessRequiresSelfPrefix(t *testing.T) {
	a := check(t, `
actor Counter {
	let mut count: i32 = 0;
	fn bump() { count = count + 1; }
}`)
	assert.True(t, a.HadError())
}

func TestSelfPrefixedFieldAccessIsAccepted(t *testing.T) {
	a := check(t, `
actor Counter {
	let mut count: i32 = 0;
	fn bump() { self.count = self.count + 1; }
}`)
	assert.False(t, a.HadError(), "%v", a.Diagnostics())
}

func TestBreakOutsideLoopIsReported(t *testing.T) {
	a := check(t, `fn f() { break; }`)
	assert.True(t, a.HadError())
}

func TestBreakInsideLoopIsAccepted(t *testing.T) {
	a := check(t, `fn f() { loop { break; } }`)
	assert.False(t, a.HadError(), "%v", a.Diagnostics())
}

func TestAssignToImmutableLetIsReported(t *testing.T) {
	a := check(t, `
fn f() {
	let x = 1;
	x = 2;
}`)
	assert.True(t, a.HadError())
}

func TestSelfOutsideActorIsReported(t *testing.T) {
	a := check(t, `fn f() { let x = self; }`)
	assert.True(t, a.HadError())
}

func TestSendTargetMustBeProcess(t *testing.T) {
	a := check(t, `
fn f() {
	let x = 1;
	x ! 1;
}`)
	assert.True(t, a.HadError())
}

func TestSpawnProducesAProcessTypedValueUsableAsSendTarget(t *testing.T) {
	a := check(t, `
actor Worker {
	receive {
		n => { }
	}
}
fn main() {
	let w = spawn Worker();
	w ! 1;
}`)
	assert.False(t, a.HadError(), "%v", a.Diagnostics())
}

func TestForLoopBindsElementTypeFromArray(t *testing.T) {
	a := check(t, `
fn f(xs: i32[]) {
	for x in xs {
		print(x);
	}
}`)
	assert.False(t, a.HadError(), "%v", a.Diagnostics())
}

func TestUndefinedIdentifierIsReported(t *testing.T) {
	a := check(t, `fn f() { print(y); }`)
	assert.True(t, a.HadError())
}
