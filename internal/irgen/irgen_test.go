package irgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnm-lang/arnm/internal/ast"
	"github.com/arnm-lang/arnm/internal/ir"
	"github.com/arnm-lang/arnm/internal/irgen"
	"github.com/arnm-lang/arnm/internal/parser"
	"github.com/arnm-lang/arnm/internal/sema"
)

func lower(t *testing.T, src string) *ir.Module {
	t.Helper()
	arena := ast.NewArena()
	p := parser.New([]byte(src), arena)
	prog := p.Parse()
	require.False(t, p.HadError(), "%v", p.Diagnostics())
	a := sema.New()
	a.Check(prog)
	require.False(t, a.HadError(), "%v", a.Diagnostics())
	g := irgen.New()
	g.Lower(prog)
	return g.Module()
}

func opsOf(f *ir.Func) []ir.Op {
	var ops []ir.Op
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			ops = append(ops, inst.Op)
		}
	}
	return ops
}

func containsOp(ops []ir.Op, want ir.Op) bool {
	for _, o := range ops {
		if o == want {
			return true
		}
	}
	return false
}

func TestFreeFunctionLowersToNamedFunc(t *testing.T) {
	mod := lower(t, `
fn add(a: i32, b: i32) -> i32 { return a + b; }`)
	f := mod.Lookup("add")
	require.NotNil(t, f)
	assert.True(t, containsOp(opsOf(f), ir.OpAdd))
	assert.True(t, containsOp(opsOf(f), ir.OpRet))
}

func TestActorMethodsAreManglesWithActorPrefix(t *testing.T) {
	mod := lower(t, `
actor Counter {
	let mut count: i32 = 0;
	fn bump() { self.count = self.count + 1; }
}`)
	require.NotNil(t, mod.Lookup("Counter_bump"))
	assert.Nil(t, mod.Lookup("bump"))
}

func TestActorWithReceiveGetsSynthesizedBehaviorLoop(t *testing.T) {
	mod := lower(t, `
actor Worker {
	receive {
		1 => { }
		n => { }
	}
}`)
	behavior := mod.Lookup("Worker_behavior")
	require.NotNil(t, behavior)
	ops := opsOf(behavior)
	assert.True(t, containsOp(ops, ir.OpReceive))
	assert.True(t, containsOp(ops, ir.OpFieldPtr))
	assert.True(t, containsOp(ops, ir.OpEq))
	// the behavior loop never falls through to ret on its own account;
	// it only exits via an unreachable synthetic exit block.
	assert.Greater(t, len(behavior.Blocks), 1)
}

func TestActorInitTailCallsBehavior(t *testing.T) {
	mod := lower(t, `
actor Worker {
	fn init() { }
	receive {
		n => { }
	}
}`)
	initFn := mod.Lookup("Worker_init")
	require.NotNil(t, initFn)
	found := false
	for _, b := range initFn.Blocks {
		for _, inst := range b.Insts {
			if inst.Op == ir.OpCall && inst.Callee == "Worker_behavior" {
				found = true
			}
		}
	}
	assert.True(t, found, "Worker_init should tail-call Worker_behavior")
}

func TestSpawnLowersToOpSpawnWithFieldCountStateSize(t *testing.T) {
	mod := lower(t, `
actor Worker {
	let mut a: i32 = 0;
	let mut b: i32 = 0;
	receive { n => { } }
}
fn main() {
	let w = spawn Worker();
}`)
	f := mod.Lookup("main")
	require.NotNil(t, f)
	var spawnInst *ir.Inst
	for _, b := range f.Blocks {
		for i := range b.Insts {
			if b.Insts[i].Op == ir.OpSpawn {
				spawnInst = &b.Insts[i]
			}
		}
	}
	require.NotNil(t, spawnInst)
	assert.Equal(t, int64(16), spawnInst.B.Int) // 2 fields * 8 bytes
	assert.Equal(t, "Worker_init", spawnInst.A.Name)
}

func TestSendLowersToOpSend(t *testing.T) {
	mod := lower(t, `
actor Worker {
	receive { n => { } }
}
fn main() {
	let w = spawn Worker();
	w ! 1;
}`)
	f := mod.Lookup("main")
	require.NotNil(t, f)
	assert.True(t, containsOp(opsOf(f), ir.OpSend))
}

func TestPrintCallRedirectsToPrintIntrinsic(t *testing.T) {
	mod := lower(t, `fn f() { print(1); }`)
	f := mod.Lookup("f")
	require.NotNil(t, f)
	found := false
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if inst.Op == ir.OpCall && inst.Callee == "arnm_print_int" {
				found = true
			}
		}
	}
	assert.True(t, found)
}
