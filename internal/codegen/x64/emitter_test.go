package x64_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnm-lang/arnm/internal/ast"
	"github.com/arnm-lang/arnm/internal/codegen/x64"
	"github.com/arnm-lang/arnm/internal/irgen"
	"github.com/arnm-lang/arnm/internal/parser"
	"github.com/arnm-lang/arnm/internal/sema"
)

func emit(t *testing.T, src string) string {
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
	return x64.New().Emit(g.Module())
}

func TestMainIsRenamedToAvoidCRTCollision(t *testing.T) {
	asm := emit(t, `fn main() { }`)
	assert.Contains(t, asm, "_arnm_main:")
	assert.NotContains(t, asm, "\nmain:")
}

func TestEveryFunctionHasPrologueAndEpilogue(t *testing.T) {
	asm := emit(t, `fn add(a: i32, b: i32) -> i32 { return a + b; }`)
	assert.Contains(t, asm, "push %rbp")
	assert.Contains(t, asm, "mov %rsp, %rbp")
	assert.Contains(t, asm, "pop %rbp")
	assert.Contains(t, asm, "ret")
}

func TestFrameSizeIsSixteenByteAligned(t *testing.T) {
	asm := emit(t, `fn add(a: i32, b: i32) -> i32 { return a + b; }`)
	for _, line := range strings.Split(asm, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "sub $") || !strings.HasSuffix(line, "%rsp") {
			continue
		}
		start := strings.Index(line, "$") + 1
		end := strings.Index(line, ",")
		n, err := strconv.Atoi(line[start:end])
		require.NoError(t, err)
		assert.Equal(t, 0, n%16)
		return
	}
	t.Fatal("no stack frame allocation found")
}

func TestDivModUsesCqoIdivAndSplitsQuotientRemainder(t *testing.T) {
	asm := emit(t, `fn f(a: i32, b: i32) -> i32 { return a / b; }`)
	assert.Contains(t, asm, "cqo")
	assert.Contains(t, asm, "idiv %rbx")
}

func TestSpawnCallMarshalsEntryArgAndStateSize(t *testing.T) {
	asm := emit(t, `
actor Worker {
	let mut a: i32 = 0;
	receive { n => { } }
}
fn main() {
	let w = spawn Worker();
}`)
	assert.Contains(t, asm, "call arnm_spawn")
	assert.Contains(t, asm, "lea Worker_init(%rip)")
}

func TestConditionalBranchUsesJeAndJmp(t *testing.T) {
	asm := emit(t, `fn f(a: bool) { if a { } }`)
	assert.Contains(t, asm, "je ")
	assert.Contains(t, asm, "jmp ")
}

func TestNoteGNUStackSectionIsEmitted(t *testing.T) {
	asm := emit(t, `fn f() { }`)
	assert.Contains(t, asm, ".section .note.GNU-stack")
}
