// Package x64 emits GNU-AS-compatible x86_64 assembly text from
// ir.Module using a "spill everywhere" strategy (spec §4.7, C10): every
// IR variable lives at a fixed stack offset, no register allocation.
// Grounded in the teacher's CodeGen (std/compiler/backend_x64.go),
// which walks IRFunc/Inst and calls g.emitBytes(...) to build raw ELF
// machine code; ARNm's target is textual assembly (spec: "GNU-AS
// compatible"), so this keeps the teacher's per-opcode
// compile<Opcode>-method dispatch shape and its load-into-rax/rbx
// two-operand convention, rewritten to emit instruction mnemonics as
// strings instead of opcode bytes.
package x64

import (
	"fmt"
	"strings"

	"github.com/arnm-lang/arnm/internal/ir"
)

var argRegs = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// CodeGen emits one ir.Module as a complete .s text file.
type CodeGen struct {
	out strings.Builder
	fn  *ir.Func
}

// New creates an empty CodeGen.
func New() *CodeGen { return &CodeGen{} }

func (g *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&g.out, format+"\n", args...)
}

// Emit lowers the whole module to assembly text.
func (g *CodeGen) Emit(m *ir.Module) string {
	g.line(".text")
	for _, f := range m.Funcs {
		g.compileFunc(f)
	}
	g.line(".section .note.GNU-stack,\"\",@progbits")
	return g.out.String()
}

func asmName(fnName string) string {
	if fnName == "main" {
		return "_arnm_main"
	}
	return fnName
}

func label(fnName string, blockID int) string {
	return fmt.Sprintf(".L%s_%d", asmName(fnName), blockID)
}

func slotOf(id int) string {
	return fmt.Sprintf("-%d(%%rbp)", (id+1)*8)
}

// frameSize rounds (vreg count + overhead) * 8 up to 16, per spec §4.7.
func frameSize(regCount int) int {
	const overhead = 4
	bytes := (regCount + overhead) * 8
	if bytes%16 != 0 {
		bytes += 16 - bytes%16
	}
	return bytes
}

func (g *CodeGen) compileFunc(f *ir.Func) {
	g.fn = f
	name := asmName(f.Name)
	g.line(".globl %s", name)
	g.line(".type %s, @function", name)
	g.line("%s:", name)
	g.line("\tpush %%rbp")
	g.line("\tmov %%rsp, %%rbp")

	maxID := len(f.ParamTypes)
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if inst.Result.Kind == ir.ValVariable && inst.Result.ID >= maxID {
				maxID = inst.Result.ID + 1
			}
		}
	}
	g.line("\tsub $%d, %%rsp", frameSize(maxID))

	for i := range f.ParamTypes {
		if i >= len(argRegs) {
			break
		}
		g.line("\tmov %%%s, %s", argRegs[i], slotOf(i))
	}

	for _, b := range f.Blocks {
		g.line("%s:", label(f.Name, b.ID))
		for _, inst := range b.Insts {
			g.compileInst(inst)
		}
	}
}

func (g *CodeGen) loadToReg(v ir.Value, reg string) {
	switch v.Kind {
	case ir.ValConstInt:
		g.line("\tmov $%d, %%%s", v.Int, reg)
	case ir.ValConstBool:
		b := 0
		if v.Bool {
			b = 1
		}
		g.line("\tmov $%d, %%%s", b, reg)
	case ir.ValVariable:
		g.line("\tmov %s, %%%s", slotOf(v.ID), reg)
	case ir.ValGlobal:
		g.line("\tlea %s(%%rip), %%%s", v.Name, reg)
	default:
		g.line("\txor %%%s, %%%s", reg, reg)
	}
}

func (g *CodeGen) storeResult(v ir.Value, reg string) {
	if v.Kind == ir.ValVariable {
		g.line("\tmov %%%s, %s", reg, slotOf(v.ID))
	}
}

func (g *CodeGen) compileInst(inst ir.Inst) {
	switch inst.Op {
	case ir.OpAlloca:
		g.line("\tsub $16, %%rsp")
		g.line("\tmov %%rsp, %%rax")
		g.storeResult(inst.Result, "rax")
	case ir.OpLoad:
		g.loadToReg(inst.A, "rax")
		g.line("\tmov (%%rax), %%rax")
		g.storeResult(inst.Result, "rax")
	case ir.OpStore:
		g.loadToReg(inst.B, "rax")
		g.loadToReg(inst.A, "rbx")
		g.line("\tmov %%rax, (%%rbx)")
	case ir.OpFieldPtr:
		g.loadToReg(inst.A, "rax")
		g.loadToReg(inst.B, "rbx")
		g.line("\timul $8, %%rbx, %%rbx")
		g.line("\tadd %%rbx, %%rax")
		g.storeResult(inst.Result, "rax")
	case ir.OpAdd, ir.OpSub, ir.OpMul:
		g.compileArith(inst)
	case ir.OpDiv, ir.OpMod:
		g.compileDivMod(inst)
	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		g.compileCompare(inst)
	case ir.OpAnd:
		g.loadToReg(inst.A, "rax")
		g.loadToReg(inst.B, "rbx")
		g.line("\tand %%rbx, %%rax")
		g.storeResult(inst.Result, "rax")
	case ir.OpOr:
		g.loadToReg(inst.A, "rax")
		g.loadToReg(inst.B, "rbx")
		g.line("\tor %%rbx, %%rax")
		g.storeResult(inst.Result, "rax")
	case ir.OpBr:
		g.loadToReg(inst.A, "rax")
		g.line("\tcmp $0, %%rax")
		g.line("\tje %s", label(g.fn.Name, inst.Else))
		g.line("\tjmp %s", label(g.fn.Name, inst.Then))
	case ir.OpJmp:
		g.line("\tjmp %s", label(g.fn.Name, inst.Then))
	case ir.OpRet:
		if inst.A.Kind != ir.ValNone {
			g.loadToReg(inst.A, "rax")
		}
		g.line("\tmov %%rbp, %%rsp")
		g.line("\tpop %%rbp")
		g.line("\tret")
	case ir.OpCall:
		g.compileCall(inst)
	case ir.OpSpawn:
		g.compileSpawn(inst)
	case ir.OpSend:
		// Calling-convention choice for arnm_send is open per spec §9;
		// this mirrors the fixed-arity marshaling every other runtime
		// call uses: target in rdi, tag in rsi, null data, zero size.
		g.loadToReg(inst.A, "rdi")
		g.loadToReg(inst.B, "rsi")
		g.line("\txor %%rdx, %%rdx")
		g.line("\txor %%rcx, %%rcx")
		g.line("\tcall arnm_send")
	case ir.OpReceive:
		g.line("\txor %%rdi, %%rdi")
		g.line("\tcall arnm_receive")
		g.storeResult(inst.Result, "rax")
	case ir.OpSelf:
		g.line("\tcall arnm_self")
		g.storeResult(inst.Result, "rax")
	case ir.OpMov:
		g.loadToReg(inst.A, "rax")
		g.storeResult(inst.Result, "rax")
	}
}

func (g *CodeGen) compileArith(inst ir.Inst) {
	g.loadToReg(inst.A, "rax")
	g.loadToReg(inst.B, "rbx")
	switch inst.Op {
	case ir.OpAdd:
		g.line("\tadd %%rbx, %%rax")
	case ir.OpSub:
		g.line("\tsub %%rbx, %%rax")
	case ir.OpMul:
		g.line("\timul %%rbx, %%rax")
	}
	g.storeResult(inst.Result, "rax")
}

func (g *CodeGen) compileDivMod(inst ir.Inst) {
	g.loadToReg(inst.A, "rax")
	g.loadToReg(inst.B, "rbx")
	g.line("\tcqo")
	g.line("\tidiv %%rbx")
	if inst.Op == ir.OpDiv {
		g.storeResult(inst.Result, "rax")
	} else {
		g.storeResult(inst.Result, "rdx")
	}
}

var setccFor = map[ir.Op]string{
	ir.OpEq: "sete", ir.OpNe: "setne", ir.OpLt: "setl",
	ir.OpLe: "setle", ir.OpGt: "setg", ir.OpGe: "setge",
}

func (g *CodeGen) compileCompare(inst ir.Inst) {
	g.loadToReg(inst.A, "rax")
	g.loadToReg(inst.B, "rbx")
	g.line("\tcmp %%rbx, %%rax")
	g.line("\t%s %%cl", setccFor[inst.Op])
	g.line("\tmovzbq %%cl, %%rax")
	g.storeResult(inst.Result, "rax")
}

func (g *CodeGen) compileCall(inst ir.Inst) {
	callee := inst.Callee
	if callee == "print" {
		callee = "arnm_print_int"
	}
	for i, a := range inst.Args {
		if i >= len(argRegs) {
			break
		}
		g.loadToReg(a, argRegs[i])
	}
	g.line("\tcall %s", callee)
	g.storeResult(inst.Result, "rax")
}

// compileSpawn marshals (entry_fn_ptr, arg_word, state_size_bytes)
// into the SysV integer argument registers and calls arnm_spawn (spec
// §4.6/§4.7): entry in rdi, a single packed argument word in rsi (the
// first constructor argument if any, else zero), state size in rdx.
func (g *CodeGen) compileSpawn(inst ir.Inst) {
	g.loadToReg(inst.A, "rdi")
	if len(inst.Args) > 0 {
		g.loadToReg(inst.Args[0], "rsi")
	} else {
		g.line("\txor %%rsi, %%rsi")
	}
	g.loadToReg(inst.B, "rdx")
	g.line("\tcall arnm_spawn")
	g.storeResult(inst.Result, "rax")
}
