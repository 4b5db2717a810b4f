package codegen

import (
	"fmt"

	"github.com/pl0beta/pl0c/pkg/cfg"
	"github.com/pl0beta/pl0c/pkg/frame"
	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// callerSaved is the fixed set of registers a call preserves across
// itself: r0-r3 unconditionally, rather than computing the live set at
// the call site.
var callerSaved = []string{"r0", "r1", "r2", "r3"}

// funcContext carries the state needed to emit one function's (or the
// global block's) body: which generator it belongs to, its frame layout,
// and its lexical level (used to size the static-link walk for a call).
type funcContext struct {
	gen      *Generator
	function *symbols.Symbol // nil for the global block
	layout   *frame.StackLayout
	level    int
}

// emitBlock emits one basic block: its label, then each statement in
// order. Fake entry/exit blocks carry no statements and are skipped.
func (g *Generator) emitBlock(ctx *funcContext, bb *cfg.BasicBlock) {
	if bb.Fake {
		return
	}
	g.out.label(bb.LabelIn.Name)
	for _, stat := range bb.Stats {
		ctx.emitStat(stat)
	}
}

func (ctx *funcContext) emitStat(stat lowered.Stat) {
	g := ctx.gen
	switch s := stat.(type) {
	case *lowered.LoadImm:
		dst := ctx.destReg(s.Destination())
		g.out.emit(fmt.Sprintf("mov %s, #%d", dst, s.Value))
		ctx.storeSpilled(s.Destination(), dst)

	case *lowered.Load:
		dst := ctx.destReg(s.Destination())
		ctx.emitLoad(dst, s.Source)
		ctx.storeSpilled(s.Destination(), dst)

	case *lowered.Store:
		ctx.emitStore(s.Target, s.Source)

	case *lowered.LoadAddr:
		dst := ctx.destReg(s.Destination())
		ctx.emitAddressOf(dst, s.Source)
		ctx.storeSpilled(s.Destination(), dst)

	case *lowered.BinOp:
		ctx.emitBinOp(s)

	case *lowered.UnaryOp:
		ctx.emitUnaryOp(s)

	case *lowered.Branch:
		ctx.emitBranch(s)

	case *lowered.Print:
		ctx.emitPrint(s)

	case *lowered.Read:
		ctx.emitRead(s)

	case *lowered.Empty:
		// Nothing to emit: the label was already printed by emitBlock.

	default:
		panic(fmt.Sprintf("codegen: unhandled lowered statement type %T", stat))
	}
}

// emitLoad reads src into the physical register named dst. A register-class
// src (produced when the address was computed into a temporary, e.g. by an
// ArrayElement) is an indirect load through that register; an auto-class
// src is a named variable, addressed directly.
func (ctx *funcContext) emitLoad(dst string, src *symbols.Symbol) {
	if src.Class == symbols.AllocReg {
		addr := ctx.reg(src)
		ctx.gen.out.emit(fmt.Sprintf("ldr %s, [%s]", dst, addr))
		return
	}
	ctx.emitAddressOf(dst, src)
	ctx.gen.out.emit(fmt.Sprintf("ldr %s, [%s]", dst, dst))
}

// emitStore writes src's register into target, mirroring emitLoad's
// direct/indirect distinction.
func (ctx *funcContext) emitStore(target *symbols.Symbol, src *symbols.Symbol) {
	valReg := ctx.reg(src)
	if target.Class == symbols.AllocReg {
		addr := ctx.reg(target)
		ctx.gen.out.emit(fmt.Sprintf("str %s, [%s]", valReg, addr))
		return
	}
	scratch := "r12"
	ctx.emitAddressOf(scratch, target)
	ctx.gen.out.emit(fmt.Sprintf("str %s, [%s]", valReg, scratch))
}

// emitAddressOf materializes the absolute address of a named (auto-class)
// symbol into dst: a PC-relative load of the global's label for a level-0
// symbol, or a frame-pointer-relative computation — walking the
// static-link chain first if sym belongs to an enclosing procedure's
// frame rather than the current one — for anything else.
func (ctx *funcContext) emitAddressOf(dst string, sym *symbols.Symbol) {
	g := ctx.gen
	if sym.Level == 0 {
		layout := sym.Alloc.(*frame.GlobalSymbolLayout)
		g.out.emit(fmt.Sprintf("ldr %s, =%s", dst, layout.Name))
		return
	}

	local := sym.Alloc.(*frame.LocalSymbolLayout)
	hops := ctx.level - local.Level
	if hops == 0 {
		g.out.emit(fmt.Sprintf("add %s, fp, #%d", dst, local.Offset))
		return
	}

	levelRefOff := ctx.layout.Offset(frame.SectionLevelRef)
	g.out.emit(fmt.Sprintf("ldr %s, [fp, #%d]", dst, levelRefOff))
	for i := 1; i < hops; i++ {
		g.out.emit(fmt.Sprintf("ldr %s, [%s, #%d]", dst, dst, levelRefOff))
	}
	g.out.emit(fmt.Sprintf("add %s, %s, #%d", dst, dst, local.Offset))
}

func (ctx *funcContext) emitBinOp(s *lowered.BinOp) {
	g := ctx.gen
	left := ctx.reg(s.Left)
	right := ctx.reg(s.Right)
	dst := ctx.destReg(s.Destination())

	switch s.Op {
	case lowered.OpAdd:
		g.out.emit(fmt.Sprintf("add %s, %s, %s", dst, left, right))
	case lowered.OpSub:
		g.out.emit(fmt.Sprintf("sub %s, %s, %s", dst, left, right))
	case lowered.OpMul:
		g.out.emit(fmt.Sprintf("mul %s, %s, %s", dst, left, right))
	case lowered.OpDiv:
		g.out.emit(fmt.Sprintf("sdiv %s, %s, %s", dst, left, right))
	case lowered.OpMod:
		g.out.emitComment("mod: a - (a/b)*b, no hardware remainder instruction")
		g.out.emit(fmt.Sprintf("sdiv %s, %s, %s", dst, left, right))
		g.out.emit(fmt.Sprintf("mul %s, %s, %s", dst, dst, right))
		g.out.emit(fmt.Sprintf("sub %s, %s, %s", dst, left, dst))
	case lowered.OpAnd:
		g.out.emit(fmt.Sprintf("and %s, %s, %s", dst, left, right))
	case lowered.OpOr:
		g.out.emit(fmt.Sprintf("orr %s, %s, %s", dst, left, right))
	case lowered.OpEq, lowered.OpNe, lowered.OpLt, lowered.OpLe, lowered.OpGt, lowered.OpGe:
		g.out.emit(fmt.Sprintf("cmp %s, %s", left, right))
		g.out.emit(fmt.Sprintf("mov%s %s, #1", condSuffix(s.Op), dst))
		g.out.emit(fmt.Sprintf("mov%s %s, #0", invertedCondSuffix(s.Op), dst))
	}
	ctx.storeSpilled(s.Destination(), dst)
}

func condSuffix(op lowered.BinOpKind) string {
	switch op {
	case lowered.OpEq:
		return "eq"
	case lowered.OpNe:
		return "ne"
	case lowered.OpLt:
		return "lt"
	case lowered.OpLe:
		return "le"
	case lowered.OpGt:
		return "gt"
	default:
		return "ge"
	}
}

func invertedCondSuffix(op lowered.BinOpKind) string {
	switch op {
	case lowered.OpEq:
		return "ne"
	case lowered.OpNe:
		return "eq"
	case lowered.OpLt:
		return "ge"
	case lowered.OpLe:
		return "gt"
	case lowered.OpGt:
		return "le"
	default:
		return "lt"
	}
}

func (ctx *funcContext) emitUnaryOp(s *lowered.UnaryOp) {
	g := ctx.gen
	src := ctx.reg(s.Src)
	dst := ctx.destReg(s.Destination())
	switch s.Op {
	case lowered.OpNeg:
		g.out.emit(fmt.Sprintf("rsb %s, %s, #0", dst, src))
	case lowered.OpNot:
		g.out.emit(fmt.Sprintf("cmp %s, #0", src))
		g.out.emit(fmt.Sprintf("moveq %s, #1", dst))
		g.out.emit(fmt.Sprintf("movne %s, #0", dst))
	}
	ctx.storeSpilled(s.Destination(), dst)
}

func (ctx *funcContext) emitBranch(s *lowered.Branch) {
	g := ctx.gen
	if s.Returns {
		ctx.emitCall(s.Target)
		return
	}
	if s.Cond == nil {
		g.out.emit("b " + s.Target.Name)
		return
	}
	condReg := ctx.reg(s.Cond)
	g.out.emit(fmt.Sprintf("cmp %s, #0", condReg))
	if s.Negated {
		g.out.emit("beq " + s.Target.Name)
	} else {
		g.out.emit("bne " + s.Target.Name)
	}
}

// emitCall marshals the static link for target, saves the caller-saved
// registers, branches with link, and restores them.
func (ctx *funcContext) emitCall(target *symbols.Symbol) {
	g := ctx.gen
	g.out.emitComment("call " + target.Name)
	g.out.emit(fmt.Sprintf("push {%s}", joinRegs(callerSaved)))

	if target == symbols.PrintFunc || target == symbols.ReadFunc {
		// The runtime's print/read entry points aren't pl0 procedures and
		// never consult the static link — no frame-chain marshalling needed.
		g.out.emit("bl " + target.Name)
		ctx.restoreAfterCall(target)
		return
	}

	hops := ctx.level - target.Level
	switch {
	case hops <= 0:
		g.out.emit("mov " + staticLinkReg + ", fp")
	default:
		levelRefOff := ctx.layout.Offset(frame.SectionLevelRef)
		g.out.emit(fmt.Sprintf("mov %s, fp", staticLinkReg))
		for i := 0; i < hops; i++ {
			g.out.emit(fmt.Sprintf("ldr %s, [%s, #%d]", staticLinkReg, staticLinkReg, levelRefOff))
		}
	}

	g.out.emit("bl " + symbolLabel(target))
	ctx.restoreAfterCall(target)
}

// restoreAfterCall pops the registers emitCall pushed. __pl0_read's result
// comes back in r0, so its call excludes r0 from restoration: popping it
// along with the rest would immediately overwrite the runtime's result
// with the stale value saved before the call.
func (ctx *funcContext) restoreAfterCall(target *symbols.Symbol) {
	g := ctx.gen
	if target == symbols.ReadFunc {
		g.out.emit("add sp, sp, #4")
		g.out.emit(fmt.Sprintf("pop {%s}", joinRegs(callerSaved[1:])))
		return
	}
	g.out.emit(fmt.Sprintf("pop {%s}", joinRegs(callerSaved)))
}

func joinRegs(regs []string) string {
	out := regs[0]
	for _, r := range regs[1:] {
		out += ", " + r
	}
	return out
}

// emitPrint evaluates its source into r0 (the runtime ABI's sole argument
// register) and calls the runtime print routine. The caller-saved registers
// are pushed before r0 is overwritten, so the caller's r0 survives the call.
func (ctx *funcContext) emitPrint(s *lowered.Print) {
	g := ctx.gen
	src := ctx.reg(s.Src)
	g.out.emitComment("call " + symbols.PrintFunc.Name)
	g.out.emit(fmt.Sprintf("push {%s}", joinRegs(callerSaved)))
	if src != "r0" {
		g.out.emit("mov r0, " + src)
	}
	g.out.emit("bl " + symbols.PrintFunc.Name)
	ctx.restoreAfterCall(symbols.PrintFunc)
}

// emitRead calls the runtime read routine and moves its result (returned
// in r0 by convention) into the destination register.
func (ctx *funcContext) emitRead(s *lowered.Read) {
	g := ctx.gen
	ctx.emitCall(symbols.ReadFunc)
	dst := ctx.destReg(s.Destination())
	if dst != "r0" {
		g.out.emit("mov " + dst + ", r0")
	}
	ctx.storeSpilled(s.Destination(), dst)
}
