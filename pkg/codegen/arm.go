package codegen

import (
	"fmt"

	"github.com/pl0beta/pl0c/pkg/cfg"
	"github.com/pl0beta/pl0c/pkg/frame"
	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/regalloc"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// staticLinkReg is the register a call passes its callee's static link
// in, and the register a prologue expects to find it in. ip (r12) is a
// scratch register by the AAPCS convention, free across a call boundary
// on both sides.
const staticLinkReg = "ip"

// Generator is the ARM32 code generator: the backend this compiler ships
// (mov fp, sp / bx lr / r4-r10,fp,lr callee-saved).
type Generator struct {
	prog *Program
	out  *sink
}

// NewGenerator creates a generator for prog.
func NewGenerator(prog *Program) *Generator {
	return &Generator{prog: prog, out: &sink{}}
}

// Generate emits the full assembly text: data segment, then __pl0_start,
// then one emitted body per procedure.
func (g *Generator) Generate() string {
	g.emitDataSegment()
	g.out.blank()
	g.out.directive(".text")
	g.out.directive(".global __pl0_start")
	g.out.blank()
	g.emitGlobalBlock()

	for _, def := range g.allDefs(g.prog.Root) {
		g.out.blank()
		g.emitFunction(def)
	}
	return g.out.String()
}

// allDefs lists every procedure depth-first, each nested procedure ahead of
// the procedure that encloses it.
func (g *Generator) allDefs(block *lowered.Block) []*lowered.Def {
	var out []*lowered.Def
	for _, d := range block.Defs {
		out = append(out, g.allDefs(d.Body)...)
		out = append(out, d)
	}
	return out
}

// emitDataSegment declares one .comm for every global symbol with
// nonzero size — the _g_ prefix matches the name frame.PerformLayout gave
// it.
func (g *Generator) emitDataSegment() {
	g.out.directive(".data")
	for _, sym := range g.prog.Root.SymTab.Symbols() {
		if sym.Type.ByteSize() == 0 {
			continue
		}
		layout := sym.Alloc.(*frame.GlobalSymbolLayout)
		g.out.directive(fmt.Sprintf(".comm %s, %d", layout.Name, layout.Size))
	}
}

func (g *Generator) emitGlobalBlock() {
	g.out.label("__pl0_start")
	g.out.emit("mov fp, sp")

	ctx := &funcContext{gen: g, function: nil, layout: g.prog.Frame.Global, level: 0}
	for _, bb := range g.blocksOf(nil) {
		g.emitBlock(ctx, bb)
	}

	g.out.emitComment("program exit")
	g.out.emit("mov r7, #1")
	g.out.emit("mov r0, #0")
	g.out.emit("svc #0")
}

func (g *Generator) blocksOf(fn *symbols.Symbol) []*cfg.BasicBlock {
	for _, fc := range g.prog.CFG.All() {
		if fc.Function == fn {
			return fc.Blocks
		}
	}
	return nil
}

func (g *Generator) emitFunction(def *lowered.Def) {
	layout := g.prog.Frame.Functions[def.Function]
	g.out.label(symbolLabel(def.Function))
	g.emitPrologue(layout)

	ctx := &funcContext{gen: g, function: def.Function, layout: layout, level: layout.Level()}
	for _, bb := range g.blocksOf(def.Function) {
		g.emitBlock(ctx, bb)
	}

	g.emitEpilogue(layout)
}

func (g *Generator) emitPrologue(layout *frame.StackLayout) {
	g.out.emitComment("prologue")
	g.out.emit("push {r4, r5, r6, r7, r8, r9, r10, fp, lr}")
	g.out.emit("mov fp, sp")
	if fs := layout.FrameSize(); fs > 0 {
		g.out.emit(fmt.Sprintf("sub sp, sp, #%d", fs))
	}
	if layout.HasSection(frame.SectionLevelRef) && layout.Section(frame.SectionLevelRef).MaxSize > 0 {
		off := layout.Offset(frame.SectionLevelRef)
		g.out.emit(fmt.Sprintf("str %s, [fp, #%d]", staticLinkReg, off))
	}
}

func (g *Generator) emitEpilogue(layout *frame.StackLayout) {
	g.out.emitComment("epilogue")
	g.out.emit("mov sp, fp")
	g.out.emit("pop {r4, r5, r6, r7, r8, r9, r10, fp, lr}")
	g.out.emit("bx lr")
}

func symbolLabel(sym *symbols.Symbol) string {
	return "_f_" + sym.Name
}

// reg returns the physical register name a register-class symbol was
// assigned, rematerializing it into a scratch register first if it was
// spilled.
func (ctx *funcContext) reg(sym *symbols.Symbol) string {
	alloc := ctx.gen.prog.Alloc
	wasPending := alloc.VarToReg[sym] == regalloc.SpillFlag
	spilled := alloc.Materialize(sym)
	r := armReg(alloc.VarToReg[sym])
	if spilled && wasPending {
		off := alloc.SpillOffset(sym)
		ctx.gen.out.emit(fmt.Sprintf("ldr %s, [fp, #%d]", r, spillBase(ctx)+off))
	}
	if spilled {
		// The scratch register holds sym for this one instruction only, so
		// the next use reloads it from its spill slot.
		alloc.Dematerialize(sym)
	}
	return r
}

// destReg assigns sym — an instruction's destination — a physical register,
// rotating in a scratch register if sym was spilled. Unlike reg, it never
// emits a load: the destination is about to be overwritten, so whatever
// its spill slot currently holds is irrelevant. storeSpilled writes the
// result back out after the instruction runs.
func (ctx *funcContext) destReg(sym *symbols.Symbol) string {
	alloc := ctx.gen.prog.Alloc
	alloc.Materialize(sym)
	return armReg(alloc.VarToReg[sym])
}

// storeSpilled writes a register back to its owner's spill slot after an
// instruction defines it, if that symbol was spilled.
func (ctx *funcContext) storeSpilled(sym *symbols.Symbol, reg string) {
	if !ctx.gen.prog.Alloc.IsSpilled(sym) {
		return
	}
	ctx.gen.prog.Alloc.Dematerialize(sym)
	off := ctx.gen.prog.Alloc.SpillOffset(sym)
	ctx.gen.out.emit(fmt.Sprintf("str %s, [fp, #%d]", reg, spillBase(ctx)+off))
}

// spillBase is the frame-pointer-relative offset of the spill section's
// base for the function ctx is emitting.
func spillBase(ctx *funcContext) int {
	return ctx.layout.Offset(frame.SectionSpill)
}

func armReg(i int) string {
	return fmt.Sprintf("r%d", i)
}
