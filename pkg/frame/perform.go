package frame

import (
	"fmt"

	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/regalloc"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// RegSaveWords is the fixed number of words each of the two register-save
// sections (regsave_in and regsave_out, both after the frame pointer)
// reserves, matching the ARM calling convention's callee-saved set (r4-r10, fp, lr:
// nine registers) this backend targets.
const RegSaveWords = 9

// Result holds the layouts PerformLayout produces:
// the global data segment's layout, plus one frame layout per procedure,
// keyed by the procedure's symbol.
type Result struct {
	Global    *StackLayout
	Functions map[*symbols.Symbol]*StackLayout
}

// PerformLayout walks the lowered program tree, assigns every addressable
// symbol a GlobalSymbolLayout or LocalSymbolLayout (calling
// symbols.Symbol.SetLayout), and builds each frame's StackLayout —
// reserving a spill slot's worth of frame space per alloc.SpillRoom(),
// since the allocator may have spilled symbols across any function.
func PerformLayout(program *lowered.Block, alloc *regalloc.AllocInfo) *Result {
	res := &Result{Global: NewGlobalLayout(), Functions: make(map[*symbols.Symbol]*StackLayout)}
	layoutGlobalBlock(program, res.Global)
	for _, def := range program.Defs {
		layoutFunction(def, nil, res, alloc)
	}
	return res
}

func layoutGlobalBlock(block *lowered.Block, layout *StackLayout) {
	for _, sym := range block.SymTab.Symbols() {
		if sym.Type.ByteSize() == 0 {
			continue
		}
		sym.SetLayout(NewGlobalSymbolLayout("_g_"+sym.Name, sym.Type.ByteSize()))
	}
}

// layoutFunction builds one procedure's frame. parent is the frozen
// snapshot of the nearest lexically enclosing procedure's frame (nil for
// a procedure declared at the top level), used only so a yet more deeply
// nested procedure can resolve a static-link chain of more than one hop.
func layoutFunction(def *lowered.Def, parent *FrozenLayout, res *Result, alloc *regalloc.AllocInfo) {
	level := def.Body.SymTab.Level()
	layout := NewLayout(level, parent)

	layout.AddSection(NewStackSection(SectionLevelRef), true)
	if level >= 2 {
		// The global block and level-1 procedures never need a static
		// link: a level-1 body addresses globals directly, and nothing
		// reaches the global block through one. Only a procedure nested
		// two or more levels deep needs a word to reach an enclosing,
		// non-global frame.
		layout.Section(SectionLevelRef).GrowWords(1)
	}

	layout.AddSection(NewStackSection(SectionArgsIn), true)

	layout.AddSection(NewStackSection(SectionRegSaveIn), false)
	layout.Section(SectionRegSaveIn).GrowWords(RegSaveWords)

	locals := NewStackSection(SectionLocals)
	layout.AddSection(locals, false)
	for _, sym := range def.Body.SymTab.Symbols() {
		if sym.Type.ByteSize() == 0 {
			continue
		}
		locals.GrowSymbol(sym)
	}

	spill := NewStackSection(SectionSpill)
	layout.AddSection(spill, false)
	spillWords := alloc.SpillRoom() / 4
	spill.SetSize(spillWords)

	layout.AddSection(NewStackSection(SectionRegSaveOut), false)
	layout.Section(SectionRegSaveOut).GrowWords(RegSaveWords)

	layout.AddSection(NewStackSection(SectionArgsOut), false)

	localsBase := layout.Offset(SectionLocals)
	for _, sym := range def.Body.SymTab.Symbols() {
		if sym.Type.ByteSize() == 0 {
			continue
		}
		sym.SetLayout(NewLocalSymbolLayout(
			fmt.Sprintf("_l_%s", sym.Name),
			localsBase+locals.Offset(sym),
			sym.Type.ByteSize(),
			level,
		))
	}

	res.Functions[def.Function] = layout

	frozen := layout.Freeze(SectionLevelRef, SectionLocals)
	for _, nested := range def.Body.Defs {
		layoutFunction(nested, frozen, res, alloc)
	}
}
