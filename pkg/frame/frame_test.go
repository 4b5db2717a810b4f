package frame

import (
	"testing"

	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/regalloc"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

func TestSectionGrowSymbolAssignsIncreasingOffsets(t *testing.T) {
	s := NewStackSection(SectionLocals)
	a := symbols.NewNamed("a", symbols.Int32)
	b := symbols.NewNamed("b", symbols.Int32)

	if !s.GrowSymbol(a) {
		t.Fatalf("GrowSymbol(a) should succeed the first time")
	}
	if !s.GrowSymbol(b) {
		t.Fatalf("GrowSymbol(b) should succeed the first time")
	}
	if s.GrowSymbol(a) {
		t.Errorf("GrowSymbol(a) a second time should report false")
	}

	if s.Offset(a) != 0 {
		t.Errorf("Offset(a) = %d, want 0", s.Offset(a))
	}
	if s.Offset(b) != 4 {
		t.Errorf("Offset(b) = %d, want 4 (one word after a)", s.Offset(b))
	}
	if s.MaxSize != 2 {
		t.Errorf("MaxSize = %d, want 2 words", s.MaxSize)
	}
}

func TestSectionOffsetPanicsForAbsentSymbol(t *testing.T) {
	s := NewStackSection(SectionLocals)
	defer func() {
		if recover() == nil {
			t.Errorf("expected Offset to panic for a symbol never placed in the section")
		}
	}()
	s.Offset(symbols.NewNamed("missing", symbols.Int32))
}

func TestLayoutOffsetsAreNegativeBeforeFPAndPositiveAfter(t *testing.T) {
	layout := NewLayout(1, nil)

	layout.AddSection(NewStackSection(SectionLevelRef), true)
	layout.Section(SectionLevelRef).GrowWords(1)

	layout.AddSection(NewStackSection(SectionArgsIn), true)
	layout.Section(SectionArgsIn).GrowWords(2)

	layout.AddSection(NewStackSection(SectionRegSaveIn), false)
	layout.Section(SectionRegSaveIn).GrowWords(RegSaveWords)

	locals := NewStackSection(SectionLocals)
	layout.AddSection(locals, false)
	locals.GrowWords(3)

	if off := layout.Offset(SectionLevelRef); off != -4 {
		t.Errorf("Offset(level_ref) = %d, want -4 (last before-FP section, one word)", off)
	}
	// args_in sits further from fp than level_ref on the before side: its
	// own 2 words plus level_ref's 1 word beyond it.
	if off := layout.Offset(SectionArgsIn); off != -(4 + 8) {
		t.Errorf("Offset(args_in) = %d, want %d", off, -(4 + 8))
	}
	if off := layout.Offset(SectionRegSaveIn); off != 0 {
		t.Errorf("Offset(regsave_in) = %d, want 0 (first after-FP section)", off)
	}
	if off := layout.Offset(SectionLocals); off != RegSaveWords*4 {
		t.Errorf("Offset(local_vars) = %d, want %d", off, RegSaveWords*4)
	}
	if size := layout.FrameSize(); size != (RegSaveWords+3)*4 {
		t.Errorf("FrameSize() = %d, want %d", size, (RegSaveWords+3)*4)
	}
}

func TestGetLevelPanicsOnMutableLayoutAtOwnLevel(t *testing.T) {
	layout := NewLayout(1, nil)
	defer func() {
		if recover() == nil {
			t.Errorf("expected GetLevel to panic when asked for a mutable layout's own level")
		}
	}()
	layout.GetLevel(1)
}

func TestFrozenGetLevelReturnsSelfAtOwnLevel(t *testing.T) {
	layout := NewLayout(1, nil)
	layout.AddSection(NewStackSection(SectionLocals), false)
	layout.Section(SectionLocals).GrowWords(1)
	frozen := layout.Freeze(SectionLocals)

	if frozen.GetLevel(1) != frozen {
		t.Errorf("a frozen layout's GetLevel at its own level should return itself")
	}
}

func TestFrozenGetLevelWalksParentChain(t *testing.T) {
	outer := NewLayout(1, nil)
	outer.AddSection(NewStackSection(SectionLocals), false)
	outerFrozen := outer.Freeze(SectionLocals)

	inner := NewLayout(2, outerFrozen)
	inner.AddSection(NewStackSection(SectionLocals), false)
	innerFrozen := inner.Freeze(SectionLocals)

	if innerFrozen.GetLevel(1) != outerFrozen {
		t.Errorf("GetLevel(1) from the inner frozen layout should reach the outer one")
	}
}

func TestFreezeOnlyKeepsNamedSections(t *testing.T) {
	layout := NewLayout(1, nil)
	layout.AddSection(NewStackSection(SectionLevelRef), true)
	layout.AddSection(NewStackSection(SectionLocals), false)
	layout.AddSection(NewStackSection(SectionSpill), false)

	frozen := layout.Freeze(SectionLevelRef, SectionLocals)
	if frozen.Section(SectionLevelRef) == nil {
		t.Errorf("expected level_ref to survive Freeze")
	}
	if frozen.Section(SectionLocals) == nil {
		t.Errorf("expected local_vars to survive Freeze")
	}
	defer func() {
		if recover() == nil {
			t.Errorf("expected Offset(spill) to panic: spill was never kept by Freeze")
		}
	}()
	frozen.Offset(SectionSpill)
}

func TestPerformLayoutOrdersSectionsAndReservesSpillRoom(t *testing.T) {
	global := symbols.NewGlobalTable()
	fnSym := symbols.NewNamed("f", &symbols.FunctionType{})
	bodyTab := global.NewChild()
	local := symbols.NewNamed("x", symbols.Int32)
	bodyTab.Declare(local)

	def := &lowered.Def{Function: fnSym, Body: &lowered.Block{SymTab: bodyTab}}
	program := &lowered.Block{SymTab: global, Defs: []*lowered.Def{def}}

	alloc := regalloc.NewAllocInfo(8)
	alloc.NumSpill = 2

	res := PerformLayout(program, alloc)

	layout, ok := res.Functions[fnSym]
	if !ok {
		t.Fatalf("expected a layout for the function symbol")
	}
	if layout.Section(SectionSpill).MaxSize != alloc.SpillRoom()/4 {
		t.Errorf("spill section size = %d words, want %d (SpillRoom/4)", layout.Section(SectionSpill).MaxSize, alloc.SpillRoom()/4)
	}

	got, ok := local.Alloc.(*LocalSymbolLayout)
	if !ok {
		t.Fatalf("expected x's layout to be a *LocalSymbolLayout, got %T", local.Alloc)
	}
	if got.Level != 1 {
		t.Errorf("local's layout level = %d, want 1", got.Level)
	}
	if got.Offset != layout.Offset(SectionLocals) {
		t.Errorf("local's offset = %d, want section base offset %d (it's the section's first symbol)", got.Offset, layout.Offset(SectionLocals))
	}
}

func TestPerformLayoutSkipsZeroByteSymbols(t *testing.T) {
	global := symbols.NewGlobalTable()
	label := symbols.NewNamed("L", &symbols.LabelType{})

	program := &lowered.Block{SymTab: global}
	global.Declare(label)

	alloc := regalloc.NewAllocInfo(8)
	PerformLayout(program, alloc)

	if label.Alloc != nil {
		t.Errorf("a zero-byte symbol like a label should never be assigned a GlobalSymbolLayout")
	}
}
