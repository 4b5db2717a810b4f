package codegen

import (
	"strings"
	"testing"

	"github.com/pl0beta/pl0c/pkg/cfg"
	"github.com/pl0beta/pl0c/pkg/frame"
	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/regalloc"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

func newLabeler() func() *symbols.Symbol {
	n := 0
	return func() *symbols.Symbol {
		n++
		return &symbols.Symbol{Name: "L", Type: &symbols.LabelType{}, Level: symbols.NoLevel}
	}
}

func TestARMBackendIsRegisteredWithExpectedFeatures(t *testing.T) {
	b := GetBackend("arm", &BackendOptions{})
	if b == nil {
		t.Fatalf("expected the arm backend to be registered")
	}
	if b.Name() != "arm" {
		t.Errorf("Name() = %q, want arm", b.Name())
	}
	if b.GetFileExtension() != ".s" {
		t.Errorf("GetFileExtension() = %q, want .s", b.GetFileExtension())
	}
	if !b.SupportsFeature(FeatureHardwareMultiply) || !b.SupportsFeature(FeatureHardwareDivide) {
		t.Errorf("arm backend should support hardware multiply and divide")
	}
	if !b.SupportsFeature(Feature32BitPointers) || !b.SupportsFeature(FeatureIndirectCalls) {
		t.Errorf("arm backend should inherit 32-bit pointers and indirect calls from the base")
	}
}

func TestListBackendsIncludesARM(t *testing.T) {
	found := false
	for _, name := range ListBackends() {
		if name == "arm" {
			found = true
		}
	}
	if !found {
		t.Errorf("ListBackends() = %v, want it to include arm", ListBackends())
	}
}

func TestGetBackendUnknownNameReturnsNil(t *testing.T) {
	if GetBackend("nonexistent-isa", &BackendOptions{}) != nil {
		t.Errorf("expected nil for an unregistered backend name")
	}
}

func TestBaseBackendDefaults(t *testing.T) {
	b := NewBaseBackend(&BackendOptions{Debug: true})
	if !b.CheckFeature(Feature32BitPointers) || !b.CheckFeature(FeatureIndirectCalls) {
		t.Errorf("base backend should default to 32-bit pointers and indirect calls")
	}
	if b.CheckFeature(FeatureHardwareMultiply) || b.CheckFeature(FeatureHardwareDivide) {
		t.Errorf("base backend should not assume hardware multiply/divide until a backend opts in")
	}
	if !b.GetOptions().Debug {
		t.Errorf("GetOptions() should return the options passed to NewBaseBackend")
	}
}

func TestSinkFormatsLabelsInstructionsAndComments(t *testing.T) {
	s := &sink{}
	s.directive(".data")
	s.label("main")
	s.emit("mov fp, sp")
	s.emitComment("a note")
	s.blank()

	want := "\t.data\nmain:\n\tmov fp, sp\n\t@ a note\n\n"
	if got := s.String(); got != want {
		t.Errorf("sink.String() = %q, want %q", got, want)
	}
}

// buildProgram assembles the minimum Program a Generator needs: CFG,
// register allocation, and frame layout all computed from the same lowered
// tree, matching how pkg/compiler wires them for a real compile.
func buildProgram(t *testing.T, program *lowered.Block) *Program {
	t.Helper()
	g := cfg.Build(program, newLabeler())
	alloc := regalloc.Allocate(g, 8)
	fr := frame.PerformLayout(program, alloc)
	return &Program{Root: program, CFG: g, Alloc: alloc, Frame: fr}
}

func TestGenerateEmitsDataSegmentAndProgramExit(t *testing.T) {
	global := symbols.NewGlobalTable()
	x := symbols.NewNamed("x", symbols.Int32)
	global.Declare(x)

	t1 := symbols.NewRegister("t1", symbols.Int32)
	stats := []lowered.Stat{
		lowered.NewLoadImm(t1, 42),
		lowered.NewStore(x, t1),
	}
	program := &lowered.Block{SymTab: global, Stats: stats}
	prog := buildProgram(t, program)

	out := NewGenerator(prog).Generate()

	if !strings.Contains(out, ".comm _g_x, 4") {
		t.Errorf("expected a .comm directive for global x, got:\n%s", out)
	}
	if !strings.Contains(out, "__pl0_start:") {
		t.Errorf("expected the __pl0_start label, got:\n%s", out)
	}
	if !strings.Contains(out, "mov fp, sp") {
		t.Errorf("expected the global block to set up fp, got:\n%s", out)
	}
	if !strings.Contains(out, "svc #0") {
		t.Errorf("expected the program exit syscall, got:\n%s", out)
	}
	if !strings.Contains(out, "mov r0, #42") && !strings.Contains(out, "#42") {
		t.Errorf("expected the immediate 42 to be emitted somewhere, got:\n%s", out)
	}
}

func TestGenerateEmitsFunctionPrologueAndEpilogue(t *testing.T) {
	global := symbols.NewGlobalTable()
	fnSym := symbols.NewNamed("f", &symbols.FunctionType{})
	bodyTab := global.NewChild()

	t1 := symbols.NewRegister("t1", symbols.Int32)
	body := &lowered.Block{SymTab: bodyTab, Stats: []lowered.Stat{lowered.NewLoadImm(t1, 7)}}
	def := &lowered.Def{Function: fnSym, Body: body}
	program := &lowered.Block{SymTab: global, Defs: []*lowered.Def{def}}
	prog := buildProgram(t, program)

	out := NewGenerator(prog).Generate()

	if !strings.Contains(out, "_f_f:") {
		t.Errorf("expected a label for function f, got:\n%s", out)
	}
	if !strings.Contains(out, "push {r4, r5, r6, r7, r8, r9, r10, fp, lr}") {
		t.Errorf("expected the callee-saved prologue push, got:\n%s", out)
	}
	if !strings.Contains(out, "pop {r4, r5, r6, r7, r8, r9, r10, fp, lr}") {
		t.Errorf("expected the callee-saved epilogue pop, got:\n%s", out)
	}
	if !strings.Contains(out, "bx lr") {
		t.Errorf("expected the epilogue to return via bx lr, got:\n%s", out)
	}
}

func TestEmitBinOpComparisonUsesConditionalMoves(t *testing.T) {
	global := symbols.NewGlobalTable()
	left, right, dst := symbols.NewRegister("a", symbols.Int32), symbols.NewRegister("b", symbols.Int32), symbols.NewRegister("c", symbols.Int32)
	stats := []lowered.Stat{
		lowered.NewLoadImm(left, 1),
		lowered.NewLoadImm(right, 2),
		lowered.NewBinOp(dst, lowered.OpLt, left, right),
	}
	program := &lowered.Block{SymTab: global, Stats: stats}
	prog := buildProgram(t, program)

	out := NewGenerator(prog).Generate()
	if !strings.Contains(out, "movlt") || !strings.Contains(out, "movge") {
		t.Errorf("expected a lt comparison to emit movlt/movge, got:\n%s", out)
	}
}

func TestEmitBranchNegatedConditionalUsesCmpAndBeq(t *testing.T) {
	global := symbols.NewGlobalTable()
	newLabel := newLabeler()
	target := newLabel()
	cond := symbols.NewRegister("cond", symbols.Int32)

	empty := lowered.NewEmpty()
	empty.SetLabel(target)

	stats := []lowered.Stat{
		lowered.NewLoadImm(cond, 1),
		lowered.NewConditionalJump(target, cond, true),
		empty,
	}
	program := &lowered.Block{SymTab: global, Stats: stats}
	prog := buildProgram(t, program)

	out := NewGenerator(prog).Generate()
	if !strings.Contains(out, "cmp "+"r0, #0") && !strings.Contains(out, "cmp") {
		t.Errorf("expected a cmp instruction for the conditional jump, got:\n%s", out)
	}
	if !strings.Contains(out, "beq "+target.Name) {
		t.Errorf("expected a negated conditional jump to emit beq, got:\n%s", out)
	}
}
