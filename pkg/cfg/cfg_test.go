package cfg

import (
	"testing"

	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

func newLabeler() func() *symbols.Symbol {
	n := 0
	return func() *symbols.Symbol {
		n++
		return &symbols.Symbol{Name: "L" + string(rune('0'+n)), Type: &symbols.LabelType{}, Level: symbols.NoLevel}
	}
}

func reg(name string) *symbols.Symbol { return symbols.NewRegister(name, symbols.Int32) }

func TestBuildStraightLineIsOneBlock(t *testing.T) {
	global := symbols.NewGlobalTable()
	t1 := reg("t1")
	stats := []lowered.Stat{
		lowered.NewLoadImm(t1, 1),
		lowered.NewLoadImm(reg("t2"), 2),
	}
	program := &lowered.Block{SymTab: global, Stats: stats}

	g := Build(program, newLabeler())
	if len(g.Global.Blocks) != 1 {
		t.Fatalf("expected exactly one block, got %d", len(g.Global.Blocks))
	}
	bb := g.Global.Blocks[0]
	if bb.Next != g.Global.Exit {
		t.Errorf("a function's only block should fall through to its exit")
	}
	if len(g.Global.Entry.Succs) != 1 || g.Global.Entry.Succs[0] != bb {
		t.Errorf("entry should point at the single block")
	}
}

func TestBuildWiresConditionalFallthrough(t *testing.T) {
	global := symbols.NewGlobalTable()
	newLabel := newLabeler()
	exitLabel := newLabel()
	cond := reg("cond")

	empty := lowered.NewEmpty()
	empty.SetLabel(exitLabel)

	stats := []lowered.Stat{
		lowered.NewLoadImm(cond, 1),
		lowered.NewConditionalJump(exitLabel, cond, true),
		lowered.NewLoadImm(reg("then1"), 2),
		empty,
	}
	program := &lowered.Block{SymTab: global, Stats: stats}

	g := Build(program, newLabeler())
	if len(g.Global.Blocks) != 3 {
		t.Fatalf("expected 3 blocks (head, then-body, exit marker), got %d", len(g.Global.Blocks))
	}

	head := g.Global.Blocks[0]
	thenBody := g.Global.Blocks[1]
	tail := g.Global.Blocks[2]

	if head.Target != tail {
		t.Errorf("head's conditional jump should target the labeled exit block")
	}
	if head.Next != thenBody {
		t.Errorf("head should fall through into the then-body when the condition is false, got %v", head.Next)
	}
	if len(g.Global.Entry.Succs) != 1 || g.Global.Entry.Succs[0] != head {
		t.Errorf("only the head block should be a function entry point, got %v", g.Global.Entry.Succs)
	}
}

func TestBuildWiresUnconditionalJumpWithNoFallthrough(t *testing.T) {
	global := symbols.NewGlobalTable()
	newLabel := newLabeler()
	startLabel := newLabel()

	start := lowered.NewLoadImm(reg("cond"), 1)
	start.SetLabel(startLabel)

	stats := []lowered.Stat{
		start,
		lowered.NewJump(startLabel),
	}
	program := &lowered.Block{SymTab: global, Stats: stats}

	g := Build(program, newLabeler())
	if len(g.Global.Blocks) != 1 {
		t.Fatalf("expected a single self-looping block, got %d", len(g.Global.Blocks))
	}
	bb := g.Global.Blocks[0]
	if bb.Next != nil {
		t.Errorf("a block ending in an unconditional jump should have no fallthrough, got %v", bb.Next)
	}
	if bb.Target != bb {
		t.Errorf("expected the jump to target itself (a tight loop), got %v", bb.Target)
	}
}

func TestFindByLabelAndFindPred(t *testing.T) {
	global := symbols.NewGlobalTable()
	newLabel := newLabeler()
	exitLabel := newLabel()
	cond := reg("cond")
	empty := lowered.NewEmpty()
	empty.SetLabel(exitLabel)

	stats := []lowered.Stat{
		lowered.NewConditionalJump(exitLabel, cond, true),
		lowered.NewLoadImm(reg("then1"), 2),
		empty,
	}
	program := &lowered.Block{SymTab: global, Stats: stats}

	g := Build(program, newLabeler())
	tail, ok := g.FindByLabel(exitLabel)
	if !ok {
		t.Fatalf("expected to find the block labeled %s", exitLabel.Name)
	}

	preds := g.FindPred(exitLabel)
	if len(preds) != 2 || preds[0] != g.Global.Blocks[0] || preds[1] != g.Global.Blocks[1] {
		t.Errorf("expected the head block (branch) and the then-body (fallthrough) to be the predecessors of %v, got %v", tail.LabelIn.Name, preds)
	}
}

func TestWalkVisitsEachBlockOnceInOrder(t *testing.T) {
	global := symbols.NewGlobalTable()
	newLabel := newLabeler()
	exitLabel := newLabel()
	cond := reg("cond")
	empty := lowered.NewEmpty()
	empty.SetLabel(exitLabel)

	stats := []lowered.Stat{
		lowered.NewConditionalJump(exitLabel, cond, true),
		lowered.NewLoadImm(reg("then1"), 2),
		empty,
	}
	program := &lowered.Block{SymTab: global, Stats: stats}

	g := Build(program, newLabeler())
	order := g.Walk()

	seen := make(map[*BasicBlock]int)
	for _, bb := range order {
		seen[bb]++
	}
	for bb, count := range seen {
		if count != 1 {
			t.Errorf("block %v visited %d times, want 1", bb, count)
		}
	}
	if len(order) == 0 {
		t.Fatalf("expected a non-empty walk order")
	}
	if order[0] != g.Global.Entry {
		t.Errorf("walk should start at the function's entry block")
	}
}

func TestAllReturnsGlobalFirst(t *testing.T) {
	global := symbols.NewGlobalTable()
	program := &lowered.Block{SymTab: global, Stats: nil}
	g := Build(program, newLabeler())

	all := g.All()
	if len(all) != 1 || all[0] != g.Global {
		t.Errorf("All() with no procedures should return just the global FuncCFG")
	}
}
