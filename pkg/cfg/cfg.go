package cfg

import (
	"fmt"

	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// FuncCFG is the control-flow graph of a single lexical block (the global
// program, or one procedure body): its real basic blocks, bracketed by a
// synthetic entry and exit.
type FuncCFG struct {
	Function *symbols.Symbol // nil for the global block
	SymTab   *symbols.SymbolTable
	Entry    *BasicBlock
	Exit     *BasicBlock
	Blocks   []*BasicBlock // real blocks, in creation order
}

// CFG is the whole program's control-flow graph: one FuncCFG per procedure
// plus the top-level global block, assembled while walking the lowered
// tree depth-first so nested procedures are discovered in declaration
// order — the order Functions is kept in, and the order graph iteration
// visits them in.
type CFG struct {
	Global    *FuncCFG
	Functions []*FuncCFG

	byLabel map[*symbols.Symbol]*BasicBlock
}

// Build assembles a CFG from the root lowered block (the program), minting
// fresh synthetic labels for fallthrough-only blocks via newLabel.
func Build(program *lowered.Block, newLabel func() *symbols.Symbol) *CFG {
	g := &CFG{byLabel: make(map[*symbols.Symbol]*BasicBlock)}

	type queued struct {
		block *lowered.Block
		fn    *symbols.Symbol
	}
	queue := []queued{{block: program, fn: nil}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		fc := buildOne(item.block, item.fn, newLabel)
		for _, bb := range fc.Blocks {
			g.byLabel[bb.LabelIn] = bb
		}

		if item.fn == nil {
			g.Global = fc
		} else {
			g.Functions = append(g.Functions, fc)
		}

		for _, def := range item.block.Defs {
			queue = append(queue, queued{block: def.Body, fn: def.Function})
		}
	}

	g.wireSuccessors(g.Global)
	for _, fc := range g.Functions {
		g.wireSuccessors(fc)
	}
	return g
}

// buildOne splits one lexical block's statements into basic blocks and
// brackets them with fake entry/exit blocks: a block is a head if nothing
// else in its own function targets its label, and a tail if it has no
// follower labels of its own.
func buildOne(block *lowered.Block, fn *symbols.Symbol, newLabel func() *symbols.Symbol) *FuncCFG {
	blocks := buildBasicBlocks(block.Stats, newLabel)
	for _, bb := range blocks {
		bb.Function = fn
	}

	targeted := make(map[*symbols.Symbol]struct{})
	var tails []*BasicBlock
	for _, bb := range blocks {
		folls := bb.followerLabels()
		if len(folls) == 0 {
			tails = append(tails, bb)
		}
		for lab := range folls {
			targeted[lab] = struct{}{}
		}
	}

	var heads []*BasicBlock
	for _, bb := range blocks {
		if _, ok := targeted[bb.LabelIn]; !ok {
			heads = append(heads, bb)
		}
	}

	entry := &BasicBlock{Fake: true, Function: fn, Succs: heads}
	exit := &BasicBlock{Fake: true, Function: fn}
	for _, bb := range tails {
		bb.Next = exit
	}

	return &FuncCFG{Function: fn, SymTab: block.SymTab, Entry: entry, Exit: exit, Blocks: blocks}
}

// wireSuccessors resolves each block's TargetLab/NextLab into direct
// pointers now that every block in the program has been created and
// registered by label.
func (g *CFG) wireSuccessors(fc *FuncCFG) {
	for _, bb := range fc.Blocks {
		if bb.TargetLab != nil {
			bb.Target = g.mustFind(bb.TargetLab)
		}
		bb.removeUselessNext()
		if bb.NextLab != nil {
			bb.Next = g.mustFind(bb.NextLab)
		}
	}
}

func (g *CFG) mustFind(lab *symbols.Symbol) *BasicBlock {
	bb, ok := g.byLabel[lab]
	if !ok {
		panic(fmt.Sprintf("cfg: no block labeled %s", lab.Name))
	}
	return bb
}

// FindByLabel returns the block carrying the given incoming label.
func (g *CFG) FindByLabel(lab *symbols.Symbol) (*BasicBlock, bool) {
	bb, ok := g.byLabel[lab]
	return bb, ok
}

// FindPred returns every block whose follower-label set contains lab —
// i.e. every direct predecessor of the block labeled lab.
func (g *CFG) FindPred(lab *symbols.Symbol) []*BasicBlock {
	var out []*BasicBlock
	for bb := range g.iterAll() {
		if _, ok := bb.followerLabels()[lab]; ok {
			out = append(out, bb)
		}
	}
	return out
}

// iterAll ranges over every real block in the program, global first, then
// each function in discovery order.
func (g *CFG) iterAll() func(func(*BasicBlock) bool) {
	return func(yield func(*BasicBlock) bool) {
		for _, bb := range g.Global.Blocks {
			if !yield(bb) {
				return
			}
		}
		for _, fc := range g.Functions {
			for _, bb := range fc.Blocks {
				if !yield(bb) {
					return
				}
			}
		}
	}
}

// All returns every FuncCFG in the program: the global block first, then
// each procedure in declaration order. Liveness and register allocation
// both process a program function-by-function in this order.
func (g *CFG) All() []*FuncCFG {
	out := make([]*FuncCFG, 0, len(g.Functions)+1)
	out = append(out, g.Global)
	out = append(out, g.Functions...)
	return out
}

// Walk performs a deterministic depth-first traversal of every block
// reachable from every function's entry (and the global entry), visiting
// Next before Target at each branch point, and never repeating a block.
// Determinism here is a deliberate hardening over the Python original,
// whose equivalent traversal walked an unordered set of successors.
func (g *CFG) Walk() []*BasicBlock {
	var order []*BasicBlock
	visited := make(map[*BasicBlock]bool)

	var roots []*BasicBlock
	roots = append(roots, g.Global.Entry)
	for _, fc := range g.Functions {
		roots = append(roots, fc.Entry)
	}

	var walk func(*BasicBlock)
	walk = func(bb *BasicBlock) {
		if visited[bb] {
			return
		}
		visited[bb] = true
		order = append(order, bb)
		for _, succ := range bb.Successors() {
			walk(succ)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return order
}
