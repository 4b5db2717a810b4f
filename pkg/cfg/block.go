// Package cfg builds the control-flow graph: basic blocks with at most two
// real successors, wired together from a function's flat lowered statement
// sequence, plus the synthetic entry/exit blocks every function gets so
// liveness has a single place to seed and collect its fixpoint.
package cfg

import (
	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// BasicBlock is a maximal straight-line run of statements: exactly one
// incoming label, and at most two successors (Next — fallthrough — and
// Target — the destination of a terminating conditional or unconditional
// jump). A block whose last instruction is a returning call (Branch with
// Returns set) does not terminate the block: calls are transparent to
// control flow here, matching the assumption that a called procedure
// always returns to its caller.
type BasicBlock struct {
	Stats    []lowered.Stat
	LabelIn  *symbols.Symbol
	Function *symbols.Symbol // owning function, nil in the global block

	Next, Target       *BasicBlock
	NextLab, TargetLab *symbols.Symbol

	Gen, Kill        lowered.SymbolSet
	LiveIn, LiveOut  lowered.SymbolSet

	// Fake marks a synthetic entry/exit block. A fake entry block's only
	// meaningful field is Succs (the function's head blocks); a fake exit
	// block carries no outgoing edges at all — it exists purely as the
	// liveness fixpoint's seed and collection point.
	Fake  bool
	Succs []*BasicBlock

	// pendingNext is set only during construction, when a conditional
	// branch closes this block: it names the block holding the fallthrough
	// statements, whose label isn't known yet (it may still be empty).
	// buildBasicBlocks resolves it into NextLab once every block has run
	// through finalize.
	pendingNext *BasicBlock
}

func newBlock() *BasicBlock { return &BasicBlock{} }

func (b *BasicBlock) isEmpty() bool { return len(b.Stats) == 0 }

// append adds instr to b, splitting into a new block when instr carries its
// own label (a jump target) or when the block just closed on a
// non-returning branch. The label check happens before the branch check,
// so a labeled branch instruction still starts a fresh block for its label
// before being evaluated as a terminator. A block closed by a label falls
// through into the labeled block. completed lists every block this call
// closed, in order.
func (b *BasicBlock) append(instr lowered.Stat, newLabel func() *symbols.Symbol) (completed []*BasicBlock, active *BasicBlock) {
	if lab := instr.Label(); lab != nil {
		if !b.isEmpty() {
			b.finalize(newLabel)
			b.NextLab = lab
			done, active := newBlock().append(instr, newLabel)
			return append([]*BasicBlock{b}, done...), active
		}
		b.LabelIn = lab
	}

	b.Stats = append(b.Stats, instr)

	if br, ok := instr.(*lowered.Branch); ok && !br.Returns {
		b.finalize(newLabel)
		b.TargetLab = br.Target
		next := newBlock()
		if br.Cond != nil {
			// A conditional jump still falls through when untaken; next
			// hasn't been finalized yet, so record the block itself and
			// resolve its label once construction finishes.
			b.pendingNext = next
		}
		return []*BasicBlock{b}, next
	}
	return nil, b
}

// finalize computes gen/kill from the block's statements and assigns a
// synthetic label if none was ever attached (a block reachable only by
// fallthrough still needs a name for the successor-wiring pass).
func (b *BasicBlock) finalize(newLabel func() *symbols.Symbol) {
	if b.LabelIn == nil {
		b.LabelIn = newLabel()
	}
	b.Gen = lowered.NewSymbolSet()
	b.Kill = lowered.NewSymbolSet()
	for _, stat := range b.Stats {
		used := stat.Used().Minus(b.Kill)
		b.Gen.UnionInPlace(used)
		b.Kill.UnionInPlace(stat.Defined())
	}
}

// removeUselessNext clears Next/NextLab when the block ends in an
// unconditional jump: control never falls through, so a fallthrough edge
// would be a phantom successor.
func (b *BasicBlock) removeUselessNext() {
	if len(b.Stats) == 0 {
		return
	}
	last := b.Stats[len(b.Stats)-1]
	if br, ok := last.(*lowered.Branch); ok && br.Cond == nil && !br.Returns {
		b.Next = nil
		b.NextLab = nil
	}
}

// followerLabels is the set of labels this block may transfer control to
// directly (not counting returning calls, which never change which block
// comes next).
func (b *BasicBlock) followerLabels() map[*symbols.Symbol]struct{} {
	s := make(map[*symbols.Symbol]struct{}, 2)
	if b.TargetLab != nil {
		s[b.TargetLab] = struct{}{}
	}
	if b.NextLab != nil {
		s[b.NextLab] = struct{}{}
	}
	return s
}

// Successors returns the blocks control may transfer to next: Next then
// Target for a real block (in that fixed order, for deterministic
// traversal), or the recorded head blocks for a fake entry block.
func (b *BasicBlock) Successors() []*BasicBlock {
	if b.Fake {
		return b.Succs
	}
	var out []*BasicBlock
	if b.Next != nil {
		out = append(out, b.Next)
	}
	if b.Target != nil {
		out = append(out, b.Target)
	}
	return out
}

// buildBasicBlocks splits a flat lowered statement sequence into basic
// blocks, in left-to-right creation order.
func buildBasicBlocks(stats []lowered.Stat, newLabel func() *symbols.Symbol) []*BasicBlock {
	var blocks []*BasicBlock
	cur := newBlock()
	for _, s := range stats {
		completed, active := cur.append(s, newLabel)
		blocks = append(blocks, completed...)
		cur = active
	}
	if !cur.isEmpty() || cur.LabelIn != nil {
		cur.finalize(newLabel)
		blocks = append(blocks, cur)
	}

	for _, bb := range blocks {
		if bb.pendingNext != nil {
			bb.NextLab = bb.pendingNext.LabelIn
			bb.pendingNext = nil
		}
	}
	return blocks
}
