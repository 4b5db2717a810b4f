// Package liveness computes, for every basic block and then for every
// instruction within it, which register symbols are live across that
// point in the program. The register allocator (pkg/regalloc) builds its
// live intervals from def/use indices directly and does not read these sets.
package liveness

import (
	"github.com/pl0beta/pl0c/pkg/cfg"
	"github.com/pl0beta/pl0c/pkg/lowered"
)

// Compute runs the block-level fixpoint over every function in g (global
// block included), then derives instruction-level live sets by replaying
// each block backward from its live_out. It mutates each BasicBlock's
// LiveIn/LiveOut in place and returns the per-instruction live-out sets,
// keyed by statement identity. It panics if a block's backward replay does
// not arrive at that block's LiveIn.
func Compute(g *cfg.CFG) map[lowered.Stat]lowered.SymbolSet {
	for _, fc := range g.All() {
		seedExit(fc)
	}

	for {
		changed := false
		for _, fc := range g.All() {
			for _, bb := range fc.Blocks {
				if blockIter(bb) {
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	instrLiveOut := make(map[lowered.Stat]lowered.SymbolSet)
	for _, fc := range g.All() {
		for _, bb := range fc.Blocks {
			instrLiveness(bb, instrLiveOut)
		}
	}
	return instrLiveOut
}

// seedExit gives each function's fake exit block a live set equal to every
// global symbol: a write to a global may be observed after the function
// returns, by any caller, so the exit must treat all globals as live no
// matter which globals this particular function happens to touch. The
// global block itself has no caller to observe anything after it returns,
// so its own exit seeds empty instead. Both LiveIn and LiveOut carry the
// same set — the exit has no statements of its own, so the two are
// trivially equal, and blockIter pulls a predecessor's contribution from
// its successor's LiveIn, not LiveOut.
func seedExit(fc *cfg.FuncCFG) {
	live := lowered.NewSymbolSet()
	if fc.Function != nil {
		for _, sym := range fc.SymTab.Global().GlobalSymbols() {
			live.Add(sym)
		}
	}
	fc.Exit.LiveIn = live.Clone()
	fc.Exit.LiveOut = live.Clone()
	fc.Entry.LiveIn = lowered.NewSymbolSet()
	fc.Entry.LiveOut = lowered.NewSymbolSet()
}

// blockIter applies one round of the standard backward dataflow equations:
//
//	live_out(B) = union of live_in(S) for each successor S
//	live_in(B)  = gen(B) ∪ (live_out(B) − kill(B))
//
// It reports whether either set grew, so the fixpoint driver knows to loop
// again.
func blockIter(bb *cfg.BasicBlock) bool {
	if bb.LiveIn == nil {
		bb.LiveIn = lowered.NewSymbolSet()
	}
	if bb.LiveOut == nil {
		bb.LiveOut = lowered.NewSymbolSet()
	}

	newOut := lowered.NewSymbolSet()
	for _, succ := range bb.Successors() {
		if succ.LiveIn != nil {
			newOut.UnionInPlace(succ.LiveIn)
		}
	}

	newIn := bb.Gen.Union(newOut.Minus(bb.Kill))

	changed := !newOut.Equal(bb.LiveOut) || !newIn.Equal(bb.LiveIn)
	bb.LiveOut = newOut
	bb.LiveIn = newIn
	return changed
}

// instrLiveness replays bb's statements backward from its live_out,
// recording each statement's live-out set: the set of symbols live
// immediately after that instruction executes. This is what turns a
// block-granularity liveness result into per-instruction live sets. The set
// reached at the top of the block must equal bb.LiveIn; a mismatch is an
// internal inconsistency and panics.
func instrLiveness(bb *cfg.BasicBlock, out map[lowered.Stat]lowered.SymbolSet) {
	live := bb.LiveOut.Clone()
	for i := len(bb.Stats) - 1; i >= 0; i-- {
		stat := bb.Stats[i]
		out[stat] = live.Clone()
		live = stat.Used().Union(live.Minus(stat.Defined()))
	}
	if !live.Equal(bb.LiveIn) {
		panic("liveness: instruction-level replay of block " + bb.LabelIn.Name + " disagrees with its live_in")
	}
}
