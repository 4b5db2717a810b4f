// Package regalloc assigns physical registers to the register-class
// temporaries lowering produced, using a linear-scan allocator over the
// instruction-numbered live intervals derived from a deterministic CFG
// walk. Symbols that don't fit are spilled to a dedicated frame section.
package regalloc

import (
	"sort"

	"github.com/pl0beta/pl0c/pkg/cfg"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// SpillFlag marks a symbol as spilled in AllocInfo.VarToReg, pending
// rematerialization into a scratch register. It is picked far outside any
// real register index so IsSpilled's ">= nregs-2" test, and a stray
// unmapped lookup, both read unambiguously.
const SpillFlag = 1 << 30

// AllocInfo is the linear scan's result: where each register-class symbol
// ended up, how many distinct symbols were spilled, and the spill-slot
// bookkeeping the scratch-register rotation needs while materializing
// spilled operands during emission.
type AllocInfo struct {
	VarToReg map[*symbols.Symbol]int
	NumSpill int
	NRegs    int

	varToSpillOffset map[*symbols.Symbol]int
	spillOffsetNext  int
	scratchRotation  int
}

// NewAllocInfo creates an empty result for a pool of nregs physical
// registers; the top two are reserved as scratch space for rematerializing
// spilled operands, so only nregs-2 are ever handed out by the allocator.
func NewAllocInfo(nregs int) *AllocInfo {
	return &AllocInfo{
		VarToReg:         make(map[*symbols.Symbol]int),
		NRegs:            nregs,
		varToSpillOffset: make(map[*symbols.Symbol]int),
	}
}

// SpillRoom is the number of bytes the spill section of the stack frame
// must reserve, assuming one 4-byte slot per spilled symbol.
func (a *AllocInfo) SpillRoom() int { return a.NumSpill * 4 }

// IsSpilled reports whether var was assigned a scratch register rather
// than a dedicated one.
func (a *AllocInfo) IsSpilled(v *symbols.Symbol) bool {
	reg, ok := a.VarToReg[v]
	return ok && reg >= a.NRegs-2
}

// Dematerialize re-flags a spilled symbol as spilled after its value has
// been temporarily loaded into a scratch register for one instruction —
// the scratch register is about to be reused for something else, so the
// symbol must not be looked up as if it still lived there.
func (a *AllocInfo) Dematerialize(v *symbols.Symbol) {
	if a.VarToReg[v] >= a.NRegs-2 {
		a.VarToReg[v] = SpillFlag
	}
}

// Materialize ensures a spilled symbol has a scratch register assigned for
// the instruction currently being emitted, rotating between the two
// reserved scratch registers so two spilled operands of the same
// instruction don't collide. It reports whether v needed (and received)
// rematerialization at all.
func (a *AllocInfo) Materialize(v *symbols.Symbol) bool {
	if a.VarToReg[v] != SpillFlag {
		return a.VarToReg[v] >= a.NRegs-2
	}
	a.VarToReg[v] = a.scratchRotation + a.NRegs - 2
	a.scratchRotation = (a.scratchRotation + 1) % 2

	if _, ok := a.varToSpillOffset[v]; !ok {
		a.varToSpillOffset[v] = a.spillOffsetNext
		a.spillOffsetNext += 4
	}
	return true
}

// SpillOffset returns v's byte offset within the spill section. Panics if
// v was never spilled — callers must check IsSpilled/Materialize first.
func (a *AllocInfo) SpillOffset(v *symbols.Symbol) int {
	off, ok := a.varToSpillOffset[v]
	if !ok {
		panic("regalloc: symbol has no spill slot")
	}
	return off
}

type interval struct {
	sym  *symbols.Symbol
	def  int
	kill int
}

// computeIntervals numbers every instruction in g's deterministic walk
// order and, for each register-class symbol, records the index of its
// first definition and its last use — its live interval [def, kill].
func computeIntervals(g *cfg.CFG) []interval {
	minDef := make(map[*symbols.Symbol]int)
	maxUse := make(map[*symbols.Symbol]int)
	var order []*symbols.Symbol
	seen := make(map[*symbols.Symbol]bool)

	idx := 0
	for _, bb := range g.Walk() {
		for _, stat := range bb.Stats {
			for sym := range stat.Defined() {
				if _, ok := minDef[sym]; !ok {
					minDef[sym] = idx
					maxUse[sym] = idx
				}
				if !seen[sym] {
					seen[sym] = true
					order = append(order, sym)
				}
			}
			for sym := range stat.Used() {
				maxUse[sym] = idx
				if !seen[sym] {
					seen[sym] = true
					order = append(order, sym)
				}
			}
			idx++
		}
	}

	intervals := make([]interval, 0, len(order))
	for _, sym := range order {
		intervals = append(intervals, interval{sym: sym, def: minDef[sym], kill: maxUse[sym]})
	}
	sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].def < intervals[j].def })
	return intervals
}

// Allocate runs linear-scan register allocation over g, handing out nregs-2
// physical registers (the top two stay reserved as spill scratch space).
//
// Active intervals are kept sorted by increasing kill point. When a new
// interval starts with no free register available, the active interval
// that dies latest is evicted in its favor only if doing so actually frees
// up room — i.e. that interval outlives the new one; otherwise the new
// interval itself is the one that gets spilled. This greedy steal is what
// keeps short-lived temporaries out of the spill set even under register
// pressure from one long-lived one.
func Allocate(g *cfg.CFG, nregs int) *AllocInfo {
	intervals := computeIntervals(g)
	info := NewAllocInfo(nregs)

	var active []interval
	free := make(map[int]bool, nregs-2)
	for i := 0; i < nregs-2; i++ {
		free[i] = true
	}

	popFree := func() int {
		for r := 0; r < nregs-2; r++ {
			if free[r] {
				delete(free, r)
				return r
			}
		}
		panic("regalloc: popFree called with no free registers")
	}

	for _, cur := range intervals {
		i := 0
		for i < len(active) {
			if active[i].kill < cur.def {
				free[info.VarToReg[active[i].sym]] = true
				active = append(active[:i], active[i+1:]...)
			} else {
				i++
			}
		}

		if len(free) == 0 {
			toSpill := active[len(active)-1]
			if toSpill.kill > cur.kill {
				info.VarToReg[cur.sym] = info.VarToReg[toSpill.sym]
				info.VarToReg[toSpill.sym] = SpillFlag
				active = active[:len(active)-1]
				active = append(active, cur)
			} else {
				info.VarToReg[cur.sym] = SpillFlag
			}
			info.NumSpill++
		} else {
			info.VarToReg[cur.sym] = popFree()
			active = append(active, cur)
		}

		sort.SliceStable(active, func(i, j int) bool { return active[i].kill < active[j].kill })
	}

	return info
}
