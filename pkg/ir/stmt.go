package ir

import (
	"fmt"

	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// AssignStat stores the value of Expr into Target, which must be either a
// *Var or an *ArrayElement — anything else is a construction-time mistake
// by whatever builds the tree.
type AssignStat struct {
	node
	Target Node
	Expr   Node
}

func NewAssignStat(id NodeID, target, expr Node) *AssignStat {
	return &AssignStat{node: node{id: id}, Target: target, Expr: expr}
}

func (a *AssignStat) Children() []Node { return []Node{a.Target, a.Expr} }

func (a *AssignStat) Lower(ctx *Builder) []lowered.Stat {
	valStats := lowerNode(ctx, a.Expr)
	valDest := destinationOf(valStats)

	switch t := a.Target.(type) {
	case *Var:
		ctx.markLowered(t.ID())
		return append(append([]lowered.Stat{}, valStats...), lowered.NewStore(t.Symbol, valDest))
	case *ArrayElement:
		addrStats, addr := t.computeAddress(ctx)
		ctx.markLowered(t.ID())
		stats := append(append([]lowered.Stat{}, addrStats...), valStats...)
		return append(stats, lowered.NewStore(addr, valDest))
	default:
		panic(fmt.Sprintf("ir: AssignStat target must be *Var or *ArrayElement, got %T", a.Target))
	}
}

// CallStat invokes a parameterless procedure for effect.
type CallStat struct {
	node
	Function *symbols.Symbol
}

func NewCallStat(id NodeID, function *symbols.Symbol) *CallStat {
	return &CallStat{node: node{id: id}, Function: function}
}

func (c *CallStat) Children() []Node { return nil }

func (c *CallStat) Lower(ctx *Builder) []lowered.Stat {
	return []lowered.Stat{lowered.NewCall(c.Function)}
}

// StatList sequences statements, concatenating each one's lowered form in
// order. It carries no statements of its own.
type StatList struct {
	node
	Stats []Node
}

func NewStatList(id NodeID, stats []Node) *StatList {
	return &StatList{node: node{id: id}, Stats: stats}
}

func (s *StatList) Children() []Node { return s.Stats }

func (s *StatList) Lower(ctx *Builder) []lowered.Stat {
	var out []lowered.Stat
	for _, stat := range s.Stats {
		out = append(out, lowerNode(ctx, stat)...)
	}
	return out
}

// IfStat is a conditional with an optional else branch. Without an else,
// lowering follows the negate-and-skip shape: the condition's sense is
// inverted so a single conditional branch can jump past the consequent when
// the guard is false. With an else, the branch jumps to the then-part on the
// condition as written, and the else-part falls through and jumps past it.
type IfStat struct {
	node
	Cond Node
	Then Node
	Else Node // nil when there is no else branch
}

func NewIfStat(id NodeID, cond, then, els Node) *IfStat {
	return &IfStat{node: node{id: id}, Cond: cond, Then: then, Else: els}
}

func (s *IfStat) Children() []Node {
	if s.Else != nil {
		return []Node{s.Cond, s.Then, s.Else}
	}
	return []Node{s.Cond, s.Then}
}

func (s *IfStat) Lower(ctx *Builder) []lowered.Stat {
	condStats := lowerNode(ctx, s.Cond)
	condDest := destinationOf(condStats)

	out := append([]lowered.Stat{}, condStats...)

	if s.Else == nil {
		exitLabel := ctx.NewLabel()
		out = append(out, lowered.NewConditionalJump(exitLabel, condDest, true))
		out = append(out, lowerNode(ctx, s.Then)...)
		exitMarker := lowered.NewEmpty()
		exitMarker.SetLabel(exitLabel)
		out = append(out, exitMarker)
		return out
	}

	thenLabel := ctx.NewLabel()
	exitLabel := ctx.NewLabel()

	out = append(out, lowered.NewConditionalJump(thenLabel, condDest, false))
	out = append(out, lowerNode(ctx, s.Else)...)
	out = append(out, lowered.NewJump(exitLabel))

	thenMarker := lowered.NewEmpty()
	thenMarker.SetLabel(thenLabel)
	out = append(out, thenMarker)
	out = append(out, lowerNode(ctx, s.Then)...)

	exitMarker := lowered.NewEmpty()
	exitMarker.SetLabel(exitLabel)
	out = append(out, exitMarker)
	return out
}

// WhileStat re-evaluates Cond before every iteration of Body.
type WhileStat struct {
	node
	Cond Node
	Body Node
}

func NewWhileStat(id NodeID, cond, body Node) *WhileStat {
	return &WhileStat{node: node{id: id}, Cond: cond, Body: body}
}

func (s *WhileStat) Children() []Node { return []Node{s.Cond, s.Body} }

func (s *WhileStat) Lower(ctx *Builder) []lowered.Stat {
	startLabel := ctx.NewLabel()
	exitLabel := ctx.NewLabel()

	startMarker := lowered.NewEmpty()
	startMarker.SetLabel(startLabel)

	condStats := lowerNode(ctx, s.Cond)
	condDest := destinationOf(condStats)

	out := []lowered.Stat{startMarker}
	out = append(out, condStats...)
	out = append(out, lowered.NewConditionalJump(exitLabel, condDest, true))
	out = append(out, lowerNode(ctx, s.Body)...)
	out = append(out, lowered.NewJump(startLabel))

	exitMarker := lowered.NewEmpty()
	exitMarker.SetLabel(exitLabel)
	out = append(out, exitMarker)
	return out
}

// PrintStat evaluates Expr and passes it to the runtime's print routine.
type PrintStat struct {
	node
	Expr Node
}

func NewPrintStat(id NodeID, expr Node) *PrintStat {
	return &PrintStat{node: node{id: id}, Expr: expr}
}

func (s *PrintStat) Children() []Node { return []Node{s.Expr} }

func (s *PrintStat) Lower(ctx *Builder) []lowered.Stat {
	exprStats := lowerNode(ctx, s.Expr)
	dest := destinationOf(exprStats)
	return append(append([]lowered.Stat{}, exprStats...), lowered.NewPrint(dest))
}

// ReadStat reads one value from the runtime and stores it into Target (a
// *Var or *ArrayElement). pl0's read statement is always "read into a
// variable", so Target is never nil; it lowers to a Read followed by a
// Store, matching how AssignStat handles the same two target shapes.
type ReadStat struct {
	node
	Target Node
}

func NewReadStat(id NodeID, target Node) *ReadStat {
	return &ReadStat{node: node{id: id}, Target: target}
}

func (s *ReadStat) Children() []Node { return []Node{s.Target} }

func (s *ReadStat) Lower(ctx *Builder) []lowered.Stat {
	switch t := s.Target.(type) {
	case *Var:
		tmp := ctx.NewTemp(t.Symbol.Type)
		ctx.markLowered(t.ID())
		return []lowered.Stat{lowered.NewRead(tmp), lowered.NewStore(t.Symbol, tmp)}
	case *ArrayElement:
		addrStats, addr := t.computeAddress(ctx)
		ctx.markLowered(t.ID())
		arr := t.Array.Type.(*symbols.ArrayType)
		tmp := ctx.NewTemp(arr.Element)
		out := append(append([]lowered.Stat{}, addrStats...), lowered.NewRead(tmp))
		return append(out, lowered.NewStore(addr, tmp))
	default:
		panic(fmt.Sprintf("ir: ReadStat target must be *Var or *ArrayElement, got %T", s.Target))
	}
}
