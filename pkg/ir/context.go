// Package ir defines the high-level tree the parser is expected to hand the
// compiler: expressions and statements whose Lower method performs the
// post-order walk down to pkg/lowered's three-address form.
//
// Nodes are addressed by NodeID rather than carrying parent back-pointers:
// a parent pointer threaded through every child becomes a reference cycle
// for no benefit here, since lowering never walks upward. Dropping the
// back-pointer keeps node ownership a plain tree and Lower a simple
// recursive descent.
package ir

import (
	"fmt"

	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// NodeID uniquely identifies a node within one Builder's arena.
type NodeID int

// Node is implemented by every expression and statement in the tree.
// Lower assumes every child has already been lowered (the Builder is
// responsible for the post-order traversal order, which in this
// implementation falls naturally out of each Lower method lowering its
// children before constructing its own statements).
type Node interface {
	ID() NodeID
	Children() []Node
	Lower(ctx *Builder) []lowered.Stat
}

// node is embedded by every concrete node type to supply ID().
type node struct {
	id NodeID
}

func (n node) ID() NodeID { return n.id }

// Builder owns the monotonic counters a compilation needs: fresh temporary
// ids, fresh label ids, and node ids for the arena. It is the sole mutable,
// non-thread-safe piece of shared state lowering touches, matching the
// spec's "one compilation context owned by the orchestrator" rule.
type Builder struct {
	tempCounter  int
	labelCounter int
	nodeCounter  NodeID

	lowered map[NodeID]bool
}

// NewBuilder creates an empty compilation context.
func NewBuilder() *Builder {
	return &Builder{lowered: make(map[NodeID]bool)}
}

func (b *Builder) nextID() NodeID {
	b.nodeCounter++
	return b.nodeCounter
}

// NewTemp mints a fresh register-class temporary of type t.
func (b *Builder) NewTemp(t symbols.Type) *symbols.Symbol {
	b.tempCounter++
	return symbols.NewRegister(fmt.Sprintf("t%d", b.tempCounter), t)
}

// NewLabel mints a fresh label symbol, unbound to any statement until
// SetLabel is called on the statement it marks.
func (b *Builder) NewLabel() *symbols.Symbol {
	b.labelCounter++
	return &symbols.Symbol{
		Name:  fmt.Sprintf("label_%d", b.labelCounter),
		Type:  &symbols.LabelType{},
		Level: symbols.NoLevel,
	}
}

func (b *Builder) markLowered(id NodeID) { b.lowered[id] = true }

// lowerNode lowers n and records that it was lowered, for VerifyAllLowered.
func lowerNode(b *Builder, n Node) []lowered.Stat {
	stats := n.Lower(b)
	b.markLowered(n.ID())
	return stats
}

// VerifyAllLowered walks every node reachable from root and confirms it was
// lowered: every IR node has a non-null lowered pointer after the lowering
// pass.
func VerifyAllLowered(root Node, b *Builder) error {
	return verify(root, b, make(map[NodeID]bool))
}

func verify(n Node, b *Builder, visited map[NodeID]bool) error {
	if n == nil {
		return nil
	}
	if visited[n.ID()] {
		return nil
	}
	visited[n.ID()] = true
	if !b.lowered[n.ID()] {
		return fmt.Errorf("ir: node %d (%T) was never lowered", n.ID(), n)
	}
	for _, c := range n.Children() {
		if err := verify(c, b, visited); err != nil {
			return err
		}
	}
	return nil
}

// destinationOf returns the register that stat's sequence leaves its value
// in: the destination of its final instruction. Lowering an expression
// always ends in an instruction with a non-nil destination; a fatal
// internal error (an empty or mis-shaped sequence) panics rather than
// silently producing a nil destination downstream.
func destinationOf(stats []lowered.Stat) *symbols.Symbol {
	if len(stats) == 0 {
		panic("ir: expression lowered to an empty statement sequence")
	}
	dest := stats[len(stats)-1].Destination()
	if dest == nil {
		panic("ir: expression's lowered form has no destination")
	}
	return dest
}
