package ir

import (
	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// Const is a compile-time known value: either a bare integer literal or a
// reference to a symbol declared with allocation class imm (a named
// constant). Both fold to a single LoadImm in lowered form — assembly text
// has no use for keeping a named constant's memory location around, so it
// always materializes the literal value directly.
type Const struct {
	node
	Value int64
	Typ   symbols.Type
	Named *symbols.Symbol // non-nil when this Const names an imm-class symbol
}

// NewIntLiteral creates a bare integer constant.
func NewIntLiteral(id NodeID, value int64, t symbols.Type) *Const {
	return &Const{node: node{id: id}, Value: value, Typ: t}
}

// NewNamedConst creates a constant referencing a previously declared
// imm-class symbol.
func NewNamedConst(id NodeID, sym *symbols.Symbol) *Const {
	v, _ := sym.Value.(int64)
	return &Const{node: node{id: id}, Value: v, Typ: sym.Type, Named: sym}
}

func (c *Const) Children() []Node { return nil }

func (c *Const) Lower(ctx *Builder) []lowered.Stat {
	dest := ctx.NewTemp(c.Typ)
	return []lowered.Stat{lowered.NewLoadImm(dest, c.Value)}
}

// Var reads a named, memory-resident symbol.
type Var struct {
	node
	Symbol *symbols.Symbol
}

func NewVar(id NodeID, sym *symbols.Symbol) *Var {
	return &Var{node: node{id: id}, Symbol: sym}
}

func (v *Var) Children() []Node { return nil }

func (v *Var) Lower(ctx *Builder) []lowered.Stat {
	dest := ctx.NewTemp(v.Symbol.Type)
	return []lowered.Stat{lowered.NewLoad(dest, v.Symbol)}
}

// ArrayElement reads one element of a (possibly multi-dimensional) array,
// indexed by one expression per dimension.
type ArrayElement struct {
	node
	Array   *symbols.Symbol
	Indices []Node
}

func NewArrayElement(id NodeID, array *symbols.Symbol, indices []Node) *ArrayElement {
	return &ArrayElement{node: node{id: id}, Array: array, Indices: indices}
}

func (a *ArrayElement) Children() []Node { return a.Indices }

// computeAddress lowers the index expressions and the base address, leaving
// a register holding the element's absolute address. Shared by both reads
// (ArrayElement.Lower) and writes (AssignStat targeting an ArrayElement),
// since both need the identical address arithmetic.
func (a *ArrayElement) computeAddress(ctx *Builder) ([]lowered.Stat, *symbols.Symbol) {
	arr := a.Array.Type.(*symbols.ArrayType)
	var stats []lowered.Stat

	idx0 := lowerNode(ctx, a.Indices[0])
	stats = append(stats, idx0...)
	acc := destinationOf(idx0)

	for k := 1; k < len(a.Indices); k++ {
		idxK := lowerNode(ctx, a.Indices[k])
		stats = append(stats, idxK...)
		idxKDest := destinationOf(idxK)

		strideTmp := ctx.NewTemp(symbols.UInt32)
		stats = append(stats, lowered.NewLoadImm(strideTmp, int64(arr.Dims[k])))

		mulTmp := ctx.NewTemp(symbols.UInt32)
		stats = append(stats, lowered.NewBinOp(mulTmp, lowered.OpMul, acc, strideTmp))

		addTmp := ctx.NewTemp(symbols.UInt32)
		stats = append(stats, lowered.NewBinOp(addTmp, lowered.OpAdd, mulTmp, idxKDest))
		acc = addTmp
	}

	elemSizeTmp := ctx.NewTemp(symbols.UInt32)
	stats = append(stats, lowered.NewLoadImm(elemSizeTmp, int64(arr.Element.ByteSize())))

	offsetTmp := ctx.NewTemp(symbols.UInt32)
	stats = append(stats, lowered.NewBinOp(offsetTmp, lowered.OpMul, acc, elemSizeTmp))

	baseTmp := ctx.NewTemp(&symbols.PointerType{Pointee: arr.Element})
	stats = append(stats, lowered.NewLoadAddr(baseTmp, a.Array))

	addrTmp := ctx.NewTemp(&symbols.PointerType{Pointee: arr.Element})
	stats = append(stats, lowered.NewBinOp(addrTmp, lowered.OpAdd, baseTmp, offsetTmp))

	return stats, addrTmp
}

func (a *ArrayElement) Lower(ctx *Builder) []lowered.Stat {
	arr := a.Array.Type.(*symbols.ArrayType)
	stats, addr := a.computeAddress(ctx)
	dest := ctx.NewTemp(arr.Element)
	stats = append(stats, lowered.NewLoad(dest, addr))
	return stats
}

// BinExpr applies a binary operator to two operands, widening the result
// per symbols.WiderOf.
type BinExpr struct {
	node
	Op          lowered.BinOpKind
	Left, Right Node
}

func NewBinExpr(id NodeID, op lowered.BinOpKind, left, right Node) *BinExpr {
	return &BinExpr{node: node{id: id}, Op: op, Left: left, Right: right}
}

func (b *BinExpr) Children() []Node { return []Node{b.Left, b.Right} }

func (b *BinExpr) Lower(ctx *Builder) []lowered.Stat {
	leftStats := lowerNode(ctx, b.Left)
	rightStats := lowerNode(ctx, b.Right)
	leftDest := destinationOf(leftStats)
	rightDest := destinationOf(rightStats)

	stats := append(append([]lowered.Stat{}, leftStats...), rightStats...)
	dest := ctx.NewTemp(symbols.WiderOf(leftDest.Type, rightDest.Type))
	stats = append(stats, lowered.NewBinOp(dest, b.Op, leftDest, rightDest))
	return stats
}

// UnExpr applies a unary operator to one operand.
type UnExpr struct {
	node
	Op      lowered.UnaryOpKind
	Operand Node
}

func NewUnExpr(id NodeID, op lowered.UnaryOpKind, operand Node) *UnExpr {
	return &UnExpr{node: node{id: id}, Op: op, Operand: operand}
}

func (u *UnExpr) Children() []Node { return []Node{u.Operand} }

func (u *UnExpr) Lower(ctx *Builder) []lowered.Stat {
	operandStats := lowerNode(ctx, u.Operand)
	operandDest := destinationOf(operandStats)
	dest := ctx.NewTemp(operandDest.Type)
	stats := append(append([]lowered.Stat{}, operandStats...), lowered.NewUnaryOp(dest, u.Op, operandDest))
	return stats
}
