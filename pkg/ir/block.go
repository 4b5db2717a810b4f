package ir

import (
	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// FunctionDef binds a procedure body to the symbol naming it. It sits
// outside the Node interface — unlike expressions and statements it never
// appears as anyone's child in the expression sense, it is only ever a
// member of a Block's Defs — so it gets its own Lower signature returning
// a *lowered.Def rather than a flat statement slice.
type FunctionDef struct {
	id       NodeID
	Function *symbols.Symbol
	Body     *Block
}

func NewFunctionDef(id NodeID, function *symbols.Symbol, body *Block) *FunctionDef {
	return &FunctionDef{id: id, Function: function, Body: body}
}

func (fd *FunctionDef) ID() NodeID { return fd.id }

func (fd *FunctionDef) Lower(ctx *Builder) *lowered.Def {
	body := fd.Body.Lower(ctx)
	ctx.markLowered(fd.id)
	return &lowered.Def{Function: fd.Function, Body: body}
}

// Block is one lexical block: the top-level program or a single procedure
// body. It pairs the block's own statement sequence with the procedures
// declared directly inside it.
type Block struct {
	id       NodeID
	SymTab   *symbols.SymbolTable
	Function *symbols.Symbol // nil for the top-level block
	Body     Node            // typically a *StatList
	Defs     []*FunctionDef
}

func NewBlock(id NodeID, symtab *symbols.SymbolTable, function *symbols.Symbol, body Node, defs []*FunctionDef) *Block {
	return &Block{id: id, SymTab: symtab, Function: function, Body: body, Defs: defs}
}

func (b *Block) ID() NodeID { return b.id }

func (b *Block) Lower(ctx *Builder) *lowered.Block {
	defs := make([]*lowered.Def, 0, len(b.Defs))
	for _, d := range b.Defs {
		defs = append(defs, d.Lower(ctx))
	}
	stats := lowerNode(ctx, b.Body)
	ctx.markLowered(b.id)
	return &lowered.Block{SymTab: b.SymTab, Function: b.Function, Stats: stats, Defs: defs}
}

// VerifyBlockLowered walks a Block, its nested FunctionDefs and their
// bodies, checking that every node of each statement tree inside them was
// lowered (the Block and FunctionDef containers themselves are not
// checked). It is the container-aware counterpart to VerifyAllLowered,
// which only walks the Node interface's Children() edges.
func VerifyBlockLowered(b *Block, ctx *Builder) error {
	if err := VerifyAllLowered(b.Body, ctx); err != nil {
		return err
	}
	for _, d := range b.Defs {
		if err := VerifyBlockLowered(d.Body, ctx); err != nil {
			return err
		}
	}
	return nil
}
