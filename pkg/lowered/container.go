package lowered

import "github.com/pl0beta/pl0c/pkg/symbols"

// Block is the lowering stage's output for one lexical block: the global
// program or a single procedure body. It pairs the block's flat
// instruction sequence with the symbol table it was lowered against and
// the list of procedures nested directly inside it.
type Block struct {
	SymTab   *symbols.SymbolTable
	Function *symbols.Symbol // nil for the global (top-level) block
	Stats    []Stat
	Defs     []*Def
}

// Def binds a lowered function body to the symbol that names it.
type Def struct {
	Function *symbols.Symbol
	Body     *Block
}
