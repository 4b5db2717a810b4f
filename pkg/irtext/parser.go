package irtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// Read parses text produced by Write (or hand-authored in the same format)
// back into a lowered.Block tree with freshly reconstructed symbols.
func Read(input string) (*lowered.Block, error) {
	p := &parser{
		lines:  strings.Split(input, "\n"),
		temps:  make(map[string]*symbols.Symbol),
		labels: make(map[string]*symbols.Symbol),
	}
	block, err := p.parseBlock(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("irtext: line %d: %w", p.lineNo, err)
	}
	return block, nil
}

// parser is a simple recursive-descent reader over the line-oriented
// format Write produces. Register temporaries and labels are named by a
// single shared counter across the whole program, so they resolve through
// one flat table each; named variables, constants, and procedures follow
// normal lexical scoping, so they resolve through a stack of per-block
// tables searched innermost first, mirroring symbols.SymbolTable.Lookup.
type parser struct {
	lines  []string
	pos    int
	lineNo int

	temps  map[string]*symbols.Symbol
	labels map[string]*symbols.Symbol
}

func (p *parser) next() (string, bool) {
	for p.pos < len(p.lines) {
		raw := p.lines[p.pos]
		p.pos++
		p.lineNo++
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, true
	}
	return "", false
}

func (p *parser) parseBlock(parentTable *symbols.SymbolTable, scopes []map[string]*symbols.Symbol) (*lowered.Block, error) {
	header, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("expected .block header, got EOF")
	}
	if !strings.HasPrefix(header, ".block ") {
		return nil, fmt.Errorf("expected .block header, got %q", header)
	}

	table := parentTable
	if table == nil {
		table = symbols.NewGlobalTable()
	} else {
		table = table.NewChild()
	}

	scope := make(map[string]*symbols.Symbol)
	scopes = append(append([]map[string]*symbols.Symbol{}, scopes...), scope)

	block := &lowered.Block{SymTab: table}
	var pendingLabel *symbols.Symbol

	for {
		line, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("unterminated .block (missing .endblock)")
		}

		switch {
		case line == ".endblock":
			return block, nil

		case strings.HasPrefix(line, ".sym "):
			if err := p.declareSym(table, scope, line); err != nil {
				return nil, err
			}

		case strings.HasPrefix(line, ".def "):
			name := strings.TrimSpace(strings.TrimPrefix(line, ".def"))
			fnSym, err := p.resolveNamed(name, scopes)
			if err != nil {
				return nil, fmt.Errorf(".def %s: %w", name, err)
			}
			body, err := p.parseBlock(table, scopes)
			if err != nil {
				return nil, err
			}
			body.Function = fnSym
			if tail, ok := p.next(); !ok || tail != ".enddef" {
				return nil, fmt.Errorf("expected .enddef, got %q", tail)
			}
			block.Defs = append(block.Defs, &lowered.Def{Function: fnSym, Body: body})

		case strings.HasSuffix(line, ":") && !strings.ContainsAny(line, " \t"):
			name := strings.TrimPrefix(strings.TrimSuffix(line, ":"), "@")
			pendingLabel = p.resolveLabel(name)

		default:
			stat, err := p.parseStat(line, scopes)
			if err != nil {
				return nil, err
			}
			if pendingLabel != nil {
				stat.SetLabel(pendingLabel)
				pendingLabel = nil
			}
			block.Stats = append(block.Stats, stat)
		}
	}
}

func (p *parser) declareSym(table *symbols.SymbolTable, scope map[string]*symbols.Symbol, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return fmt.Errorf("malformed .sym line %q", line)
	}
	name, typeTok, classTok := fields[1], fields[2], fields[3]

	typ, err := decodeType(typeTok)
	if err != nil {
		return err
	}
	class, err := decodeClass(classTok)
	if err != nil {
		return err
	}

	var sym *symbols.Symbol
	switch class {
	case symbols.AllocReg:
		return fmt.Errorf(".sym %s: register temporaries are never declared in a block's symbol table", name)
	case symbols.AllocImm:
		if len(fields) < 5 {
			return fmt.Errorf(".sym %s: an imm symbol requires a value", name)
		}
		value, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return fmt.Errorf(".sym %s: bad immediate value: %w", name, err)
		}
		sym = symbols.NewImmediate(name, typ, value)
		table.Declare(sym)
	default:
		sym = symbols.NewNamed(name, typ)
		table.Declare(sym)
	}

	scope[name] = sym
	return nil
}

func (p *parser) resolveNamed(name string, scopes []map[string]*symbols.Symbol) (*symbols.Symbol, error) {
	for i := len(scopes) - 1; i >= 0; i-- {
		if sym, ok := scopes[i][name]; ok {
			return sym, nil
		}
	}
	return nil, fmt.Errorf("undeclared symbol %q", name)
}

func (p *parser) resolveLabel(name string) *symbols.Symbol {
	if sym, ok := p.labels[name]; ok {
		return sym
	}
	sym := &symbols.Symbol{Name: name, Type: &symbols.LabelType{}, Level: symbols.NoLevel}
	p.labels[name] = sym
	return sym
}

func (p *parser) resolveTemp(name string) *symbols.Symbol {
	if sym, ok := p.temps[name]; ok {
		return sym
	}
	sym := symbols.NewRegister(name, symbols.Int32)
	p.temps[name] = sym
	return sym
}

// resolveOperand dispatches on the sigil Write attaches to register
// temporaries (%) and labels (@); anything else must have been declared
// by a .sym line somewhere in the enclosing scope chain.
func (p *parser) resolveOperand(tok string, scopes []map[string]*symbols.Symbol) (*symbols.Symbol, error) {
	if tok == "-" {
		return nil, nil
	}
	if rest, ok := strings.CutPrefix(tok, "%"); ok {
		return p.resolveTemp(rest), nil
	}
	if rest, ok := strings.CutPrefix(tok, "@"); ok {
		return p.resolveLabel(rest), nil
	}
	return p.resolveNamed(tok, scopes)
}

var binOps = map[string]lowered.BinOpKind{
	"+": lowered.OpAdd, "-": lowered.OpSub, "*": lowered.OpMul, "/": lowered.OpDiv, "%": lowered.OpMod,
	"==": lowered.OpEq, "!=": lowered.OpNe, "<": lowered.OpLt, "<=": lowered.OpLe, ">": lowered.OpGt, ">=": lowered.OpGe,
	"&&": lowered.OpAnd, "||": lowered.OpOr,
}

var unaryOps = map[string]lowered.UnaryOpKind{
	"-": lowered.OpNeg,
	"!": lowered.OpNot,
}

func (p *parser) parseStat(line string, scopes []map[string]*symbols.Symbol) (lowered.Stat, error) {
	fields := strings.Fields(line)
	op := fields[0]
	arg := func(i int) (*symbols.Symbol, error) { return p.resolveOperand(fields[i], scopes) }

	switch op {
	case "loadimm":
		dest, err := arg(1)
		if err != nil {
			return nil, err
		}
		value, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("loadimm: bad value: %w", err)
		}
		return lowered.NewLoadImm(dest, value), nil

	case "load":
		dest, err1 := arg(1)
		src, err2 := arg(2)
		if err := firstErr(err1, err2); err != nil {
			return nil, err
		}
		return lowered.NewLoad(dest, src), nil

	case "store":
		target, err1 := arg(1)
		src, err2 := arg(2)
		if err := firstErr(err1, err2); err != nil {
			return nil, err
		}
		return lowered.NewStore(target, src), nil

	case "loadaddr":
		dest, err1 := arg(1)
		src, err2 := arg(2)
		if err := firstErr(err1, err2); err != nil {
			return nil, err
		}
		return lowered.NewLoadAddr(dest, src), nil

	case "binop":
		dest, err1 := arg(1)
		kind, ok := binOps[fields[2]]
		if !ok {
			return nil, fmt.Errorf("binop: unknown operator %q", fields[2])
		}
		left, err2 := arg(3)
		right, err3 := arg(4)
		if err := firstErr(err1, err2, err3); err != nil {
			return nil, err
		}
		return lowered.NewBinOp(dest, kind, left, right), nil

	case "unop":
		dest, err1 := arg(1)
		kind, ok := unaryOps[fields[2]]
		if !ok {
			return nil, fmt.Errorf("unop: unknown operator %q", fields[2])
		}
		src, err2 := arg(3)
		if err := firstErr(err1, err2); err != nil {
			return nil, err
		}
		return lowered.NewUnaryOp(dest, kind, src), nil

	case "jump":
		target, err := arg(1)
		if err != nil {
			return nil, err
		}
		return lowered.NewJump(target), nil

	case "cjump":
		target, err1 := arg(1)
		cond, err2 := arg(2)
		if err := firstErr(err1, err2); err != nil {
			return nil, err
		}
		return lowered.NewConditionalJump(target, cond, fields[3] == "1"), nil

	case "call":
		target, err := arg(1)
		if err != nil {
			return nil, err
		}
		return lowered.NewCall(target), nil

	case "empty":
		return lowered.NewEmpty(), nil

	case "print":
		src, err := arg(1)
		if err != nil {
			return nil, err
		}
		return lowered.NewPrint(src), nil

	case "read":
		dest, err := arg(1)
		if err != nil {
			return nil, err
		}
		return lowered.NewRead(dest), nil
	}

	return nil, fmt.Errorf("unknown statement opcode %q", op)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
