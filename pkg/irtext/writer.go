package irtext

import (
	"fmt"
	"strings"

	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// Write renders program — the global block and every procedure nested
// inside it — as text.
func Write(program *lowered.Block) string {
	w := &writer{}
	w.writeBlock(program, 0)
	return w.sb.String()
}

type writer struct {
	sb    strings.Builder
	depth int
}

func (w *writer) indent() string { return strings.Repeat("  ", w.depth) }

func (w *writer) line(format string, args ...interface{}) {
	fmt.Fprintf(&w.sb, "%s%s\n", w.indent(), fmt.Sprintf(format, args...))
}

func (w *writer) writeBlock(b *lowered.Block, level int) {
	w.line(".block %d", level)
	w.depth++

	for _, sym := range b.SymTab.Symbols() {
		if sym.Class == symbols.AllocImm {
			w.line(".sym %s %s %s %v", sym.Name, encodeType(sym.Type), encodeClass(sym.Class), sym.Value)
			continue
		}
		w.line(".sym %s %s %s", sym.Name, encodeType(sym.Type), encodeClass(sym.Class))
	}

	for _, stat := range b.Stats {
		w.writeStat(stat)
	}

	for _, def := range b.Defs {
		w.line(".def %s", def.Function.Name)
		w.writeBlock(def.Body, level+1)
		w.line(".enddef")
	}

	w.depth--
	w.line(".endblock")
}

func (w *writer) writeStat(stat lowered.Stat) {
	if label := stat.Label(); label != nil {
		w.line("%s:", operand(label))
	}

	switch s := stat.(type) {
	case *lowered.LoadImm:
		w.line("loadimm %s %d", operand(s.Destination()), s.Value)
	case *lowered.Load:
		w.line("load %s %s", operand(s.Destination()), operand(s.Source))
	case *lowered.Store:
		w.line("store %s %s", operand(s.Target), operand(s.Source))
	case *lowered.LoadAddr:
		w.line("loadaddr %s %s", operand(s.Destination()), operand(s.Source))
	case *lowered.BinOp:
		w.line("binop %s %s %s %s", operand(s.Destination()), s.Op, operand(s.Left), operand(s.Right))
	case *lowered.UnaryOp:
		w.line("unop %s %s %s", operand(s.Destination()), s.Op, operand(s.Src))
	case *lowered.Branch:
		w.writeBranch(s)
	case *lowered.Empty:
		w.line("empty")
	case *lowered.Print:
		w.line("print %s", operand(s.Src))
	case *lowered.Read:
		w.line("read %s", operand(s.Destination()))
	default:
		panic(fmt.Sprintf("irtext: unsupported statement type %T", stat))
	}
}

func (w *writer) writeBranch(s *lowered.Branch) {
	switch {
	case s.Returns:
		w.line("call %s", operand(s.Target))
	case s.Cond != nil:
		neg := 0
		if s.Negated {
			neg = 1
		}
		w.line("cjump %s %s %d", operand(s.Target), operand(s.Cond), neg)
	default:
		w.line("jump %s", operand(s.Target))
	}
}

// operand renders a symbol reference: a sigil distinguishes register
// temporaries and labels, neither of which is declared by a .sym line,
// from named auto/imm symbols that are.
func operand(sym *symbols.Symbol) string {
	if sym == nil {
		return "-"
	}
	if sym.Class == symbols.AllocReg {
		return "%" + sym.Name
	}
	if _, ok := sym.Type.(*symbols.LabelType); ok {
		return "@" + sym.Name
	}
	return sym.Name
}
