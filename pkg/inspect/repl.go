// Package inspect is an interactive, read-only explorer over a finished
// compiler.Result: its basic blocks, liveness sets, register allocation,
// frame layouts, and emitted assembly. Stepping through an already-computed
// result by hand is faster than re-reading dumped text.
package inspect

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pl0beta/pl0c/pkg/cfg"
	"github.com/pl0beta/pl0c/pkg/compiler"
	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/symbols"
	"golang.org/x/term"
)

// REPL drives the interactive session.
type REPL struct {
	result *compiler.Result
	in     *bufio.Reader
	out    io.Writer
}

// New creates a REPL over an already-compiled result, reading commands
// from in and writing output to out.
func New(result *compiler.Result, in io.Reader, out io.Writer) *REPL {
	return &REPL{result: result, in: bufio.NewReader(in), out: out}
}

// Run prints a banner and processes commands until quit or EOF.
func (r *REPL) Run() {
	fmt.Fprintln(r.out, "pl0c inspect — type 'help' for commands, 'quit' to exit")
	for {
		fmt.Fprint(r.out, "pl0c> ")
		line, err := r.in.ReadString('\n')
		if err != nil {
			fmt.Fprintln(r.out)
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return
		case "help":
			r.help()
		case "blocks":
			r.blocks()
		case "live":
			r.live(fields[1:])
		case "alloc":
			r.alloc()
		case "frame":
			r.frame(fields[1:])
		case "asm":
			r.asm(fields[1:])
		default:
			fmt.Fprintf(r.out, "unknown command %q (try 'help')\n", fields[0])
		}
	}
}

func (r *REPL) help() {
	fmt.Fprintln(r.out, `commands:
  blocks            list every basic block, its successors and function
  live <label>      show the live-in/live-out set of the block labeled <label>
  alloc             show the symbol -> register/spill assignment
  frame <func>      show a function's (or "global") frame size
  asm [n]           page through the generated assembly, n lines per screen
  quit              leave`)
}

func (r *REPL) blocks() {
	for _, fc := range r.result.CFG.All() {
		name := "global"
		if fc.Function != nil {
			name = fc.Function.Name
		}
		fmt.Fprintf(r.out, "function %s:\n", name)
		for _, bb := range fc.Blocks {
			fmt.Fprintf(r.out, "  %s: %s\n", bb.LabelIn.Name, describeSuccessors(bb))
		}
	}
}

func describeSuccessors(bb *cfg.BasicBlock) string {
	var parts []string
	if bb.Next != nil {
		parts = append(parts, "next="+blockName(bb.Next))
	}
	if bb.Target != nil {
		parts = append(parts, "target="+blockName(bb.Target))
	}
	if len(parts) == 0 {
		return "(no successors)"
	}
	return strings.Join(parts, " ")
}

func blockName(bb *cfg.BasicBlock) string {
	if bb.Fake {
		return "<exit>"
	}
	return bb.LabelIn.Name
}

func (r *REPL) live(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "usage: live <label>")
		return
	}
	target := args[0]
	for _, fc := range r.result.CFG.All() {
		for _, bb := range fc.Blocks {
			if bb.LabelIn.Name != target {
				continue
			}
			fmt.Fprintf(r.out, "live_in:  %s\n", symbolNames(bb.LiveIn))
			fmt.Fprintf(r.out, "live_out: %s\n", symbolNames(bb.LiveOut))
			return
		}
	}
	fmt.Fprintf(r.out, "no block labeled %q\n", target)
}

func symbolNames(set lowered.SymbolSet) string {
	syms := set.Slice()
	names := make([]string, len(syms))
	for i, s := range syms {
		names[i] = s.Name
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "(empty)"
	}
	return strings.Join(names, ", ")
}

func (r *REPL) alloc() {
	a := r.result.Alloc
	syms := make([]*symbols.Symbol, 0, len(a.VarToReg))
	for sym := range a.VarToReg {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })

	for _, sym := range syms {
		if a.IsSpilled(sym) {
			fmt.Fprintf(r.out, "  %-12s spilled\n", sym.Name)
		} else {
			fmt.Fprintf(r.out, "  %-12s r%d\n", sym.Name, a.VarToReg[sym])
		}
	}
	fmt.Fprintf(r.out, "%d symbols spilled, %d registers available\n", a.NumSpill, a.NRegs-2)
}

func (r *REPL) frame(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "usage: frame <func|global>")
		return
	}
	if args[0] == "global" {
		fmt.Fprintf(r.out, "frame size: %d bytes\n", r.result.Frame.Global.FrameSize())
		return
	}
	for fn, layout := range r.result.Frame.Functions {
		if fn.Name == args[0] {
			fmt.Fprintf(r.out, "frame size: %d bytes (level %d)\n", layout.FrameSize(), layout.Level())
			return
		}
	}
	fmt.Fprintf(r.out, "no function %q\n", args[0])
}

func (r *REPL) asm(args []string) {
	pageSize := 20
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			pageSize = n
		}
	}
	lines := strings.Split(r.result.Assembly, "\n")
	for i := 0; i < len(lines); i += pageSize {
		end := i + pageSize
		if end > len(lines) {
			end = len(lines)
		}
		for _, l := range lines[i:end] {
			fmt.Fprintln(r.out, l)
		}
		if end < len(lines) {
			fmt.Fprint(r.out, "-- more (press any key) --")
			waitKey(os.Stdin)
			fmt.Fprintln(r.out)
		}
	}
}

// waitKey pauses for a single keypress when stdin is a real terminal; it
// toggles raw mode just for the read so the rest of the REPL's line-based
// input is unaffected, and is a no-op (returns immediately) when stdin is
// redirected from a file or pipe.
func waitKey(f *os.File) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, old)
	buf := make([]byte, 1)
	f.Read(buf)
}
