// Package compiler orchestrates the backend pipeline end to end: lowering,
// control-flow graph construction, liveness, register allocation, frame
// layout, and finally code emission.
package compiler

import (
	"fmt"

	"github.com/pl0beta/pl0c/pkg/cfg"
	"github.com/pl0beta/pl0c/pkg/codegen"
	"github.com/pl0beta/pl0c/pkg/frame"
	"github.com/pl0beta/pl0c/pkg/ir"
	"github.com/pl0beta/pl0c/pkg/liveness"
	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/regalloc"
	"github.com/pl0beta/pl0c/pkg/symbols"
)

// DefaultNRegs is the register pool size used when Config.NRegs is left
// at zero: enough general-purpose registers for an ARM target (r0-r12)
// with two reserved as spill scratch.
const DefaultNRegs = 13

// Config controls one compilation run.
type Config struct {
	// NRegs is the number of physical registers the allocator may use,
	// including the two it reserves as spill scratch. Zero selects
	// DefaultNRegs.
	NRegs int
	// Backend names the registered code generation target, e.g. "arm".
	Backend string
	// Debug enables verbose backend diagnostics.
	Debug bool
}

// Result is everything a compilation produced, for callers (tests, the
// CLI, tooling) that want to inspect an intermediate stage rather than
// just the final assembly text.
type Result struct {
	Lowered  *lowered.Block
	CFG      *cfg.CFG
	Alloc    *regalloc.AllocInfo
	Frame    *frame.Result
	Assembly string
}

// Compile lowers root, the top-level program block handed over by the
// parser, and runs the lowered form through the rest of the pipeline.
func Compile(root *ir.Block, cfg_ Config) (*Result, error) {
	builder := ir.NewBuilder()
	loweredProgram := root.Lower(builder)
	if err := ir.VerifyBlockLowered(root, builder); err != nil {
		return nil, fmt.Errorf("compiler: lowering invariant violated: %w", err)
	}
	return CompileLowered(loweredProgram, cfg_)
}

// CompileLowered runs an already-lowered program — e.g. one read back by
// pkg/irtext — through CFG construction, liveness, register allocation,
// frame layout, and code emission. This is the entry point pl0c's CLI uses
// directly to compile straight from a saved MIR file without re-running a
// front end.
func CompileLowered(loweredProgram *lowered.Block, cfg_ Config) (*Result, error) {
	nregs := cfg_.NRegs
	if nregs == 0 {
		nregs = DefaultNRegs
	}
	backendName := cfg_.Backend
	if backendName == "" {
		backendName = "arm"
	}

	graph := cfg.Build(loweredProgram, syntheticLabeler())
	liveness.Compute(graph)

	alloc := regalloc.Allocate(graph, nregs)
	frameResult := frame.PerformLayout(loweredProgram, alloc)

	backend := codegen.GetBackend(backendName, &codegen.BackendOptions{Debug: cfg_.Debug})
	if backend == nil {
		return nil, fmt.Errorf("compiler: unknown backend %q (available: %v)", backendName, codegen.ListBackends())
	}

	prog := &codegen.Program{Root: loweredProgram, CFG: graph, Alloc: alloc, Frame: frameResult}
	asm, err := backend.Generate(prog)
	if err != nil {
		return nil, fmt.Errorf("compiler: code generation failed: %w", err)
	}

	return &Result{Lowered: loweredProgram, CFG: graph, Alloc: alloc, Frame: frameResult, Assembly: asm}, nil
}

// syntheticLabeler mints fresh label symbols for CFG construction's
// auto-labeling of fall-through blocks when there is no ir.Builder around
// to hand out label names (the program arrived already lowered). The
// cfgaux_ prefix keeps these from ever colliding with a label name chosen
// by lowering or by hand in an irtext fixture.
func syntheticLabeler() func() *symbols.Symbol {
	n := 0
	return func() *symbols.Symbol {
		n++
		return &symbols.Symbol{Name: fmt.Sprintf("cfgaux_%d", n), Type: &symbols.LabelType{}, Level: symbols.NoLevel}
	}
}
