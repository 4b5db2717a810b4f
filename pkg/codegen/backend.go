package codegen

import (
	"github.com/pl0beta/pl0c/pkg/cfg"
	"github.com/pl0beta/pl0c/pkg/frame"
	"github.com/pl0beta/pl0c/pkg/lowered"
	"github.com/pl0beta/pl0c/pkg/regalloc"
)

// Program bundles everything a backend needs to emit code for a whole
// compilation: the lowered tree, its control-flow graph, the register
// allocation result, and the frame layout of every function plus the
// global data segment.
type Program struct {
	Root  *lowered.Block
	CFG   *cfg.CFG
	Alloc *regalloc.AllocInfo
	Frame *frame.Result
}

// Backend is the interface every code generation target implements. Only
// one target (arm) ships today, but the registry below keeps adding a
// second instruction set a matter of writing a new Generate, not
// restructuring the compiler.
type Backend interface {
	// Name returns the backend's registry name, e.g. "arm".
	Name() string
	// Generate emits assembly text for prog.
	Generate(prog *Program) (string, error)
	// GetFileExtension returns the conventional extension for generated files.
	GetFileExtension() string
	// SupportsFeature checks whether this backend implements an optional
	// capability.
	SupportsFeature(feature string) bool
}

// BackendOptions carries the knobs a backend may honor. Most backends
// only care about Debug; NRegs is threaded through separately via
// pkg/compiler.Config since it affects register allocation, not just
// emission.
type BackendOptions struct {
	Debug         bool
	CustomOptions map[string]interface{}
}

// Feature names a backend may advertise via SupportsFeature.
const (
	FeatureIndirectCalls    = "indirect_calls"
	Feature32BitPointers    = "32bit_pointers"
	FeatureHardwareMultiply = "hardware_multiply"
	FeatureHardwareDivide   = "hardware_divide"
)

// BackendFactory constructs a Backend from its options.
type BackendFactory func(options *BackendOptions) Backend

var backends = make(map[string]BackendFactory)

// RegisterBackend adds name to the registry. Called from each backend's
// init().
func RegisterBackend(name string, factory BackendFactory) {
	backends[name] = factory
}

// GetBackend looks up a registered backend by name, or returns nil.
func GetBackend(name string, options *BackendOptions) Backend {
	if factory, ok := backends[name]; ok {
		return factory(options)
	}
	return nil
}

// ListBackends returns every registered backend's name.
func ListBackends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}
