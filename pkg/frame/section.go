// Package frame computes the stack-frame layout of the global data segment
// and of every procedure activation record: which section each symbol
// lives in, and at what offset, once lowering and register allocation have
// decided what still needs memory (everything that isn't a register, plus
// whatever register allocation spilled).
package frame

import "github.com/pl0beta/pl0c/pkg/symbols"

// wordBits is the machine word size sections grow by: one physical
// register's worth of storage.
const wordBits = 32

// StackSection is one contiguous, named region of a stack frame (or of the
// global data segment) — e.g. the block of locals, or the block of
// register spill slots. Symbols are assigned an offset from the section's
// own base as they're added; MaxSize tracks the high-water mark a frame
// must actually reserve.
type StackSection struct {
	Name    string
	size    int
	MaxSize int
	offsets map[*symbols.Symbol]int
}

// NewStackSection creates an empty section.
func NewStackSection(name string) *StackSection {
	return &StackSection{Name: name, offsets: make(map[*symbols.Symbol]int)}
}

// GrowWords grows the section by a fixed number of words, for sections
// (like level_ref and the register-save areas) that aren't sized by
// enumerating symbols.
func (s *StackSection) GrowWords(words int) {
	s.size += words
	if s.size > s.MaxSize {
		s.MaxSize = s.size
	}
}

// GrowSymbol appends sym to the section at its current high-water offset
// and grows the section by sym's word-rounded size. Reports false (and
// leaves the section untouched) if sym was already placed here.
func (s *StackSection) GrowSymbol(sym *symbols.Symbol) bool {
	if _, already := s.offsets[sym]; already {
		return false
	}
	words := sym.Type.Size() / wordBits
	if sym.Type.Size()%wordBits != 0 {
		words++
	}
	s.offsets[sym] = s.size
	s.size += words
	if s.size > s.MaxSize {
		s.MaxSize = s.size
	}
	return true
}

// SetSize pins the section's size to at least size words, growing MaxSize
// to match if size is larger than anything seen so far.
func (s *StackSection) SetSize(size int) {
	if size > s.MaxSize {
		s.MaxSize = size
	}
	if size > s.size {
		s.size = size
	}
}

// Offset returns sym's byte offset within this section. Panics if sym was
// never placed here.
func (s *StackSection) Offset(sym *symbols.Symbol) int {
	off, ok := s.offsets[sym]
	if !ok {
		panic("frame: symbol " + sym.Name + " not present in section " + s.Name)
	}
	return off * (wordBits / 8)
}

// Freeze takes a read-only snapshot of s. A FrozenSection carries no
// mutator methods at all, so an accidental edit is a compile error rather
// than something that needs guarding against at runtime.
func (s *StackSection) Freeze() *FrozenSection {
	offsets := make(map[*symbols.Symbol]int, len(s.offsets))
	for k, v := range s.offsets {
		offsets[k] = v
	}
	return &FrozenSection{Name: s.Name, MaxSize: s.MaxSize, offsets: offsets}
}

// FrozenSection is a read-only snapshot of a StackSection, exposed to
// child (nested-procedure) frames so they can resolve a static-link
// reference without being able to perturb the parent's layout.
type FrozenSection struct {
	Name    string
	MaxSize int
	offsets map[*symbols.Symbol]int
}

// Offset returns sym's byte offset within this section as it stood at
// freeze time.
func (s *FrozenSection) Offset(sym *symbols.Symbol) int {
	off, ok := s.offsets[sym]
	if !ok {
		panic("frame: symbol " + sym.Name + " not present in frozen section " + s.Name)
	}
	return off * (wordBits / 8)
}
