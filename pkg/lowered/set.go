package lowered

import "github.com/pl0beta/pl0c/pkg/symbols"

// SymbolSet is a set of symbols compared by identity. It backs gen/kill,
// live_in/live_out and every other liveness or def/use set downstream.
type SymbolSet map[*symbols.Symbol]struct{}

// NewSymbolSet builds a set from zero or more symbols, skipping nils.
func NewSymbolSet(syms ...*symbols.Symbol) SymbolSet {
	s := make(SymbolSet, len(syms))
	for _, sym := range syms {
		if sym != nil {
			s[sym] = struct{}{}
		}
	}
	return s
}

// Add inserts sym into the set (no-op if sym is nil).
func (s SymbolSet) Add(sym *symbols.Symbol) {
	if sym != nil {
		s[sym] = struct{}{}
	}
}

// Contains reports whether sym is a member.
func (s SymbolSet) Contains(sym *symbols.Symbol) bool {
	_, ok := s[sym]
	return ok
}

// Clone returns an independent copy.
func (s SymbolSet) Clone() SymbolSet {
	out := make(SymbolSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Union returns s ∪ other as a new set, leaving both inputs untouched.
func (s SymbolSet) Union(other SymbolSet) SymbolSet {
	out := s.Clone()
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// UnionInPlace adds every member of other into s.
func (s SymbolSet) UnionInPlace(other SymbolSet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Minus returns s − other as a new set.
func (s SymbolSet) Minus(other SymbolSet) SymbolSet {
	out := make(SymbolSet, len(s))
	for k := range s {
		if _, excluded := other[k]; !excluded {
			out[k] = struct{}{}
		}
	}
	return out
}

// Equal reports whether s and other contain exactly the same symbols.
func (s SymbolSet) Equal(other SymbolSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Slice returns the members in no particular order.
func (s SymbolSet) Slice() []*symbols.Symbol {
	out := make([]*symbols.Symbol, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}
