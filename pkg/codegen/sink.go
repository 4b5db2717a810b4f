package codegen

import "strings"

// sink is an append-only buffer of assembly lines. It exists as its own
// small type, rather than a bare []string, so emit call sites read as
// "append one line" instead of repeated slice append boilerplate, and so
// indentation/comment formatting lives in exactly one place.
type sink struct {
	lines []string
}

// label emits a label on its own line, with a trailing colon and no
// indentation.
func (s *sink) label(name string) {
	s.lines = append(s.lines, name+":")
}

// emit appends one tab-indented instruction line.
func (s *sink) emit(instr string) {
	s.lines = append(s.lines, "\t"+instr)
}

// emitComment appends an @-prefixed comment on its own tab-indented line.
func (s *sink) emitComment(comment string) {
	s.lines = append(s.lines, "\t@ "+comment)
}

// directive appends a tab-indented assembler directive (.data, .comm, ...).
func (s *sink) directive(d string) {
	s.lines = append(s.lines, "\t"+d)
}

// blank appends an empty line, used to visually separate functions.
func (s *sink) blank() {
	s.lines = append(s.lines, "")
}

func (s *sink) String() string {
	return strings.Join(s.lines, "\n") + "\n"
}
