package normalize

import "fmt"

// Error is a GrammarError (spec §7): a defect discovered while building
// or normalising a grammar, before any parsing is attempted. Unlike
// InterpretationError (package interp), these are always fatal to
// grammar construction and are meant to be fixed by the grammar author,
// not handled at runtime.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("grammar error in %s: %s", e.Op, e.Msg) }

func errf(op, format string, args ...interface{}) error {
	return &Error{Op: op, Msg: fmt.Sprintf(format, args...)}
}
