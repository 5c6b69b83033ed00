// Package errors defines the shared error types used across the compiler
// pipeline: lexing, parsing, validation, evaluation, finalization, and
// configuration faults (spec §7) all implement the same Error interface so
// that a caller can collect, sort, and print them uniformly.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/puppetlabs/puppetlang/syntax/token"
)

// Error is the common interface implemented by every fault kind the
// compiler raises.
type Error interface {
	error
	Position() token.Position
	// InputPositions reports secondary positions that contributed to the
	// error (e.g. both sides of a cycle, or the earlier declaration in a
	// duplicate-definition error).
	InputPositions() []token.Position
	// Backtrace returns the evaluation frames (scope name + context) active
	// when the error was raised, outermost first, per spec §7.
	Backtrace() []Frame
}

// Frame is one entry in an evaluation backtrace: a scope name plus the AST
// context active at that point.
type Frame struct {
	Scope string
	Pos   token.Position
}

func (f Frame) String() string {
	if f.Scope == "" {
		return f.Pos.String()
	}
	return fmt.Sprintf("%s (%s)", f.Scope, f.Pos)
}

// posError is the concrete Error implementation built by Newf.
type posError struct {
	pos    token.Position
	msg    string
	inputs []token.Position
	trace  []Frame
}

func (e *posError) Error() string                   { return e.msg }
func (e *posError) Position() token.Position         { return e.pos }
func (e *posError) InputPositions() []token.Position { return e.inputs }
func (e *posError) Backtrace() []Frame               { return e.trace }

// Newf creates an Error at the given position with a formatted message.
func Newf(pos token.Position, format string, args ...interface{}) Error {
	return &posError{pos: pos, msg: fmt.Sprintf(format, args...)}
}

// WithInputs returns a copy of err with additional secondary positions
// attached, e.g. the other resources forming a dependency cycle.
func WithInputs(err Error, inputs ...token.Position) Error {
	pe, ok := err.(*posError)
	if !ok {
		return err
	}
	cp := *pe
	cp.inputs = append(append([]token.Position{}, pe.inputs...), inputs...)
	return &cp
}

// WithBacktrace returns a copy of err with the given evaluation backtrace
// attached (outermost frame first), per spec §7.
func WithBacktrace(err Error, frames ...Frame) Error {
	pe, ok := err.(*posError)
	if !ok {
		return err
	}
	cp := *pe
	cp.trace = frames
	return &cp
}

// List is a sortable, deduplicated collection of Errors that itself
// implements error. A file or compile driver accumulates faults into a
// List so it can continue past individual failures (spec §7: "a
// collaborator's compile driver may continue with other files").
type List []Error

func (l List) Error() string {
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(Print(e))
	}
	return b.String()
}

// Add appends err to the list.
func (l List) Add(err Error) List {
	return append(l, err)
}

// Sort orders the list by position, then removes exact duplicates.
func (l List) Sort() List {
	sort.SliceStable(l, func(i, j int) bool {
		return comparePos(l[i].Position(), l[j].Position())
	})
	out := l[:0]
	var last Error
	for _, e := range l {
		if last != nil && last.Position() == e.Position() && last.Error() == e.Error() {
			continue
		}
		out = append(out, e)
		last = e
	}
	return out
}

func comparePos(a, b token.Position) bool {
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

// Err returns nil if the list is empty, otherwise the list as an error.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Print renders err in the spec §7 user-visible format:
//
//	path:line:column: message
//
// followed by a single-line caret pointing at the column, and any
// backtrace frames, outermost first.
func Print(err Error) string {
	var b strings.Builder
	pos := err.Position()
	fmt.Fprintf(&b, "%s: %s", pos, err.Error())
	if pos.IsValid() {
		b.WriteByte('\n')
		b.WriteString(caret(pos.Column))
	}
	for _, f := range err.Backtrace() {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "\tfrom %s", f)
	}
	return b.String()
}

func caret(col int) string {
	if col < 1 {
		col = 1
	}
	return strings.Repeat(" ", col-1) + "^"
}
