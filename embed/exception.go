package embed

import (
	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// Span is a source range, used where a single Position is not precise
// enough (spec §6 "exception handles carry a message, a source span, and
// a backtrace").
type Span struct {
	Start token.Position
	End   token.Position
}

func (s Span) String() string {
	if s.End == (token.Position{}) || s.End == s.Start {
		return s.Start.String()
	}
	return s.Start.String() + "-" + s.End.String()
}

// Exception is the opaque handle returned in place of a Value when a
// host call fails (spec §4.9 "opaque exception handles carrying message/
// span/backtrace").
type Exception struct {
	Message   string
	Span      Span
	Backtrace []errors.Frame
}

func (e *Exception) Error() string { return e.Message }

// fromError adapts any error produced by the compile pipeline into an
// Exception. syntax/errors.Error values (and errors.List, which also
// implements error) carry a position and backtrace; any other error is
// wrapped with an invalid span and no backtrace.
func fromError(err error) *Exception {
	if err == nil {
		return nil
	}
	if list, ok := err.(errors.List); ok {
		if len(list) == 0 {
			return nil
		}
		return fromSingleError(list[0])
	}
	if e, ok := err.(errors.Error); ok {
		return fromSingleError(e)
	}
	return &Exception{Message: err.Error()}
}

func fromSingleError(e errors.Error) *Exception {
	pos := e.Position()
	return &Exception{
		Message:   e.Error(),
		Span:      Span{Start: pos, End: pos},
		Backtrace: e.Backtrace(),
	}
}
