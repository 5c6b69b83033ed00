// Package logging implements the compiler's log-entry sink (spec §6 "Log
// entry: {level, line, column, span, text, path, message}"), backed by
// github.com/go-logr/logr the way the rest of the retrieved corpus wires
// a logger into a component's options struct.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/puppetlabs/puppetlang/syntax/token"
)

// Level is one of the eight severities a log function or diagnostic may
// emit (spec §6: "debug, info, notice, warning, error, alert, emergency,
// critical").
type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Err
	Alert
	Emergency
	Critical
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Notice:
		return "notice"
	case Warning:
		return "warning"
	case Err:
		return "error"
	case Alert:
		return "alert"
	case Emergency:
		return "emergency"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// verbosity maps a Level to the logr.Logger V-level used to emit it; levels
// at Err and above are routed through logr's Error path instead, since
// logr has no built-in concept of severity beyond error/non-error.
func (l Level) verbosity() int {
	switch l {
	case Debug:
		return 1
	default:
		return 0
	}
}

// Entry is one recorded log/diagnostic line (spec §6 "Log entry").
type Entry struct {
	Level   Level
	Path    string
	Pos     token.Position
	Message string
}

// Sink is the narrow interface the evaluator's builtin log functions and
// diagnostic reporting log through.
type Sink interface {
	Log(level Level, pos token.Position, message string)
}

// LogrSink adapts a logr.Logger to Sink, the way the retrieved corpus
// threads a logr.Logger through a component's options (see
// plugins.PluginManagerOptions in the kubernetes-controller examples).
type LogrSink struct {
	Path string
	Log_ logr.Logger
}

// NewLogrSink wraps logger for diagnostics belonging to path.
func NewLogrSink(path string, logger logr.Logger) *LogrSink {
	return &LogrSink{Path: path, Log_: logger}
}

// Log implements Sink, formatting the position the way spec §7's path:
// line:column diagnostics are rendered.
func (s *LogrSink) Log(level Level, pos token.Position, message string) {
	text := fmt.Sprintf("%s: %s: %s", level, pos, message)
	if level >= Err {
		s.Log_.Error(nil, text)
		return
	}
	s.Log_.V(level.verbosity()).Info(text)
}

// RecordingSink accumulates every entry instead of (or in addition to)
// emitting it, used by the embedding API surface (spec §6 "exception
// handles with message/span/backtrace" mirror the same log-entry shape)
// and by tests that assert on emitted diagnostics.
type RecordingSink struct {
	Path    string
	Entries []Entry
	Inner   Sink // optional: also forward to a real sink
}

// Log implements Sink.
func (s *RecordingSink) Log(level Level, pos token.Position, message string) {
	s.Entries = append(s.Entries, Entry{Level: level, Path: s.Path, Pos: pos, Message: message})
	if s.Inner != nil {
		s.Inner.Log(level, pos, message)
	}
}
