package embed

import (
	"os"

	"github.com/google/uuid"

	"github.com/puppetlabs/puppetlang/facts"
	"github.com/puppetlabs/puppetlang/internal/compiler"
	"github.com/puppetlabs/puppetlang/internal/eval"
	"github.com/puppetlabs/puppetlang/logging"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

// LogCallback receives every log entry and diagnostic emitted while
// evaluating under a Session, in place of the spec's C ABI log-entry
// struct (spec §6 "Log entry: {level, line, column, span, text, path,
// message}").
type LogCallback func(level logging.Level, pos token.Position, message string)

type callbackSink struct {
	path string
	cb   LogCallback
}

func (s *callbackSink) Log(level logging.Level, pos token.Position, message string) {
	if s.cb != nil {
		s.cb(level, pos, message)
	}
}

// Session is the embedding API's top-level handle (spec §4.9 "session
// create/free"), grounded on cuelang.org/go's cue.Context / cuego wrapper:
// one Session owns a fact source, a log sink, and the set of host
// functions defined on it, and produces a Result (Value or Exception) per
// file evaluated against it.
type Session struct {
	// ID uniquely identifies this session handle (spec §6
	// "puppet_session_id"), stamped once at creation.
	ID string

	name string
	dir  string

	facts *facts.Provider
	log   *callbackSink

	hostFuncs map[string]eval.BuiltinFunc
}

// CreateSession allocates a Session named name, resolving relative file
// paths passed to EvaluateFile against dir. logCB may be nil to discard
// log output.
func CreateSession(name, dir string, logCB LogCallback) *Session {
	return &Session{
		ID:        uuid.NewString(),
		name:      name,
		dir:       dir,
		facts:     facts.New(),
		log:       &callbackSink{path: name, cb: logCB},
		hostFuncs: map[string]eval.BuiltinFunc{},
	}
}

// Free releases the session. Any Value handles it produced remain valid
// until individually Freed; Free only releases the Session's own state.
func (s *Session) Free() {
	s.hostFuncs = nil
	s.facts = nil
}

// SetFact installs or overwrites one top-scope fact visible to every file
// evaluated in this session afterward.
func (s *Session) SetFact(name string, v *Value) {
	s.facts.SetFact(name, v.v)
}

// SetTrustedFact installs or overwrites one $trusted-hash fact.
func (s *Session) SetTrustedFact(name string, v *Value) {
	s.facts.SetTrusted(name, v.v)
}

// Name returns the session's name.
func (s *Session) Name() string { return s.name }

// DefineFunction installs a host-defined function callable by name from
// Puppet code evaluated in this session (spec §4.9 "define_function"),
// taking priority over any built-in or Puppet-defined function of the
// same name.
func (s *Session) DefineFunction(name string, cb HostCallback) {
	s.hostFuncs[name] = asBuiltin(cb)
}

// EvaluateFile reads path relative to the session's directory and
// evaluates it, returning either the file's final expression value or an
// Exception describing the first diagnostic (spec §4.9 "evaluate_file
// (path) -> value or exception").
func (s *Session) EvaluateFile(path string) (*Value, *Exception) {
	text, err := os.ReadFile(resolvePath(s.dir, path))
	if err != nil {
		return nil, &Exception{Message: err.Error()}
	}
	return s.evaluateSource(path, text)
}

// EvaluateString evaluates manifest text directly, as if it were read
// from a file named path (used for sources with no on-disk location).
func (s *Session) EvaluateString(path string, manifest string) (*Value, *Exception) {
	return s.evaluateSource(path, []byte(manifest))
}

func (s *Session) evaluateSource(path string, text []byte) (*Value, *Exception) {
	cs := compiler.NewSession(s.facts, s.log)
	cs.HostFuncs = s.hostFuncs
	res := cs.CompileFile(path, text)
	if err := res.Err(); err != nil {
		return nil, fromError(err)
	}
	return wrap(res.Value), nil
}

func resolvePath(dir, path string) string {
	if dir == "" || os.IsPathSeparator(path[0]) {
		return path
	}
	return dir + string(os.PathSeparator) + path
}
