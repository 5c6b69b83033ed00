package logging

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/puppetlabs/puppetlang/syntax/token"
)

func TestLevelString(t *testing.T) {
	qt.Assert(t, qt.Equals(Debug.String(), "debug"))
	qt.Assert(t, qt.Equals(Err.String(), "error"))
	qt.Assert(t, qt.Equals(Critical.String(), "critical"))
}

func TestRecordingSinkAccumulates(t *testing.T) {
	s := &RecordingSink{Path: "site.pp"}
	s.Log(Info, token.Position{Line: 3, Column: 1}, "hello")
	s.Log(Warning, token.Position{Line: 4, Column: 2}, "careful")
	qt.Assert(t, qt.HasLen(s.Entries, 2))
	qt.Assert(t, qt.Equals(s.Entries[0].Level, Info))
	qt.Assert(t, qt.Equals(s.Entries[0].Path, "site.pp"))
	qt.Assert(t, qt.Equals(s.Entries[1].Message, "careful"))
}

func TestRecordingSinkForwardsToInner(t *testing.T) {
	inner := &RecordingSink{Path: "site.pp"}
	outer := &RecordingSink{Path: "site.pp", Inner: inner}
	outer.Log(Notice, token.Position{}, "forwarded")
	qt.Assert(t, qt.HasLen(outer.Entries, 1))
	qt.Assert(t, qt.HasLen(inner.Entries, 1))
	qt.Assert(t, qt.Equals(inner.Entries[0].Message, "forwarded"))
}
