// Package logger implements CHTL's diagnostic pipeline. Diagnostics are
// collected as they are discovered during scanning, lexing, parsing, and
// resolution, and are rendered clang-style: kind, file:line:column, the
// offending source line, and an optional hint.
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Kind classifies a diagnostic by which pipeline stage raised it.
type Kind uint8

const (
	KindScan Kind = iota
	KindLex
	KindParse
	KindResolution
	KindSemantic
	KindGeneration
	KindIO
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "scan"
	case KindLex:
		return "lex"
	case KindParse:
		return "parse"
	case KindResolution:
		return "resolution"
	case KindSemantic:
		return "semantic"
	case KindGeneration:
		return "generation"
	case KindIO:
		return "io"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Severity is whether a Msg is an error, a warning, or a recovery note.
type Severity uint8

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "note"
	}
}

// Loc is a 1-based line / 0-based byte-column position within a Source.
type Loc struct {
	Line   int
	Column int
}

// Range is a byte span within a Source's Contents, used to slice LineText.
type Range struct {
	Start int
	Len   int
}

func (r Range) End() int { return r.Start + r.Len }

// Source is one compilation unit's original text plus its identity.
type Source struct {
	Index      uint32
	Path       string
	PrettyPath string
	Contents   string
}

// TextForRange returns the slice of Contents covered by r, clamped to bounds.
func (s *Source) TextForRange(r Range) string {
	start, end := r.Start, r.End()
	if start < 0 {
		start = 0
	}
	if end > len(s.Contents) {
		end = len(s.Contents)
	}
	if start > end {
		return ""
	}
	return s.Contents[start:end]
}

// LocAt converts a byte offset into a line/column pair and returns the
// full text of the line it falls on, the way MsgLocation wants.
func (s *Source) LocAt(offset int) (loc Loc, lineText string) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.Contents) {
		offset = len(s.Contents)
	}
	line := 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if s.Contents[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := len(s.Contents)
	if idx := strings.IndexByte(s.Contents[offset:], '\n'); idx >= 0 {
		lineEnd = offset + idx
	}
	return Loc{Line: line, Column: offset - lineStart}, s.Contents[lineStart:lineEnd]
}

// MsgData is one piece of rendered diagnostic text: a message plus where it
// points in the source (HasLoc false for messages with no source anchor).
type MsgData struct {
	Text     string
	Path     string
	Loc      Loc
	LineText string
	Hint     string
	HasLoc   bool
}

// Msg is a single diagnostic.
type Msg struct {
	Kind     Kind
	Severity Severity
	Data     MsgData
	Notes    []MsgData
}

func (m Msg) String(useColor bool) string {
	var b strings.Builder
	sev := m.Severity.String()
	if useColor {
		var c *color.Color
		switch m.Severity {
		case Error:
			c = color.New(color.FgRed, color.Bold)
		case Warning:
			c = color.New(color.FgYellow, color.Bold)
		default:
			c = color.New(color.FgCyan)
		}
		sev = c.Sprint(sev)
	}
	if m.Data.HasLoc {
		fmt.Fprintf(&b, "%s:%d:%d: %s: %s\n", m.Data.Path, m.Data.Loc.Line, m.Data.Loc.Column, sev, m.Data.Text)
		if m.Data.LineText != "" {
			fmt.Fprintf(&b, "    %s\n", m.Data.LineText)
		}
	} else {
		fmt.Fprintf(&b, "%s: %s\n", sev, m.Data.Text)
	}
	if m.Data.Hint != "" {
		fmt.Fprintf(&b, "    hint: %s\n", m.Data.Hint)
	}
	for _, n := range m.Notes {
		fmt.Fprintf(&b, "    note: %s\n", n.Text)
	}
	return b.String()
}

// SortableMsgs gives deterministic diagnostic ordering: two compilations
// of the same input must produce byte-identical output, which includes
// the order diagnostics are reported in.
type SortableMsgs []Msg

func (a SortableMsgs) Len() int      { return len(a) }
func (a SortableMsgs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableMsgs) Less(i, j int) bool {
	ai, aj := a[i], a[j]
	if ai.Data.Path != aj.Data.Path {
		return ai.Data.Path < aj.Data.Path
	}
	if ai.Data.Loc.Line != aj.Data.Loc.Line {
		return ai.Data.Loc.Line < aj.Data.Loc.Line
	}
	if ai.Data.Loc.Column != aj.Data.Loc.Column {
		return ai.Data.Loc.Column < aj.Data.Loc.Column
	}
	return ai.Data.Text < aj.Data.Text
}

// Log is the diagnostic sink threaded through every pipeline stage. It is
// built once per compile job and is not safe to share across jobs
// running concurrently.
type Log struct {
	mu        sync.Mutex
	msgs      SortableMsgs
	hasErrors bool
	debug     bool
	useColor  bool
}

// NewLog creates a diagnostic sink. debug enables note-level diagnostics
// (mirrors the CHTL_DEBUG=1 environment variable).
func NewLog(debug bool) *Log {
	return &Log{
		debug:    debug,
		useColor: !color.NoColor,
	}
}

func (l *Log) AddMsg(m Msg) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m.Severity == Note && !l.debug {
		return
	}
	l.msgs = append(l.msgs, m)
	if m.Severity == Error {
		l.hasErrors = true
	}
}

// AddError records a source-anchored error.
func (l *Log) AddError(source *Source, r Range, kind Kind, text string) {
	l.addAt(source, r, kind, Error, text, "")
}

// AddErrorWithHint records a source-anchored error with a recovery hint.
func (l *Log) AddErrorWithHint(source *Source, r Range, kind Kind, text, hint string) {
	l.addAt(source, r, kind, Error, text, hint)
}

// AddWarning records a source-anchored warning.
func (l *Log) AddWarning(source *Source, r Range, kind Kind, text string) {
	l.addAt(source, r, kind, Warning, text, "")
}

// AddNote records a debug-only informational note.
func (l *Log) AddNote(source *Source, r Range, kind Kind, text string) {
	l.addAt(source, r, kind, Note, text, "")
}

// AddGlobalError records an error with no single source anchor (e.g. I/O).
func (l *Log) AddGlobalError(kind Kind, text string) {
	l.AddMsg(Msg{Kind: kind, Severity: Error, Data: MsgData{Text: text}})
}

func (l *Log) addAt(source *Source, r Range, kind Kind, sev Severity, text, hint string) {
	data := MsgData{Text: text, Hint: hint}
	if source != nil {
		loc, lineText := source.LocAt(r.Start)
		data.Path = source.PrettyPath
		data.Loc = loc
		data.LineText = lineText
		data.HasLoc = true
	}
	l.AddMsg(Msg{Kind: kind, Severity: sev, Data: data})
}

func (l *Log) HasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasErrors
}

// Done returns all recorded diagnostics in deterministic order.
func (l *Log) Done() []Msg {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(SortableMsgs, len(l.msgs))
	copy(out, l.msgs)
	sort.Stable(out)
	return out
}

// WriteTo renders every diagnostic to w (normally os.Stderr) clang-style.
func (l *Log) WriteTo(w *os.File) {
	useColor := l.useColor && w == os.Stderr
	for _, m := range l.Done() {
		fmt.Fprint(w, m.String(useColor))
	}
}
