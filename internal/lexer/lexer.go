// Package lexer implements the CHTL and CHTL-JS token scanners,
// consuming a single-language Fragment and honoring
// the current State Machine context.
package lexer

import (
	"strings"

	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/fragment"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/state"
	"github.com/chtl-lang/chtl/internal/token"
)

// Lexer tokenizes one Fragment. Two "flavors" (CHTL and CHTL-JS) share
// this single implementation; which behaviors are active is gated by the
// shared state.Machine.
type Lexer struct {
	log     *logger.Log
	source  *logger.Source
	cfg     *config.Group
	machine *state.Machine

	text string
	base int // fragment's absolute byte offset into source.Contents
	pos  int

	Token            token.Token
	HasNewlineBefore bool
}

// New creates a Lexer over frag and immediately scans the first token.
func New(log *logger.Log, source *logger.Source, cfg *config.Group, machine *state.Machine, frag fragment.Fragment) *Lexer {
	l := &Lexer{log: log, source: source, cfg: cfg, machine: machine, text: frag.Text, base: frag.Range.Start}
	l.Next()
	return l
}

func (l *Lexer) abs(i int) int { return l.base + i }

func (l *Lexer) emit(kind token.Kind, start, end int) {
	l.Token = token.Token{Kind: kind, Lexeme: l.text[start:end], Range: logger.Range{Start: l.abs(start), Len: end - start}}
}

// Next scans the next token into l.Token.
func (l *Lexer) Next() {
	l.HasNewlineBefore = false
	for {
		l.skipWhitespace()
		if l.pos >= len(l.text) {
			l.emit(token.EOF, l.pos, l.pos)
			return
		}
		c := l.text[l.pos]

		switch {
		case strings.HasPrefix(l.text[l.pos:], "//"):
			l.scanLineComment()
			continue
		case strings.HasPrefix(l.text[l.pos:], "/*"):
			l.scanBlockComment()
			continue
		case strings.HasPrefix(l.text[l.pos:], "--"):
			l.scanGeneratorComment()
			return
		case l.machine.CanUseEnhancedSelectors() && strings.HasPrefix(l.text[l.pos:], "{{"):
			l.emit(token.DoubleLBrace, l.pos, l.pos+2)
			l.pos += 2
			return
		case l.machine.CanUseEnhancedSelectors() && strings.HasPrefix(l.text[l.pos:], "}}"):
			l.emit(token.DoubleRBrace, l.pos, l.pos+2)
			l.pos += 2
			return
		case strings.HasPrefix(l.text[l.pos:], "&->"):
			l.emit(token.EventBind, l.pos, l.pos+3)
			l.pos += 3
			return
		case l.machine.CanUseArrowOperator() && strings.HasPrefix(l.text[l.pos:], "->"):
			l.emit(token.Arrow, l.pos, l.pos+2)
			l.pos += 2
			return
		case c == '"':
			l.scanQuoted(token.StringDouble, '"')
			return
		case c == '\'':
			l.scanQuoted(token.StringSingle, '\'')
			return
		case c == '@':
			l.scanAtMarker()
			return
		case c == '[':
			l.scanBracketMarker()
			return
		case isDigit(c):
			l.scanNumber()
			return
		case isIdentStart(c):
			l.scanIdentOrKeyword()
			return
		default:
			l.scanPunct()
			return
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.text) {
		switch l.text[l.pos] {
		case ' ', '\t', '\r':
			l.pos++
		case '\n':
			l.pos++
			l.HasNewlineBefore = true
		default:
			return
		}
	}
}

func (l *Lexer) scanLineComment() {
	start := l.pos
	for l.pos < len(l.text) && l.text[l.pos] != '\n' {
		l.pos++
	}
	l.emit(token.CommentLine, start, l.pos)
}

func (l *Lexer) scanBlockComment() {
	start := l.pos
	l.pos += 2
	for l.pos < len(l.text) && !strings.HasPrefix(l.text[l.pos:], "*/") {
		l.pos++
	}
	if l.pos < len(l.text) {
		l.pos += 2
	} else {
		l.log.AddError(l.source, logger.Range{Start: l.abs(start), Len: l.pos - start}, logger.KindLex, "unterminated block comment")
	}
	l.emit(token.CommentBlock, start, l.pos)
}

// scanGeneratorComment handles "-- ..." comments, which always survive
// into generated output and therefore always produce a token
// regardless of whether the consumer asked to preserve comments.
func (l *Lexer) scanGeneratorComment() {
	start := l.pos
	l.pos += 2
	for l.pos < len(l.text) && l.text[l.pos] != '\n' {
		l.pos++
	}
	l.emit(token.CommentGen, start, l.pos)
}

func (l *Lexer) scanQuoted(kind token.Kind, quote byte) {
	start := l.pos
	l.pos++
	for l.pos < len(l.text) {
		if l.text[l.pos] == '\\' {
			l.pos += 2
			continue
		}
		if l.text[l.pos] == quote {
			l.pos++
			l.emit(kind, start, l.pos)
			return
		}
		l.pos++
	}
	l.log.AddError(l.source, logger.Range{Start: l.abs(start), Len: l.pos - start}, logger.KindLex, "unterminated string literal")
	l.emit(kind, start, l.pos)
}

func (l *Lexer) scanAtMarker() {
	start := l.pos
	l.pos++
	nameStart := l.pos
	for l.pos < len(l.text) && isIdentByte(l.text[l.pos]) {
		l.pos++
	}
	name := l.text[nameStart:l.pos]
	kind, ok := token.AtMarkers[name]
	if !ok {
		kind = token.AtUserType
	}
	l.Token = token.Token{Kind: kind, Lexeme: "@" + name, Range: logger.Range{Start: l.abs(start), Len: l.pos - start}, IsMarker: true}
}

func (l *Lexer) scanBracketMarker() {
	start := l.pos
	save := l.pos
	l.pos++
	nameStart := l.pos
	for l.pos < len(l.text) && isIdentByte(l.text[l.pos]) {
		l.pos++
	}
	name := l.text[nameStart:l.pos]
	if l.pos < len(l.text) && l.text[l.pos] == ']' {
		if kind, ok := token.BlockMarkers[name]; ok {
			l.pos++
			l.emit(kind, start, l.pos)
			return
		}
	}
	// Not a recognized block marker: emit a plain LBracket and rewind.
	l.pos = save + 1
	l.emit(token.LBracket, save, l.pos)
}

func (l *Lexer) scanNumber() {
	start := l.pos
	for l.pos < len(l.text) && (isDigit(l.text[l.pos]) || l.text[l.pos] == '.') {
		l.pos++
	}
	// Trailing unit suffix, e.g. "4px", "1.5s", "100%" — numbers in CHTL
	// value positions are frequently followed by a CSS/animation unit;
	// the lexer keeps the literal whole and lets the parser/generator
	// interpret it, matching how an unquoted literal would otherwise be
	// sliced.
	for l.pos < len(l.text) && (isIdentByte(l.text[l.pos]) || l.text[l.pos] == '%') {
		l.pos++
	}
	l.emit(token.Number, start, l.pos)
}

func (l *Lexer) scanIdentOrKeyword() {
	start := l.pos
	for l.pos < len(l.text) && isIdentByte(l.text[l.pos]) {
		l.pos++
	}
	lexeme := l.text[start:l.pos]

	// "at top" / "at bottom" are two-word keywords; longest match wins
	// over a bare "at".
	if lexeme == "at" {
		save := l.pos
		skip := l.pos
		for skip < len(l.text) && (l.text[skip] == ' ' || l.text[skip] == '\t') {
			skip++
		}
		if strings.HasPrefix(l.text[skip:], "top") && !followedByIdentByte(l.text, skip+3) {
			l.pos = skip + 3
			l.emit(token.KwAtTop, start, l.pos)
			return
		}
		if strings.HasPrefix(l.text[skip:], "bottom") && !followedByIdentByte(l.text, skip+6) {
			l.pos = skip + 6
			l.emit(token.KwAtBottom, start, l.pos)
			return
		}
		l.pos = save
	}

	if l.cfg != nil {
		for core, kind := range token.CoreKeywords {
			for _, alias := range l.cfg.AliasesFor(core) {
				if alias == lexeme {
					l.emit(kind, start, l.pos)
					return
				}
			}
		}
	} else if kind, ok := token.CoreKeywords[lexeme]; ok {
		l.emit(kind, start, l.pos)
		return
	}

	l.emit(token.Ident, start, l.pos)
}

func (l *Lexer) scanPunct() {
	start := l.pos
	c := l.text[l.pos]
	var kind token.Kind
	switch c {
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case ']':
		kind = token.RBracket
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case ':':
		kind = token.Colon
	case '=':
		kind = token.Equals
	case ';':
		kind = token.Semicolon
	case ',':
		kind = token.Comma
	case '&':
		kind = token.Amp
	case '.':
		kind = token.Dot
	case '#':
		kind = token.Hash
	case '*':
		kind = token.Star
	default:
		l.pos++
		l.log.AddError(l.source, logger.Range{Start: l.abs(start), Len: 1}, logger.KindLex, "unexpected character "+string(c))
		l.emit(token.Unknown, start, l.pos)
		return
	}
	l.pos++
	l.emit(kind, start, l.pos)
}

// unquotedBoundary is the per-context reserved character set for
// unquoted literals: a run of characters containing none
// of these is a literal in a value position.
var unquotedBoundary = map[byte]bool{'{': true, '}': true, ';': true, ',': true}

// ScanUnquoted scans an unquoted literal starting at the current token
// (l.Token), honoring the context-specific reserved-character set. The
// parser calls this explicitly when it is in a grammar position that
// expects a value (attribute value, text content, CSS property value,
// style-selector rule component) rather than letting Next() guess.
// When no literal is found the lexer state is left unchanged.
func (l *Lexer) ScanUnquoted(extraBoundary map[byte]bool) (string, logger.Range, bool) {
	save := l.pos
	l.pos = l.Token.Range.Start - l.base
	start := l.pos
	for l.pos < len(l.text) {
		c := l.text[l.pos]
		if unquotedBoundary[c] || extraBoundary[c] || c == '\n' {
			break
		}
		l.pos++
	}
	if l.pos == start {
		l.pos = save
		return "", logger.Range{}, false
	}
	raw := strings.TrimRight(l.text[start:l.pos], " \t")
	r := logger.Range{Start: l.abs(start), Len: l.pos - start}
	l.Next()
	return raw, r, true
}

// RawBalancedBlock captures the raw text of a brace-delimited block
// without tokenizing it, for constructs whose content must bypass
// tokenization entirely: [Origin] content, and a local script block's
// plain-JavaScript spans, which the parser reads as bytes rather than
// through this lexer's CHTL-only punctuator set.
// The current token must be the opening '{' (l.Token.Kind is
// token.LBrace), not yet advanced past, so that scanning starts right
// after it; RawBalancedBlock resumes tokenizing after the matching '}'
// by calling Next() before returning.
func (l *Lexer) RawBalancedBlock() (string, logger.Range) {
	depth := 1
	start := l.pos
	for l.pos < len(l.text) {
		switch l.text[l.pos] {
		case '"', '\'':
			l.pos = skipQuotedRaw(l.text, l.pos)
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				body := l.text[start:l.pos]
				r := logger.Range{Start: l.abs(start), Len: l.pos - start}
				l.pos++ // consume the closing '}'
				l.Next()
				return body, r
			}
		}
		l.pos++
	}
	l.log.AddError(l.source, logger.Range{Start: l.abs(start), Len: l.pos - start}, logger.KindLex, "unterminated block")
	body := l.text[start:l.pos]
	r := logger.Range{Start: l.abs(start), Len: l.pos - start}
	l.Next()
	return body, r
}

func skipQuotedRaw(text string, i int) int {
	quote := text[i]
	i++
	for i < len(text) {
		if text[i] == '\\' {
			i += 2
			continue
		}
		if text[i] == quote {
			return i + 1
		}
		i++
	}
	return i
}

func followedByIdentByte(text string, i int) bool {
	return i < len(text) && isIdentByte(text[i])
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentByte(c byte) bool  { return isIdentStart(c) || isDigit(c) || c == '-' }
