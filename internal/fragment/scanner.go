package fragment

import (
	"strings"
	"unicode/utf8"

	"github.com/chtl-lang/chtl/internal/logger"
)

// boundary is a recognized language-switch marker: a keyword run followed
// by an opening brace, at which point the scanner flips strategy and
// starts collecting bytes in the new language until the matching close
// brace is found.
type boundary struct {
	lang       Lang
	originType string
}

// Scanner slices one source file into an ordered, tiling list of
// Fragments using variable-length look-ahead with boundary repair.
type Scanner struct {
	log      *logger.Log
	source   *logger.Source
	text     string
	pos      int // byte offset
	strategy strategy

	// originTypes is the set of registered @-typed markers (e.g. "@Vue").
	// Populated from the active
	// configuration's [OriginType] group (CJMOD sub-scanner
	// paragraph: "user-registered origin types declare their own lexical
	// scope").
	originTypes map[string]bool
}

// NewScanner creates a Scanner over source. extraOriginTypes names any
// @-typed markers registered by the active configuration beyond the
// built-in @Html/@Style/@JavaScript set.
func NewScanner(log *logger.Log, source *logger.Source, extraOriginTypes []string) *Scanner {
	ot := make(map[string]bool, len(extraOriginTypes))
	for _, t := range extraOriginTypes {
		ot[t] = true
	}
	return &Scanner{log: log, source: source, text: source.Contents, originTypes: ot}
}

// Scan runs the scanner to completion and returns the tiling fragment list.
func (s *Scanner) Scan() []Fragment {
	var frags []Fragment
	cut := 0
	n := len(s.text)

	for s.pos < n {
		if b, start, ok := s.findBoundary(); ok {
			if start > cut {
				frags = append(frags, s.makeFragment(LangCHTL, cut, start))
			}
			end := s.collectBalanced(start)
			lang := b.lang
			frags = append(frags, s.makeOriginFragment(lang, start, end, b.originType))
			cut = end
			s.pos = end
			continue
		}
		// No more boundaries: everything remaining is CHTL.
		s.pos = n
	}

	if cut < n {
		frags = append(frags, s.makeFragment(LangCHTL, cut, n))
	}
	if len(frags) == 0 {
		return nil
	}
	return frags
}

// findBoundary scans forward from s.pos looking for the next "style {",
// "script {", or "[Origin] @Type {" marker. It returns the boundary kind
// and the byte offset the boundary's content starts at (the byte after
// the opening brace), or ok=false if no boundary remains.
func (s *Scanner) findBoundary() (boundary, int, bool) {
	n := len(s.text)
	i := s.pos
	for i < n {
		switch {
		case s.text[i] == '"' || s.text[i] == '\'':
			i = skipQuoted(s.text, i)
			continue
		case hasKeywordAt(s.text, i, "style"):
			if j, ok := skipToBrace(s.text, i+len("style")); ok {
				s.pos = j + 1
				return boundary{lang: LangCSS}, j + 1, true
			}
		case hasKeywordAt(s.text, i, "script"):
			if j, ok := skipToBrace(s.text, i+len("script")); ok {
				s.pos = j + 1
				return boundary{lang: LangCHTLJS}, j + 1, true
			}
		case strings.HasPrefix(s.text[i:], "[Origin]"):
			if lang, originType, j, ok := s.scanOriginHeader(i + len("[Origin]")); ok {
				s.pos = j + 1
				return boundary{lang: lang, originType: originType}, j + 1, true
			}
		}
		_, size := utf8.DecodeRuneInString(s.text[i:])
		if size == 0 {
			size = 1
		}
		i += size
	}
	return boundary{}, 0, false
}

// scanOriginHeader parses "@Type [name] {" after an [Origin] marker and
// reports the raw-embed language to collect and the origin type name.
func (s *Scanner) scanOriginHeader(from int) (Lang, string, int, bool) {
	i := skipSpace(s.text, from)
	if i >= len(s.text) || s.text[i] != '@' {
		return 0, "", 0, false
	}
	start := i
	i++
	for i < len(s.text) && isIdentByte(s.text[i]) {
		i++
	}
	originType := s.text[start:i]
	j, ok := skipToBrace(s.text, i)
	if !ok {
		return 0, "", 0, false
	}
	switch originType {
	case "@Html":
		return LangHTML, originType, j, true
	case "@Style":
		return LangCSS, originType, j, true
	case "@JavaScript":
		return LangJS, originType, j, true
	default:
		if s.originTypes[originType] {
			return LangRawEmbed, originType, j, true
		}
		// Unregistered custom origin type: treat its body as raw-embed
		// anyway so the parser can surface a semantic error rather than
		// the scanner silently swallowing the block (failure
		// model only fails at EOF, not on unknown markers).
		return LangRawEmbed, originType, j, true
	}
}

// collectBalanced returns the byte offset one past the brace that matches
// the opening brace at text[start-1], counting nested braces so cuts
// never bisect a balanced block.
func (s *Scanner) collectBalanced(start int) int {
	depth := 1
	i := start
	n := len(s.text)
	for i < n {
		switch s.text[i] {
		case '"', '\'':
			i = skipQuoted(s.text, i)
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	// Failure model: unterminated block reaches EOF. Warn and treat the
	// remainder as belonging to this fragment.
	loc, _ := s.source.LocAt(start)
	s.log.AddWarning(s.source, logger.Range{Start: start, Len: 0}, logger.KindScan,
		"unterminated block starting here; scanning to end of file")
	_ = loc
	return n
}

func (s *Scanner) makeFragment(lang Lang, start, end int) Fragment {
	loc, _ := s.source.LocAt(start)
	return Fragment{
		Lang:  lang,
		Range: logger.Range{Start: start, Len: end - start},
		File:  s.source.PrettyPath,
		Loc:   loc,
		Text:  s.text[start:end],
	}
}

func (s *Scanner) makeOriginFragment(lang Lang, start, end int, originType string) Fragment {
	f := s.makeFragment(lang, start, end)
	f.OriginType = originType
	return f
}

func hasKeywordAt(text string, i int, kw string) bool {
	if !strings.HasPrefix(text[i:], kw) {
		return false
	}
	if i > 0 && isIdentByte(text[i-1]) {
		return false
	}
	end := i + len(kw)
	if end < len(text) && isIdentByte(text[end]) {
		return false
	}
	return true
}

// skipToBrace advances past whitespace after a keyword and returns the
// offset of the opening '{', or ok=false if the next non-whitespace byte
// is not '{'.
func skipToBrace(text string, from int) (int, bool) {
	i := skipSpace(text, from)
	if i < len(text) && text[i] == '{' {
		return i, true
	}
	return 0, false
}

func skipSpace(text string, from int) int {
	i := from
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\r', '\n':
			i++
			continue
		}
		break
	}
	return i
}

func skipQuoted(text string, i int) int {
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

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
