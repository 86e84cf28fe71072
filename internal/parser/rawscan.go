package parser

import "strings"

// The CHTL-JS sugar inside a script block (enhanced selectors, arrow
// chains, listen/delegate/animate/vir calls) is parsed lazily out of the
// block's raw text: ordinary JavaScript passes through untouched as
// RawJS text, so this file works directly on bytes instead of routing
// plain JS through the structured token Lexer (which only knows CHTL's
// own punctuator set, not JavaScript's).

func skipQuotedRaw(s string, i int) int {
	quote := s[i]
	i++
	for i < len(s) {
		if s[i] == '\\' {
			i += 2
			continue
		}
		if s[i] == quote {
			return i + 1
		}
		i++
	}
	return i
}

func wordAt(s string, i int, word string) bool {
	if !strings.HasPrefix(s[i:], word) {
		return false
	}
	if i > 0 && isWordByte(s[i-1]) {
		return false
	}
	end := i + len(word)
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func skipWSRaw(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

// identAt reads a JS-style identifier starting at i, returning it and the
// index just past it.
func identAt(s string, i int) (string, int) {
	start := i
	for i < len(s) && (isWordByte(s[i]) || s[i] == '$') {
		i++
	}
	return s[start:i], i
}

// findMatching returns the index of the close byte matching the open byte
// at s[openIdx], honoring nested occurrences and skipping quoted spans.
func findMatching(s string, openIdx int, open, close byte) int {
	depth := 1
	i := openIdx + 1
	for i < len(s) {
		switch s[i] {
		case '"', '\'', '`':
			i = skipQuotedRaw(s, i)
			continue
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return len(s)
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// {}/()/[]/quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '"', '\'', '`':
			i = skipQuotedRaw(s, i)
			continue
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
		i++
	}
	parts = append(parts, s[last:])
	return parts
}

// firstTopLevelColon returns the index of the first ':' not nested inside
// {}/()/[]/quotes, or -1.
func firstTopLevelColon(s string) int {
	depth := 0
	i := 0
	for i < len(s) {
		switch s[i] {
		case '"', '\'', '`':
			i = skipQuotedRaw(s, i)
			continue
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case ':':
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// kv is one "key: value" entry parsed out of an object-literal-shaped
// CHTL-JS call argument (listen/delegate/animate/vir bodies).
type kv struct {
	Key   string
	Value string
}

// parseObjectEntries splits the text between a '{'...'}' pair (exclusive
// of the braces) into ordered key/value entries.
func parseObjectEntries(body string) []kv {
	var out []kv
	for _, chunk := range splitTopLevel(body, ',') {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		ci := firstTopLevelColon(chunk)
		if ci < 0 {
			continue
		}
		key := strings.Trim(strings.TrimSpace(chunk[:ci]), `"'`)
		val := strings.TrimSpace(chunk[ci+1:])
		out = append(out, kv{Key: key, Value: val})
	}
	return out
}
