package domain

import "strings"

// segment is one ';'-separated piece of a SQL text. Splitting is purely
// lexical: a semicolon inside a string literal still splits.
type segment struct {
	text       string
	offset     int // byte offset of text within the source
	terminated bool
}

func splitStatements(sql string) []segment {
	var segs []segment
	start := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == ';' {
			segs = append(segs, segment{text: sql[start:i], offset: start, terminated: true})
			start = i + 1
		}
	}
	return append(segs, segment{text: sql[start:], offset: start})
}

// lexed is the result of scanning a single statement.
type lexed struct {
	words    []string // bare words, upper-cased, in order
	end      int      // offset just past the last significant byte; 0 if none
	balanced bool     // false when a quote or block comment is left open
}

func (l lexed) empty() bool { return l.end == 0 }

// lex skips whitespace and comments, treats quoted strings and identifiers as
// opaque, and collects every bare word so keyword checks never see content
// from literals or comments.
func lex(s string) lexed {
	out := lexed{balanced: true}
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return out
			}
			i += nl + 1
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			closing := strings.Index(s[i+2:], "*/")
			if closing < 0 {
				out.balanced = false
				return out
			}
			i += 2 + closing + 2
		case c == '\'' || c == '"' || c == '`':
			j, ok := skipQuoted(s, i)
			if !ok {
				out.balanced = false
				out.end = len(s)
				return out
			}
			i = j
			out.end = j
		case (c == 'E' || c == 'e') && i+1 < len(s) && s[i+1] == '\'':
			j, ok := skipEscaped(s, i+1)
			if !ok {
				out.balanced = false
				out.end = len(s)
				return out
			}
			i = j
			out.end = j
		case c == '$' && dollarTag(s, i) != "":
			tag := dollarTag(s, i)
			closing := strings.Index(s[i+len(tag):], tag)
			if closing < 0 {
				out.balanced = false
				out.end = len(s)
				return out
			}
			i += len(tag) + closing + len(tag)
			out.end = i
		case isWordStart(c):
			j := i + 1
			for j < len(s) && isWordPart(s[j]) {
				j++
			}
			out.words = append(out.words, strings.ToUpper(s[i:j]))
			i = j
			out.end = j
		default:
			i++
			out.end = i
		}
	}
	return out
}

// skipQuoted returns the offset just past the closing quote of the quoted
// run starting at i. A doubled quote character is an escaped quote.
func skipQuoted(s string, i int) (int, bool) {
	q := s[i]
	j := i + 1
	for {
		k := strings.IndexByte(s[j:], q)
		if k < 0 {
			return len(s), false
		}
		j += k + 1
		if j < len(s) && s[j] == q {
			j++
			continue
		}
		return j, true
	}
}

// skipEscaped is skipQuoted for E'...' strings, where a backslash escapes
// the byte after it.
func skipEscaped(s string, i int) (int, bool) {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\'':
			if j+1 < len(s) && s[j+1] == '\'' {
				j++
				continue
			}
			return j + 1, true
		}
	}
	return len(s), false
}

// dollarTag returns the opening delimiter of a dollar-quoted string at i
// ("$$" or "$name$"), or "" when i starts something else, such as a $1
// placeholder.
func dollarTag(s string, i int) string {
	j := i + 1
	if j < len(s) && isWordStart(s[j]) {
		j++
		for j < len(s) && (isWordStart(s[j]) || (s[j] >= '0' && s[j] <= '9')) {
			j++
		}
	}
	if j < len(s) && s[j] == '$' {
		return s[i : j+1]
	}
	return ""
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordPart(c byte) bool {
	return isWordStart(c) || c == '$' || (c >= '0' && c <= '9')
}
