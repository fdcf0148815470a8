package domain

import (
	"strconv"
	"strings"
)

// DefaultMaxRows is the row cap injected into read-only statements when the
// caller does not supply one.
const DefaultMaxRows = 200

// Classification is the safety tier of a candidate query. Values are ordered
// by severity so the most dangerous of several can be taken with max.
type Classification int

const (
	ReadOnly Classification = iota
	Mutating
	DestructiveDDL
)

func (c Classification) String() string {
	switch c {
	case ReadOnly:
		return "READ_ONLY"
	case Mutating:
		return "MUTATING"
	default:
		return "DESTRUCTIVE_DDL"
	}
}

func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Decision says whether a classified query may run now.
type Decision int

const (
	Proceed Decision = iota
	BlockPendingConfirmation
)

func (d Decision) String() string {
	if d == Proceed {
		return "PROCEED"
	}
	return "BLOCK_PENDING_CONFIRMATION"
}

func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Classify inspects the leading keyword of every ';'-separated statement and
// returns the most severe classification found. Empty or unrecognised input
// is DestructiveDDL, and so is a statement with an unclosed quote or comment.
func Classify(sql string) Classification {
	result := ReadOnly
	seen := false
	for _, seg := range splitStatements(sql) {
		l := lex(seg.text)
		if !l.balanced {
			return DestructiveDDL
		}
		if l.empty() {
			continue
		}
		seen = true
		result = max(result, classifyWords(l.words))
		if result == DestructiveDDL {
			return result
		}
	}
	if !seen {
		return DestructiveDDL
	}
	return result
}

func classifyWords(words []string) Classification {
	if len(words) == 0 {
		return DestructiveDDL
	}
	switch words[0] {
	case "SELECT":
		return ReadOnly
	case "WITH":
		return classifyCTE(words[1:])
	case "INSERT", "UPDATE", "DELETE":
		return Mutating
	case "DROP", "ALTER", "CREATE", "TRUNCATE":
		return DestructiveDDL
	}
	return DestructiveDDL
}

// classifyCTE scans the body of a WITH statement. Any DML or DDL keyword in a
// CTE or the main statement raises the severity; a body with no SELECT at
// all is not a read-only construct.
func classifyCTE(words []string) Classification {
	result := ReadOnly
	selects := false
	for _, w := range words {
		switch w {
		case "SELECT":
			selects = true
		case "INSERT", "UPDATE", "DELETE":
			result = max(result, Mutating)
		case "DROP", "ALTER", "CREATE", "TRUNCATE":
			return DestructiveDDL
		}
	}
	if result == ReadOnly && !selects {
		return DestructiveDDL
	}
	return result
}

// Decide maps a classification and the caller's confirmation flag to an
// execution decision.
func Decide(c Classification, confirmed bool) Decision {
	if c == ReadOnly || confirmed {
		return Proceed
	}
	return BlockPendingConfirmation
}

// EnsureLimit appends a LIMIT clause to every read-only statement that lacks
// a row-limiting clause. The clause goes right after the last significant
// token, so terminators and trailing comments stay where they were. Text
// that is not read-only is returned unchanged.
func EnsureLimit(sql string, maxRows int) string {
	if Classify(sql) != ReadOnly {
		return sql
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	clause := " LIMIT " + strconv.Itoa(maxRows)

	var inserts []int
	for _, seg := range splitStatements(sql) {
		l := lex(seg.text)
		if l.empty() || hasRowLimit(l) {
			continue
		}
		inserts = append(inserts, seg.offset+l.end)
	}
	if len(inserts) == 0 {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) + len(inserts)*len(clause))
	prev := 0
	for _, at := range inserts {
		b.WriteString(sql[prev:at])
		b.WriteString(clause)
		prev = at
	}
	b.WriteString(sql[prev:])
	return b.String()
}

func hasRowLimit(l lexed) bool {
	for i, w := range l.words {
		if w == "LIMIT" {
			return true
		}
		if w == "FETCH" && i+1 < len(l.words) && (l.words[i+1] == "FIRST" || l.words[i+1] == "NEXT") {
			return true
		}
	}
	return false
}
