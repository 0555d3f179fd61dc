package stock

import (
	"regexp"
	"strings"
)

// QueryKind tags the parsed form of a column filter query.
type QueryKind int

const (
	QuerySubstring QueryKind = iota
	QueryPresence
	QueryRange
	QueryComparison
)

type PresenceKind int

const (
	PresenceHas PresenceKind = iota
	PresenceEmpty
	PresenceNonZero
)

// Query is a parsed filter query. The grammar, in precedence order:
// presence tokens (*, has, !*, empty, nonzero), inclusive ranges (A-B),
// comparisons (>, >=, <, <= followed by a value token), and finally a
// case-insensitive substring over the display text.
type Query struct {
	Kind     QueryKind
	Presence PresenceKind
	Lo, Hi   float64
	Op       string
	Bound    float64
	Term     string
}

var numberRangeRe = regexp.MustCompile(`^\s*(\$?\d[\d,]*(?:\.\d+)?\s*[KkMmBbTt]?)\s*-\s*(\$?\d[\d,]*(?:\.\d+)?\s*[KkMmBbTt]?)\s*$`)

// ParseQuery parses a raw filter query for a column of the given kind.
// Parsing is total: anything that is not a presence, range or comparison
// query degrades to a substring query.
func ParseQuery(text string, kind ColumnKind) Query {
	s := strings.TrimSpace(text)

	switch strings.ToLower(s) {
	case "*", "has":
		return Query{Kind: QueryPresence, Presence: PresenceHas}
	case "!*", "empty":
		return Query{Kind: QueryPresence, Presence: PresenceEmpty}
	case "nonzero":
		return Query{Kind: QueryPresence, Presence: PresenceNonZero}
	}

	if kind == ColumnNumber || kind == ColumnDate {
		if q, ok := parseRange(s, kind); ok {
			return q
		}

		for _, op := range []string{">=", "<=", ">", "<"} {
			if strings.HasPrefix(s, op) {
				bound := parseToken(strings.TrimSpace(strings.TrimPrefix(s, op)), kind)
				if !IsMissing(bound) {
					return Query{Kind: QueryComparison, Op: op, Bound: bound}
				}
				break
			}
		}
	}

	return Query{Kind: QuerySubstring, Term: strings.ToLower(s)}
}

func parseToken(s string, kind ColumnKind) float64 {
	if kind == ColumnDate {
		return ParseDate(s)
	}
	return ParseScaledNumber(s)
}

func parseRange(s string, kind ColumnKind) (Query, bool) {
	if kind == ColumnNumber {
		m := numberRangeRe.FindStringSubmatch(s)
		if m == nil {
			return Query{}, false
		}
		lo := ParseScaledNumber(m[1])
		hi := ParseScaledNumber(m[2])
		if IsMissing(lo) || IsMissing(hi) {
			return Query{}, false
		}
		return Query{Kind: QueryRange, Lo: lo, Hi: hi}, true
	}

	// Date tokens contain dashes themselves, so a query that parses as a
	// single date is not a range. Otherwise try each dash as the separator.
	if !IsMissing(ParseDate(s)) {
		return Query{}, false
	}
	for i := 1; i < len(s)-1; i++ {
		if s[i] != '-' {
			continue
		}
		lo := ParseDate(strings.TrimSpace(s[:i]))
		hi := ParseDate(strings.TrimSpace(s[i+1:]))
		if !IsMissing(lo) && !IsMissing(hi) {
			return Query{Kind: QueryRange, Lo: lo, Hi: hi}, true
		}
	}
	return Query{}, false
}

// Match tests a column value against the query. raw is the column's original
// text, val its parsed value (NaN sentinel when absent) and display the
// formatted display string used for substring fallback. Records with a
// missing parsed value never match range or comparison queries but may still
// match presence and substring queries on their raw text.
func (q Query) Match(raw string, val float64, display string) bool {
	switch q.Kind {
	case QueryPresence:
		switch q.Presence {
		case PresenceHas:
			return raw != ""
		case PresenceEmpty:
			return raw == ""
		case PresenceNonZero:
			if !IsMissing(val) {
				return val != 0
			}
			return raw != ""
		}
		return false

	case QueryRange:
		return !IsMissing(val) && val >= q.Lo && val <= q.Hi

	case QueryComparison:
		if IsMissing(val) {
			return false
		}
		switch q.Op {
		case ">":
			return val > q.Bound
		case ">=":
			return val >= q.Bound
		case "<":
			return val < q.Bound
		case "<=":
			return val <= q.Bound
		}
		return false

	default:
		if display == "" {
			display = raw
		}
		return strings.Contains(strings.ToLower(display), q.Term)
	}
}

// MatchColumn tests a record's column against a raw query string.
func MatchColumn(r Record, column string, query string) bool {
	col, ok := columnsByName[column]
	if !ok {
		return false
	}

	q := ParseQuery(query, col.Kind)
	return q.Match(r.RawField(column), r.Value(column), r.Display(column))
}
