package stock

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// DefaultDirection returns the direction used when a column is first
// selected: ascending for the primary name column, descending for all others.
func DefaultDirection(column string) SortDirection {
	if column == "name" {
		return SortAscending
	}
	return SortDescending
}

// ViewOptions describes one filter/sort pass over a record set. Filters maps
// column names to raw query strings; empty queries always pass. GlobalQuery
// is matched as a case-insensitive substring across all raw fields.
// RequireFields lists columns whose raw text must be non-empty for a record
// to be visible at all, regardless of filters.
type ViewOptions struct {
	Filters       map[string]string
	GlobalQuery   string
	SortKey       string
	SortDir       SortDirection
	RequireFields []string
}

// ApplyView runs the full filter and sort pass and returns a fresh ordered
// slice. The pass is pure: the input slice and the records themselves are not
// modified, and the result is deterministic for identical inputs.
func ApplyView(records []Record, opts ViewOptions) []Record {
	out := make([]Record, 0, len(records))

	global := strings.ToLower(strings.TrimSpace(opts.GlobalQuery))

	for _, r := range records {
		if !hasRequiredFields(r, opts.RequireFields) {
			continue
		}
		if !matchesFilters(r, opts.Filters) {
			continue
		}
		if global != "" && !strings.Contains(strings.ToLower(r.SearchBlob()), global) {
			continue
		}
		out = append(out, r)
	}

	sortRecords(out, opts.SortKey, opts.SortDir)

	return out
}

func hasRequiredFields(r Record, fields []string) bool {
	for _, f := range fields {
		if r.RawField(f) == "" {
			return false
		}
	}
	return true
}

func matchesFilters(r Record, filters map[string]string) bool {
	for column, query := range filters {
		if strings.TrimSpace(query) == "" {
			continue
		}
		if !MatchColumn(r, column, query) {
			return false
		}
	}
	return true
}

func sortRecords(records []Record, sortKey string, dir SortDirection) {
	col, ok := columnsByName[sortKey]
	if !ok {
		return
	}

	sign := 1
	if dir == SortDescending {
		sign = -1
	}

	var collator *collate.Collator
	if col.Kind == ColumnText {
		collator = collate.New(language.Und, collate.IgnoreCase)
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]

		if col.Kind == ColumnText {
			return sign*collator.CompareString(a.RawField(sortKey), b.RawField(sortKey)) < 0
		}

		av, bv := a.Value(sortKey), b.Value(sortKey)

		// Missing values always sort to the end, independent of direction.
		switch {
		case IsMissing(av) && IsMissing(bv):
			return false
		case IsMissing(av):
			return false
		case IsMissing(bv):
			return true
		}

		switch {
		case av < bv:
			return sign > 0
		case av > bv:
			return sign < 0
		default:
			return false
		}
	})
}
