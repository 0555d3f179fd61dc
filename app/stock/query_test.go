package stock

import (
	"testing"
)

func TestParseQuery_Presence(t *testing.T) {
	for _, input := range []string{"*", "has", "HAS", " * "} {
		q := ParseQuery(input, ColumnNumber)
		if q.Kind != QueryPresence || q.Presence != PresenceHas {
			t.Errorf("ParseQuery(%q) = %+v, want presence/has", input, q)
		}
	}

	for _, input := range []string{"!*", "empty", "Empty"} {
		q := ParseQuery(input, ColumnNumber)
		if q.Kind != QueryPresence || q.Presence != PresenceEmpty {
			t.Errorf("ParseQuery(%q) = %+v, want presence/empty", input, q)
		}
	}

	q := ParseQuery("nonzero", ColumnNumber)
	if q.Kind != QueryPresence || q.Presence != PresenceNonZero {
		t.Errorf("ParseQuery(nonzero) = %+v, want presence/nonzero", q)
	}
}

func TestQuery_PresenceMatch(t *testing.T) {
	has := ParseQuery("*", ColumnNumber)
	if !has.Match("2.5T", 2.5e12, "2.5T") {
		t.Error("Presence query should match non-empty raw text")
	}
	if !has.Match("garbage", NotANumber(), "garbage") {
		t.Error("Presence query should match non-empty raw text independent of parsed value")
	}
	if has.Match("", NotANumber(), "") {
		t.Error("Presence query should not match empty raw text")
	}

	empty := ParseQuery("empty", ColumnNumber)
	if !empty.Match("", NotANumber(), "") {
		t.Error("Empty query should match empty raw text")
	}

	nonzero := ParseQuery("nonzero", ColumnNumber)
	if nonzero.Match("0", 0, "0") {
		t.Error("Nonzero query should reject a parsed zero")
	}
	if !nonzero.Match("5", 5, "5") {
		t.Error("Nonzero query should match a parsed non-zero")
	}
	if !nonzero.Match("n/a", NotANumber(), "n/a") {
		t.Error("Nonzero query should fall back to presence for non-numeric raw text")
	}
}

func TestParseQuery_Range(t *testing.T) {
	q := ParseQuery("1B-10B", ColumnNumber)
	if q.Kind != QueryRange {
		t.Fatalf("ParseQuery(1B-10B) = %+v, want range", q)
	}

	if !q.Match("5B", 5e9, "5B") {
		t.Error("Value 5e9 should fall inside 1B-10B")
	}
	if q.Match("0.5B", 0.5e9, "500M") {
		t.Error("Value 0.5e9 should fall outside 1B-10B")
	}
	if !q.Match("1B", 1e9, "1B") {
		t.Error("Range bounds are inclusive")
	}
	if q.Match("", NotANumber(), "") {
		t.Error("Missing value should never match a range query")
	}
}

func TestParseQuery_DateRange(t *testing.T) {
	q := ParseQuery("2024-01-01-2024-06-30", ColumnDate)
	if q.Kind != QueryRange {
		t.Fatalf("Expected a date range, got %+v", q)
	}

	inside := ParseDate("2024-03-15")
	if !q.Match("2024-03-15", inside, "2024-03-15") {
		t.Error("Date inside the range should match")
	}

	outside := ParseDate("2025-01-01")
	if q.Match("2025-01-01", outside, "2025-01-01") {
		t.Error("Date outside the range should not match")
	}
}

func TestParseQuery_FullDateIsNotARange(t *testing.T) {
	q := ParseQuery("2024-01-01", ColumnDate)
	if q.Kind != QuerySubstring {
		t.Errorf("A single full date should degrade to substring, got %+v", q)
	}
	if !q.Match("2024-01-01", ParseDate("2024-01-01"), "2024-01-01") {
		t.Error("Substring fallback should match the displayed date")
	}
}

func TestParseQuery_Comparison(t *testing.T) {
	q := ParseQuery(">=10M", ColumnNumber)
	if q.Kind != QueryComparison || q.Op != ">=" {
		t.Fatalf("ParseQuery(>=10M) = %+v, want comparison >=", q)
	}

	if !q.Match("10M", 10e6, "10M") {
		t.Error(">=10M should match exactly 10e6 (inclusive)")
	}
	if q.Match("9.9M", 9.9e6, "9.9M") {
		t.Error(">=10M should reject 9.9e6")
	}
	if q.Match("", NotANumber(), "") {
		t.Error("Missing value should never match a comparison query")
	}

	lt := ParseQuery("<1B", ColumnNumber)
	if !lt.Match("500M", 5e8, "500M") {
		t.Error("<1B should match 5e8")
	}
	if lt.Match("1B", 1e9, "1B") {
		t.Error("<1B should reject exactly 1e9 (strict)")
	}
}

func TestParseQuery_ComparisonDate(t *testing.T) {
	q := ParseQuery(">2024-01-01", ColumnDate)
	if q.Kind != QueryComparison {
		t.Fatalf("Expected date comparison, got %+v", q)
	}
	if !q.Match("2024-06-01", ParseDate("2024-06-01"), "2024-06-01") {
		t.Error("Later date should match >2024-01-01")
	}
	if q.Match("2023-06-01", ParseDate("2023-06-01"), "2023-06-01") {
		t.Error("Earlier date should not match >2024-01-01")
	}
}

func TestParseQuery_SubstringFallback(t *testing.T) {
	q := ParseQuery("2.5", ColumnNumber)
	if q.Kind != QuerySubstring {
		t.Fatalf("Plain text should degrade to substring, got %+v", q)
	}
	if !q.Match("2.5T", 2.5e12, "2.5T") {
		t.Error("Substring should match the display string case-insensitively")
	}

	// Unparseable comparison operand degrades to substring too.
	q = ParseQuery(">abc", ColumnNumber)
	if q.Kind != QuerySubstring {
		t.Errorf("Comparison with no numeric operand should degrade to substring, got %+v", q)
	}
}

func TestMatchColumn_TextColumn(t *testing.T) {
	r := Record{Industry: "Technology Hardware"}

	if !MatchColumn(r, "industry", "tech") {
		t.Error("Substring match on a text column should be case-insensitive")
	}
	if MatchColumn(r, "industry", "pharma") {
		t.Error("Non-matching substring should reject the record")
	}
}
