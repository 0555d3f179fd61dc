package stock

import (
	"testing"
)

func numberedRecords(values ...float64) []Record {
	records := make([]Record, 0, len(values))
	for i, v := range values {
		records = append(records, Record{
			Ticker:       string(rune('A' + i)),
			MarketCapVal: v,
		})
	}
	return records
}

func capsOf(records []Record) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		out = append(out, r.MarketCapVal)
	}
	return out
}

func TestApplyView_SortMissingAlwaysLast(t *testing.T) {
	records := numberedRecords(NotANumber(), 5, NotANumber(), 1)

	asc := ApplyView(records, ViewOptions{SortKey: "market_cap", SortDir: SortAscending})
	got := capsOf(asc)
	if got[0] != 1 || got[1] != 5 || !IsMissing(got[2]) || !IsMissing(got[3]) {
		t.Errorf("Ascending sort = %v, want [1 5 NaN NaN]", got)
	}
	// Relative order among the NaN entries is preserved from input.
	if asc[2].Ticker != "A" || asc[3].Ticker != "C" {
		t.Errorf("Stable sort should preserve NaN input order, got %q then %q",
			asc[2].Ticker, asc[3].Ticker)
	}

	desc := ApplyView(records, ViewOptions{SortKey: "market_cap", SortDir: SortDescending})
	got = capsOf(desc)
	if got[0] != 5 || got[1] != 1 || !IsMissing(got[2]) || !IsMissing(got[3]) {
		t.Errorf("Descending sort = %v, want [5 1 NaN NaN]", got)
	}
}

func TestApplyView_TextSortCaseInsensitive(t *testing.T) {
	records := []Record{
		{Name: "zebra Corp"},
		{Name: "Alpha Inc"},
		{Name: "beta LLC"},
	}

	sorted := ApplyView(records, ViewOptions{SortKey: "name", SortDir: SortAscending})
	if sorted[0].Name != "Alpha Inc" || sorted[1].Name != "beta LLC" || sorted[2].Name != "zebra Corp" {
		t.Errorf("Case-insensitive sort failed: %q, %q, %q",
			sorted[0].Name, sorted[1].Name, sorted[2].Name)
	}
}

func TestApplyView_FiltersAreConjunctive(t *testing.T) {
	records := Normalize([]RawRecord{
		{"name": "Apple", "ticker": "AAPL", "market_cap": "2.5T", "industry": "Technology"},
		{"name": "Exxon", "ticker": "XOM", "market_cap": "450B", "industry": "Energy"},
	})

	visible := ApplyView(records, ViewOptions{
		Filters: map[string]string{
			"market_cap": ">1T",
			"industry":   "tech",
		},
	})

	if len(visible) != 1 || visible[0].Ticker != "AAPL" {
		t.Fatalf("Expected only AAPL to survive both filters, got %d records", len(visible))
	}
}

func TestApplyView_EmptyFilterAlwaysPasses(t *testing.T) {
	records := Normalize([]RawRecord{{"name": "Apple", "ticker": "AAPL"}})

	visible := ApplyView(records, ViewOptions{
		Filters: map[string]string{"market_cap": "  "},
	})

	if len(visible) != 1 {
		t.Errorf("Blank filter should pass every record, got %d", len(visible))
	}
}

func TestApplyView_EndToEndMarketCapFilter(t *testing.T) {
	records := Normalize([]RawRecord{
		{"name": "Apple", "ticker": "aapl", "market_cap": "2.5T", "last_updated": "2024-01-01"},
	})

	over1T := ApplyView(records, ViewOptions{Filters: map[string]string{"market_cap": ">1T"}})
	if len(over1T) != 1 || over1T[0].Ticker != "AAPL" {
		t.Errorf("Filter >1T should yield exactly the one record, got %d", len(over1T))
	}

	over3T := ApplyView(records, ViewOptions{Filters: map[string]string{"market_cap": ">3T"}})
	if len(over3T) != 0 {
		t.Errorf("Filter >3T should yield an empty sequence, got %d", len(over3T))
	}
}

func TestApplyView_GlobalSearchSpansFields(t *testing.T) {
	records := Normalize([]RawRecord{
		{"name": "Apple", "ticker": "AAPL", "industry": "Consumer Electronics"},
		{"name": "Pfizer", "ticker": "PFE", "industry": "Pharmaceuticals"},
	})

	// Term matches only the industry field; no per-column filters set.
	visible := ApplyView(records, ViewOptions{GlobalQuery: "electronics"})
	if len(visible) != 1 || visible[0].Ticker != "AAPL" {
		t.Fatalf("Global search should match any raw field, got %d records", len(visible))
	}

	none := ApplyView(records, ViewOptions{GlobalQuery: "automotive"})
	if len(none) != 0 {
		t.Errorf("Non-matching global search should hide all records, got %d", len(none))
	}
}

func TestApplyView_RequireFields(t *testing.T) {
	records := Normalize([]RawRecord{
		{"name": "Apple", "ticker": "AAPL", "last_updated": "2024-01-01"},
		{"name": "Stale", "ticker": "STL"},
	})

	visible := ApplyView(records, ViewOptions{RequireFields: []string{"last_updated"}})
	if len(visible) != 1 || visible[0].Ticker != "AAPL" {
		t.Errorf("Require-field policy should hide records with empty raw text, got %d", len(visible))
	}
}

func TestApplyView_DoesNotMutateInput(t *testing.T) {
	records := numberedRecords(3, 1, 2)

	ApplyView(records, ViewOptions{SortKey: "market_cap", SortDir: SortAscending})

	if records[0].MarketCapVal != 3 || records[1].MarketCapVal != 1 || records[2].MarketCapVal != 2 {
		t.Error("ApplyView must not reorder the input slice")
	}
}

func TestDefaultDirection(t *testing.T) {
	if DefaultDirection("name") != SortAscending {
		t.Error("Name column should default to ascending")
	}
	if DefaultDirection("market_cap") != SortDescending {
		t.Error("Non-primary columns should default to descending")
	}
}

func TestTable_ReplaceAndError(t *testing.T) {
	table := NewTable()

	table.Replace(numberedRecords(1, 2))
	if table.Len() != 2 {
		t.Fatalf("Expected 2 records after replace, got %d", table.Len())
	}

	table.SetError("could not load")
	if table.Err() != "could not load" {
		t.Errorf("Expected load error to be recorded, got %q", table.Err())
	}
	if table.Len() != 2 {
		t.Error("A failed load must leave the previous records untouched")
	}

	table.Replace(numberedRecords(3))
	if table.Err() != "" {
		t.Error("A successful load should clear the load error")
	}
}
