package stock

// RawRecord is a single source record as decoded from JSON, lenient JSON or
// CSV, before normalization. Field names vary by source; unknown keys are
// ignored.
type RawRecord map[string]any

// Record is the canonical stock record. For every numeric or date bearing
// attribute the original text is kept alongside the parsed value; the parsed
// value is derived solely from the raw text and is NaN when the text does not
// parse. Dates are carried as epoch milliseconds with the same NaN sentinel.
// Records are never mutated after Normalize.
type Record struct {
	Name     string
	Ticker   string
	Industry string
	Page     string

	MarketCapRaw    string
	MarketCapVal    float64
	CurrentPriceRaw string
	CurrentPriceVal float64
	TargetPriceRaw  string
	TargetPriceVal  float64
	RatingRaw       string
	RatingVal       float64
	LastUpdatedRaw  string
	LastUpdatedVal  float64

	StrategyRaw string
}

type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnNumber
	ColumnDate
)

func (k ColumnKind) String() string {
	switch k {
	case ColumnNumber:
		return "number"
	case ColumnDate:
		return "date"
	default:
		return "text"
	}
}

type Column struct {
	Name  string
	Title string
	Kind  ColumnKind
}

// Columns lists the filterable and sortable columns in display order.
var Columns = []Column{
	{Name: "name", Title: "Company", Kind: ColumnText},
	{Name: "ticker", Title: "Ticker", Kind: ColumnText},
	{Name: "industry", Title: "Industry", Kind: ColumnText},
	{Name: "market_cap", Title: "Market Cap", Kind: ColumnNumber},
	{Name: "current_price", Title: "Price", Kind: ColumnNumber},
	{Name: "target_price", Title: "Target", Kind: ColumnNumber},
	{Name: "rating", Title: "Rating", Kind: ColumnNumber},
	{Name: "last_updated", Title: "Updated", Kind: ColumnDate},
	{Name: "strategy", Title: "Strategy", Kind: ColumnText},
}

var columnsByName = func() map[string]Column {
	m := make(map[string]Column, len(Columns))
	for _, c := range Columns {
		m[c.Name] = c
	}
	return m
}()

// LookupColumn returns the column definition for a column name.
func LookupColumn(name string) (Column, bool) {
	c, ok := columnsByName[name]
	return c, ok
}

// RawField returns the raw display text of the named column.
func (r Record) RawField(column string) string {
	switch column {
	case "name":
		return r.Name
	case "ticker":
		return r.Ticker
	case "industry":
		return r.Industry
	case "market_cap":
		return r.MarketCapRaw
	case "current_price":
		return r.CurrentPriceRaw
	case "target_price":
		return r.TargetPriceRaw
	case "rating":
		return r.RatingRaw
	case "last_updated":
		return r.LastUpdatedRaw
	case "strategy":
		return r.StrategyRaw
	default:
		return ""
	}
}

// Value returns the parsed value of the named column. Text columns have no
// parsed value and report the NaN sentinel.
func (r Record) Value(column string) float64 {
	switch column {
	case "market_cap":
		return r.MarketCapVal
	case "current_price":
		return r.CurrentPriceVal
	case "target_price":
		return r.TargetPriceVal
	case "rating":
		return r.RatingVal
	case "last_updated":
		return r.LastUpdatedVal
	default:
		return NotANumber()
	}
}

// Display returns the string shown for the named column: the formatted parsed
// value for numeric and date columns when it parses, the raw text otherwise.
func (r Record) Display(column string) string {
	col, ok := columnsByName[column]
	if !ok {
		return ""
	}

	switch col.Kind {
	case ColumnNumber:
		if v := r.Value(column); !IsMissing(v) {
			return FormatScaledNumber(v)
		}
		return r.RawField(column)
	case ColumnDate:
		if v := r.Value(column); !IsMissing(v) {
			return FormatDate(v)
		}
		return r.RawField(column)
	default:
		return r.RawField(column)
	}
}

// SearchBlob concatenates all display-relevant raw fields for the global
// search substring check.
func (r Record) SearchBlob() string {
	fields := []string{
		r.Name, r.Ticker, r.Industry,
		r.MarketCapRaw, r.CurrentPriceRaw, r.TargetPriceRaw,
		r.RatingRaw, r.LastUpdatedRaw, r.StrategyRaw,
	}
	var b []byte
	for _, f := range fields {
		b = append(b, f...)
		b = append(b, ' ')
	}
	return string(b)
}
