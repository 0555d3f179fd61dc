package database

import (
	"time"
)

// StockRow is a stock record as stored, raw text per attribute. Parsing into
// typed values happens in the stock package after loading.
type StockRow struct {
	ID           int64
	Dataset      string
	Ticker       string
	Name         string
	Industry     string
	MarketCap    string
	CurrentPrice string
	TargetPrice  string
	Rating       string
	Strategy     string
	LastUpdated  string
	Page         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RawRecord returns the row as a source record for the normalizer.
func (r StockRow) RawRecord() map[string]any {
	return map[string]any{
		"name":          r.Name,
		"ticker":        r.Ticker,
		"industry":      r.Industry,
		"market_cap":    r.MarketCap,
		"current_price": r.CurrentPrice,
		"target_price":  r.TargetPrice,
		"rating":        r.Rating,
		"strategy":      r.Strategy,
		"last_updated":  r.LastUpdated,
		"page":          r.Page,
	}
}

// NewsItem is a stored headline for one ticker.
type NewsItem struct {
	ID               int64
	Dataset          string
	Ticker           string
	GUID             string
	Title            string
	Link             string
	Description      string
	Content          string
	PublishedAt      *time.Time
	ExtractionStatus string
	ExtractedAt      *time.Time
	CreatedAt        time.Time
}

// Extraction statuses for news items.
const (
	ExtractionPending = "pending"
	ExtractionDone    = "done"
	ExtractionFailed  = "failed"
	ExtractionSkipped = "skipped"
)
