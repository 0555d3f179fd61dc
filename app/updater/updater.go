// Package updater maintains dataset stock records from the screener and
// manual edits, and exports them as dataset JSON files.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"stockboard/app/database"
	"stockboard/app/screener"
)

type Updater struct {
	stocks   database.StockRepository
	screener *screener.Client
	dataDir  string
}

func New(stocks database.StockRepository, client *screener.Client, dataDir string) *Updater {
	return &Updater{
		stocks:   stocks,
		screener: client,
		dataDir:  dataDir,
	}
}

// UpsertOptions carries optional field overrides for UpsertTicker. Nil fields
// preserve whatever the stored record already has. Exchanges limits the
// screener lookup; empty means all exchanges.
type UpsertOptions struct {
	TargetPrice *string
	Strategy    *string
	Rating      *string
	Exchanges   []string
}

// RefreshAll replaces a dataset with the current screener universe. Screener
// fields (name, industry, market cap, price) are taken fresh; manually
// curated fields (last_updated, target_price, strategy, rating) are
// preserved from the stored records.
func (u *Updater) RefreshAll(ctx context.Context, dataset string, exchanges []string) (int, error) {
	universe, err := u.screener.FetchUniverse(ctx, exchanges)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch universe: %w", err)
	}

	existing, err := u.stocks.ListStocks(dataset)
	if err != nil {
		return 0, fmt.Errorf("failed to load existing stocks: %w", err)
	}
	prevByTicker := make(map[string]database.StockRow, len(existing))
	for _, row := range existing {
		prevByTicker[row.Ticker] = row
	}

	merged := make([]database.StockRow, 0, len(universe))
	for ticker, quote := range universe {
		prev := prevByTicker[ticker]
		merged = append(merged, database.StockRow{
			Dataset:      dataset,
			Ticker:       ticker,
			Name:         quote.Name,
			Industry:     quote.Industry,
			MarketCap:    quote.MarketCap,
			CurrentPrice: quote.CurrentPrice,
			TargetPrice:  prev.TargetPrice,
			Strategy:     prev.Strategy,
			Rating:       prev.Rating,
			LastUpdated:  prev.LastUpdated,
			Page:         pageFor(ticker),
		})
	}

	if err := u.stocks.ReplaceDataset(dataset, merged); err != nil {
		return 0, err
	}
	if err := u.Export(dataset); err != nil {
		return 0, err
	}

	return len(merged), nil
}

// UpsertTicker adds or refreshes one ticker from the screener without
// touching last_updated. A non-empty stored industry wins over the screener
// value. When the screener does not list the ticker, the stored record is
// kept as a placeholder.
func (u *Updater) UpsertTicker(ctx context.Context, dataset, ticker string, opts UpsertOptions) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}

	prev, err := u.stocks.GetStock(dataset, ticker)
	if err != nil {
		return err
	}
	if prev == nil {
		prev = &database.StockRow{Dataset: dataset, Ticker: ticker}
	}

	quote, err := u.screener.FetchTicker(ctx, ticker, opts.Exchanges)
	if err != nil {
		return fmt.Errorf("failed to fetch ticker %s: %w", ticker, err)
	}

	row := *prev
	if quote != nil {
		row.Name = quote.Name
		row.MarketCap = quote.MarketCap
		row.CurrentPrice = quote.CurrentPrice
		if strings.TrimSpace(row.Industry) == "" {
			row.Industry = quote.Industry
		}
	}
	if opts.TargetPrice != nil {
		row.TargetPrice = *opts.TargetPrice
	}
	if opts.Strategy != nil {
		row.Strategy = *opts.Strategy
	}
	if opts.Rating != nil {
		row.Rating = *opts.Rating
	}
	row.Page = pageFor(ticker)

	if err := u.stocks.UpsertStock(row); err != nil {
		return err
	}

	return u.Export(dataset)
}

// SetTargetPrice updates only the target price and bumps last_updated to
// today.
func (u *Updater) SetTargetPrice(dataset, ticker, targetPrice string) error {
	return u.setField(dataset, ticker, func(row *database.StockRow) {
		row.TargetPrice = targetPrice
		row.LastUpdated = today()
	})
}

// SetStrategy updates only the strategy note and bumps last_updated to today.
func (u *Updater) SetStrategy(dataset, ticker, strategy string) error {
	return u.setField(dataset, ticker, func(row *database.StockRow) {
		row.Strategy = strategy
		row.LastUpdated = today()
	})
}

// SetRating sets or clears the rating. Does not touch last_updated.
func (u *Updater) SetRating(dataset, ticker, rating string) error {
	return u.setField(dataset, ticker, func(row *database.StockRow) {
		row.Rating = rating
	})
}

// SetIndustry overrides the industry. Does not touch last_updated.
func (u *Updater) SetIndustry(dataset, ticker, industry string) error {
	return u.setField(dataset, ticker, func(row *database.StockRow) {
		row.Industry = strings.TrimSpace(industry)
	})
}

// SetLastUpdated sets last_updated manually. An empty date means today,
// "delete" clears it, anything else must be a YYYY-MM-DD date.
func (u *Updater) SetLastUpdated(dataset, ticker, date string) error {
	var value string
	switch date {
	case "":
		value = today()
	case "delete":
		value = ""
	default:
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD, empty for today, or \"delete\" to clear")
		}
		value = date
	}

	return u.setField(dataset, ticker, func(row *database.StockRow) {
		row.LastUpdated = value
	})
}

func (u *Updater) setField(dataset, ticker string, apply func(*database.StockRow)) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}

	prev, err := u.stocks.GetStock(dataset, ticker)
	if err != nil {
		return err
	}
	if prev == nil {
		prev = &database.StockRow{Dataset: dataset, Ticker: ticker}
	}

	row := *prev
	apply(&row)
	row.Page = pageFor(ticker)

	if err := u.stocks.UpsertStock(row); err != nil {
		return err
	}

	return u.Export(dataset)
}

// exportRecord fixes the field order of exported JSON objects.
type exportRecord struct {
	Name         string `json:"name"`
	Ticker       string `json:"ticker"`
	Industry     string `json:"industry"`
	MarketCap    string `json:"market_cap"`
	LastUpdated  string `json:"last_updated"`
	CurrentPrice string `json:"current_price"`
	TargetPrice  string `json:"target_price"`
	Strategy     string `json:"strategy"`
	Rating       string `json:"rating"`
	Page         string `json:"page"`
}

// Export writes the dataset's stored records to <dataDir>/<dataset>.json as
// a ticker-sorted array.
func (u *Updater) Export(dataset string) error {
	rows, err := u.stocks.ListStocks(dataset)
	if err != nil {
		return err
	}

	records := make([]exportRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, exportRecord{
			Name:         row.Name,
			Ticker:       row.Ticker,
			Industry:     row.Industry,
			MarketCap:    row.MarketCap,
			LastUpdated:  row.LastUpdated,
			CurrentPrice: row.CurrentPrice,
			TargetPrice:  row.TargetPrice,
			Strategy:     row.Strategy,
			Rating:       row.Rating,
			Page:         row.Page,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Ticker < records[j].Ticker
	})

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}

	if err := os.MkdirAll(u.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(u.dataDir, dataset+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	return nil
}

// ExportPath returns where Export writes a dataset's JSON file.
func (u *Updater) ExportPath(dataset string) string {
	return filepath.Join(u.dataDir, dataset+".json")
}

func pageFor(ticker string) string {
	return fmt.Sprintf("stocks/%s.html", ticker)
}

func today() string {
	return time.Now().Format("2006-01-02")
}
