package tasks

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/loader"
	"stockboard/app/stock"
)

func newTestStockRepo(t *testing.T) database.StockRepository {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewConnection() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error: %v", err)
	}

	return database.NewStockRepository(db)
}

func TestLoadDatasetTaskFromConfigSource(t *testing.T) {
	repo := newTestStockRepo(t)
	tables := stock.NewTables()

	config := &dataset.Config{
		Name: "watchlist",
		Source: dataset.ConfigSource{
			Records: []map[string]any{
				{"company": "Apple Inc.", "symbol": "aapl", "market_cap": "3.2T"},
			},
		},
	}

	task := NewLoadDatasetTask(config, loader.NewLoader(http.DefaultClient, "test-agent"), repo, tables)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	records := tables.Get("watchlist").Snapshot()
	if len(records) != 1 {
		t.Fatalf("table has %d records, want 1", len(records))
	}
	if records[0].Ticker != "AAPL" {
		t.Errorf("ticker = %q, want normalized AAPL", records[0].Ticker)
	}
}

func TestLoadDatasetTaskPrefersStore(t *testing.T) {
	repo := newTestStockRepo(t)
	tables := stock.NewTables()

	err := repo.UpsertStock(database.StockRow{
		Dataset: "watchlist", Ticker: "MSFT", Name: "Microsoft", MarketCap: "3.1T",
	})
	if err != nil {
		t.Fatalf("UpsertStock() error: %v", err)
	}

	config := &dataset.Config{
		Name: "watchlist",
		Source: dataset.ConfigSource{
			Records: []map[string]any{
				{"name": "Config Source Corp", "ticker": "CONF"},
			},
		},
	}

	task := NewLoadDatasetTask(config, loader.NewLoader(http.DefaultClient, "test-agent"), repo, tables)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	records := tables.Get("watchlist").Snapshot()
	if len(records) != 1 || records[0].Ticker != "MSFT" {
		t.Errorf("records = %+v, want stored MSFT row to win over config source", records)
	}
}

func TestLoadDatasetTaskLoadErrorKeepsRecords(t *testing.T) {
	repo := newTestStockRepo(t)
	tables := stock.NewTables()

	table := tables.Get("watchlist")
	table.Replace([]stock.Record{{Ticker: "OLD"}})

	config := &dataset.Config{
		Name: "watchlist",
		Source: dataset.ConfigSource{
			Path: filepath.Join(t.TempDir(), "does-not-exist.json"),
		},
	}

	task := NewLoadDatasetTask(config, loader.NewLoader(http.DefaultClient, "test-agent"), repo, tables)
	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Execute() error = nil, want load failure")
	}

	if table.Err() == "" {
		t.Error("table error not set after failed load")
	}
	if table.Len() != 1 {
		t.Errorf("table has %d records after failed load, want previous 1 kept", table.Len())
	}
}
