package database

import (
	"database/sql"
	"fmt"
)

var _ StockRepository = (*stockRepository)(nil)

type stockRepository struct {
	db *DB
}

func NewStockRepository(db *DB) StockRepository {
	return &stockRepository{db: db}
}

const stockColumns = `id, dataset, ticker, name, industry, market_cap,
	current_price, target_price, rating, strategy, last_updated, page,
	created_at, updated_at`

func (r *stockRepository) ListStocks(dataset string) ([]StockRow, error) {
	rows, err := r.db.Query(`
		SELECT `+stockColumns+`
		FROM stocks
		WHERE dataset = ?
		ORDER BY ticker
	`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	defer rows.Close()

	var stocks []StockRow
	for rows.Next() {
		row, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, row)
	}

	return stocks, rows.Err()
}

func (r *stockRepository) GetStock(dataset, ticker string) (*StockRow, error) {
	row, err := scanStock(r.db.QueryRow(`
		SELECT `+stockColumns+`
		FROM stocks
		WHERE dataset = ? AND ticker = ?
	`, dataset, ticker))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &row, nil
}

func (r *stockRepository) GetStockCount(dataset string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM stocks WHERE dataset = ?`, dataset).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stocks: %w", err)
	}
	return count, nil
}

func (r *stockRepository) ListTickers(dataset string) ([]string, error) {
	rows, err := r.db.Query(`SELECT ticker FROM stocks WHERE dataset = ? ORDER BY ticker`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}

	return tickers, rows.Err()
}

func (r *stockRepository) UpsertStock(row StockRow) error {
	_, err := r.db.Exec(`
		INSERT INTO stocks (dataset, ticker, name, industry, market_cap,
			current_price, target_price, rating, strategy, last_updated, page)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (dataset, ticker) DO UPDATE SET
			name = excluded.name,
			industry = excluded.industry,
			market_cap = excluded.market_cap,
			current_price = excluded.current_price,
			target_price = excluded.target_price,
			rating = excluded.rating,
			strategy = excluded.strategy,
			last_updated = excluded.last_updated,
			page = excluded.page,
			updated_at = CURRENT_TIMESTAMP
	`, row.Dataset, row.Ticker, row.Name, row.Industry, row.MarketCap,
		row.CurrentPrice, row.TargetPrice, row.Rating, row.Strategy,
		row.LastUpdated, row.Page)
	if err != nil {
		return fmt.Errorf("failed to upsert stock: %w", err)
	}

	return nil
}

// ReplaceDataset swaps a dataset's rows wholesale inside one transaction, so
// readers never observe a partially refreshed dataset.
func (r *stockRepository) ReplaceDataset(dataset string, stocks []StockRow) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM stocks WHERE dataset = ?`, dataset); err != nil {
		return fmt.Errorf("failed to clear dataset: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO stocks (dataset, ticker, name, industry, market_cap,
			current_price, target_price, rating, strategy, last_updated, page)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range stocks {
		_, err := stmt.Exec(dataset, row.Ticker, row.Name, row.Industry,
			row.MarketCap, row.CurrentPrice, row.TargetPrice, row.Rating,
			row.Strategy, row.LastUpdated, row.Page)
		if err != nil {
			return fmt.Errorf("failed to insert stock %s: %w", row.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStock(s rowScanner) (StockRow, error) {
	var row StockRow
	err := s.Scan(&row.ID, &row.Dataset, &row.Ticker, &row.Name, &row.Industry,
		&row.MarketCap, &row.CurrentPrice, &row.TargetPrice, &row.Rating,
		&row.Strategy, &row.LastUpdated, &row.Page, &row.CreatedAt, &row.UpdatedAt)
	if err == sql.ErrNoRows {
		return row, err
	}
	if err != nil {
		return row, fmt.Errorf("failed to scan stock: %w", err)
	}
	return row, nil
}
