package database

import (
	"database/sql"
	"fmt"
)

var _ NewsRepository = (*newsRepository)(nil)

type newsRepository struct {
	db *DB
}

func NewNewsRepository(db *DB) NewsRepository {
	return &newsRepository{db: db}
}

const newsColumns = `id, dataset, ticker, guid, title, link, description,
	content, published_at, extraction_status, extracted_at, created_at`

func (r *newsRepository) GetItems(dataset, ticker string, limit int) ([]NewsItem, error) {
	rows, err := r.db.Query(`
		SELECT `+newsColumns+`
		FROM news_items
		WHERE dataset = ? AND ticker = ?
		ORDER BY published_at DESC, id DESC
		LIMIT ?
	`, dataset, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get news items: %w", err)
	}
	defer rows.Close()

	return scanNewsItems(rows)
}

func (r *newsRepository) GetItemCount(dataset string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM news_items WHERE dataset = ?`, dataset).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count news items: %w", err)
	}
	return count, nil
}

func (r *newsRepository) GetItemsForExtraction(dataset string, limit int) ([]NewsItem, error) {
	rows, err := r.db.Query(`
		SELECT `+newsColumns+`
		FROM news_items
		WHERE dataset = ? AND extraction_status = ?
		ORDER BY id
		LIMIT ?
	`, dataset, ExtractionPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for extraction: %w", err)
	}
	defer rows.Close()

	return scanNewsItems(rows)
}

func (r *newsRepository) UpsertItem(item NewsItem) error {
	_, err := r.db.Exec(`
		INSERT INTO news_items (dataset, ticker, guid, title, link, description, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (dataset, ticker, guid) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			description = excluded.description,
			published_at = excluded.published_at
	`, item.Dataset, item.Ticker, item.GUID, item.Title, item.Link,
		item.Description, item.PublishedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert news item: %w", err)
	}

	return nil
}

func (r *newsRepository) UpdateExtractedContent(itemID int64, content string, status string) error {
	_, err := r.db.Exec(`
		UPDATE news_items
		SET content = ?, extraction_status = ?, extracted_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, content, status, itemID)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func scanNewsItems(rows *sql.Rows) ([]NewsItem, error) {
	var items []NewsItem
	for rows.Next() {
		var item NewsItem
		err := rows.Scan(&item.ID, &item.Dataset, &item.Ticker, &item.GUID,
			&item.Title, &item.Link, &item.Description, &item.Content,
			&item.PublishedAt, &item.ExtractionStatus, &item.ExtractedAt,
			&item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
