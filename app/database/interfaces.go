package database

// StockRepository handles stored stock records per dataset.
type StockRepository interface {
	ListStocks(dataset string) ([]StockRow, error)
	GetStock(dataset, ticker string) (*StockRow, error)
	GetStockCount(dataset string) (int, error)
	ListTickers(dataset string) ([]string, error)

	UpsertStock(row StockRow) error
	ReplaceDataset(dataset string, rows []StockRow) error
}

// NewsRepository handles stored headlines per ticker.
type NewsRepository interface {
	GetItems(dataset, ticker string, limit int) ([]NewsItem, error)
	GetItemCount(dataset string) (int, error)
	GetItemsForExtraction(dataset string, limit int) ([]NewsItem, error)

	UpsertItem(item NewsItem) error
	UpdateExtractedContent(itemID int64, content string, status string) error
}
