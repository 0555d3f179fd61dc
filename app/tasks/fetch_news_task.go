package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/news"
	"stockboard/app/stock"
)

// FetchNewsTask pulls the headline feed for each of a dataset's tickers and
// upserts the items. Feeds that fail are logged and skipped so one bad
// ticker does not starve the rest.
type FetchNewsTask struct {
	Task
	Config    *dataset.Config
	fetcher   *news.Fetcher
	stockRepo database.StockRepository
	newsRepo  database.NewsRepository
	tables    *stock.Tables
}

func NewFetchNewsTask(config *dataset.Config, fetcher *news.Fetcher,
	stockRepo database.StockRepository, newsRepo database.NewsRepository,
	tables *stock.Tables) *FetchNewsTask {
	return &FetchNewsTask{
		Task:      NewTask(TaskTypeFetchNews, config.Name),
		Config:    config,
		fetcher:   fetcher,
		stockRepo: stockRepo,
		newsRepo:  newsRepo,
		tables:    tables,
	}
}

func (t *FetchNewsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	tickers, err := t.listTickers()
	if err != nil {
		return err
	}
	if max := t.Config.News.MaxTickers; max > 0 && len(tickers) > max {
		tickers = tickers[:max]
	}

	fetched := 0
	stored := 0
	for _, ticker := range tickers {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		headlines, err := t.fetcher.Run(ctx, t.Config.FeedURLFor(ticker))
		if err != nil {
			slog.Warn("Failed to fetch ticker feed", "dataset", t.DatasetName, "ticker", ticker, "error", err)
			continue
		}
		fetched++

		for _, headline := range headlines {
			item := database.NewsItem{
				Dataset:     t.DatasetName,
				Ticker:      ticker,
				GUID:        headline.GUID,
				Title:       headline.Title,
				Link:        headline.Link,
				Description: headline.Description,
				PublishedAt: headline.PublishedAt,
			}
			if err := t.newsRepo.UpsertItem(item); err != nil {
				return fmt.Errorf("failed to upsert news item: %w", err)
			}
			stored++
		}
	}

	slog.Info("Task completed",
		"type", "FetchNews",
		"dataset", t.DatasetName,
		"duration", t.GetDuration(),
		"tickers", fetched,
		"items", stored)

	return nil
}

// listTickers prefers the store, falling back to the in-memory table for
// datasets that load straight from a configured source.
func (t *FetchNewsTask) listTickers() ([]string, error) {
	tickers, err := t.stockRepo.ListTickers(t.DatasetName)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	if len(tickers) > 0 {
		return tickers, nil
	}

	for _, record := range t.tables.Get(t.DatasetName).Snapshot() {
		if record.Ticker != "" {
			tickers = append(tickers, record.Ticker)
		}
	}

	return tickers, nil
}
