package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/news"
)

// Number of pending items processed per run. Keeps a single task bounded;
// the scheduler enqueues the task again on the next news interval.
const extractBatchSize = 10

// ExtractContentTask downloads linked article pages for pending news items
// and stores the readable content. Extraction failures are recorded on the
// item rather than retried by the scheduler.
type ExtractContentTask struct {
	Task
	Config    *dataset.Config
	fetcher   *news.Fetcher
	extractor *news.ContentExtractor
	newsRepo  database.NewsRepository
}

func NewExtractContentTask(config *dataset.Config, fetcher *news.Fetcher,
	extractor *news.ContentExtractor, newsRepo database.NewsRepository) *ExtractContentTask {
	return &ExtractContentTask{
		Task:      NewTask(TaskTypeExtractContent, config.Name),
		Config:    config,
		fetcher:   fetcher,
		extractor: extractor,
		newsRepo:  newsRepo,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := t.newsRepo.GetItemsForExtraction(t.DatasetName, extractBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get items for extraction: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	extracted := 0
	failed := 0
	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		status, content := t.extractItem(ctx, item)
		if err := t.newsRepo.UpdateExtractedContent(item.ID, content, status); err != nil {
			return fmt.Errorf("failed to store extracted content: %w", err)
		}

		switch status {
		case database.ExtractionDone:
			extracted++
		case database.ExtractionFailed:
			failed++
		}
	}

	slog.Info("Task completed",
		"type", "ExtractContent",
		"dataset", t.DatasetName,
		"duration", t.GetDuration(),
		"extracted", extracted,
		"failed", failed)

	return nil
}

func (t *ExtractContentTask) extractItem(ctx context.Context, item database.NewsItem) (string, string) {
	if item.Link == "" {
		return database.ExtractionSkipped, ""
	}

	data, err := t.fetcher.FetchPage(ctx, item.Link)
	if err != nil {
		slog.Debug("Failed to fetch article page", "dataset", t.DatasetName, "ticker", item.Ticker, "link", item.Link, "error", err)
		return database.ExtractionFailed, ""
	}

	content, err := t.extractor.Run(data)
	if err != nil {
		slog.Debug("Failed to extract article content", "dataset", t.DatasetName, "ticker", item.Ticker, "link", item.Link, "error", err)
		return database.ExtractionFailed, ""
	}

	return database.ExtractionDone, content
}
