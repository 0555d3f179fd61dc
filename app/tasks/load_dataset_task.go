package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/loader"
	"stockboard/app/stock"
)

// LoadDatasetTask loads a dataset's raw records, normalizes them, and
// installs them in the in-memory table. Stored screener rows take priority
// over the configured source, so manual edits survive restarts.
type LoadDatasetTask struct {
	Task
	Config    *dataset.Config
	loader    *loader.Loader
	stockRepo database.StockRepository
	tables    *stock.Tables
}

func NewLoadDatasetTask(config *dataset.Config, ldr *loader.Loader,
	stockRepo database.StockRepository, tables *stock.Tables) *LoadDatasetTask {
	return &LoadDatasetTask{
		Task:      NewTask(TaskTypeLoadDataset, config.Name),
		Config:    config,
		loader:    ldr,
		stockRepo: stockRepo,
		tables:    tables,
	}
}

func (t *LoadDatasetTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	table := t.tables.Get(t.DatasetName)

	raws, source, err := t.loadRaw(ctx)
	if err != nil {
		var loadErr *loader.LoadError
		if errors.As(err, &loadErr) {
			table.SetError(loadErr.Error())
		}
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	records := stock.Normalize(raws)
	table.Replace(records)

	slog.Info("Task completed",
		"type", "LoadDataset",
		"dataset", t.DatasetName,
		"duration", t.GetDuration(),
		"source", source,
		"records", len(records))

	return nil
}

func (t *LoadDatasetTask) loadRaw(ctx context.Context) ([]stock.RawRecord, string, error) {
	rows, err := t.stockRepo.ListStocks(t.DatasetName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read stored stocks: %w", err)
	}

	if len(rows) > 0 {
		raws := make([]stock.RawRecord, 0, len(rows))
		for _, row := range rows {
			raws = append(raws, row.RawRecord())
		}
		return raws, "store", nil
	}

	raws, err := t.loader.Run(ctx, t.Config)
	if err != nil {
		return nil, "", err
	}

	return raws, "config", nil
}
