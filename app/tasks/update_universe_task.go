package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/stock"
	"stockboard/app/updater"
)

// UpdateUniverseTask refreshes a dataset from the stock screener, exports
// the merged records as the dataset JSON file, and reloads the in-memory
// table from the store.
type UpdateUniverseTask struct {
	Task
	Config    *dataset.Config
	updater   *updater.Updater
	stockRepo database.StockRepository
	tables    *stock.Tables
}

func NewUpdateUniverseTask(config *dataset.Config, upd *updater.Updater,
	stockRepo database.StockRepository, tables *stock.Tables) *UpdateUniverseTask {
	return &UpdateUniverseTask{
		Task:      NewTask(TaskTypeUpdateUniverse, config.Name),
		Config:    config,
		updater:   upd,
		stockRepo: stockRepo,
		tables:    tables,
	}
}

func (t *UpdateUniverseTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Config.Screener.Enabled {
		slog.Debug("Screener disabled for dataset, skipping", "dataset", t.DatasetName)
		return nil
	}

	count, err := t.updater.RefreshAll(ctx, t.DatasetName, t.Config.Screener.Exchanges)
	if err != nil {
		return fmt.Errorf("failed to refresh universe: %w", err)
	}

	rows, err := t.stockRepo.ListStocks(t.DatasetName)
	if err != nil {
		return fmt.Errorf("failed to reload stocks: %w", err)
	}

	raws := make([]stock.RawRecord, 0, len(rows))
	for _, row := range rows {
		raws = append(raws, row.RawRecord())
	}
	t.tables.Get(t.DatasetName).Replace(stock.Normalize(raws))

	slog.Info("Task completed",
		"type", "UpdateUniverse",
		"dataset", t.DatasetName,
		"duration", t.GetDuration(),
		"records", count)

	return nil
}
