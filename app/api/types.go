package api

import (
	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/loader"
	"stockboard/app/stock"
	"stockboard/app/tasks"
	"stockboard/app/updater"
)

type Handler struct {
	tables      *stock.Tables
	configCache *dataset.ConfigCache
	stockRepo   database.StockRepository
	newsRepo    database.NewsRepository
	loader      *loader.Loader
	updater     *updater.Updater
	scheduler   tasks.TaskSchedulerInterface
}
