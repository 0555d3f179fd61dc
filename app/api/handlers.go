package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/loader"
	"stockboard/app/stock"
	"stockboard/app/tasks"
	"stockboard/app/updater"
)

func NewHandler(tables *stock.Tables, configCache *dataset.ConfigCache,
	stockRepo database.StockRepository, newsRepo database.NewsRepository,
	ldr *loader.Loader, upd *updater.Updater, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		tables:      tables,
		configCache: configCache,
		stockRepo:   stockRepo,
		newsRepo:    newsRepo,
		loader:      ldr,
		updater:     upd,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetIndex(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	datasets := make([]gin.H, 0, len(configs))
	for _, config := range configs {
		datasets = append(datasets, gin.H{
			"name":    config.Name,
			"title":   config.Title,
			"enabled": config.Settings.Enabled,
			"table":   "/stocks/" + config.Name,
			"api":     "/api/stocks/" + config.Name,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"service":     "Stockboard",
		"description": "Filterable, sortable stock tables with screener refresh and per-ticker news",
		"datasets":    datasets,
		"endpoints": gin.H{
			"table":  "/stocks/<dataset>",
			"api":    "/api/stocks/<dataset>",
			"news":   "/api/stocks/<dataset>/tickers/<ticker>/news",
			"health": "/health",
			"stats":  "/stats",
		},
	})
}

// ListDatasets reports every configured dataset with storage and table
// counters, the detailed counterpart of GetIndex.
func (h *Handler) ListDatasets(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	datasets := make([]gin.H, 0, len(configs))
	for name, config := range configs {
		table := h.tables.Get(name)

		info := gin.H{
			"name":             name,
			"title":            config.Title,
			"enabled":          config.Settings.Enabled,
			"records":          table.Len(),
			"refresh_interval": (time.Duration(config.Settings.RefreshInterval) * time.Second).String(),
			"news_enabled":     config.News.Enabled,
			"screener_enabled": config.Screener.Enabled,
			"require_fields":   config.RequireFields,
		}
		if loadErr := table.Err(); loadErr != "" {
			info["error"] = loadErr
		}
		if stored, err := h.stockRepo.GetStockCount(name); err == nil {
			info["stored_stocks"] = stored
		}

		datasets = append(datasets, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"datasets": datasets,
		"total":    len(datasets),
	})
}

// rowView is one rendered table row for the HTML template.
type rowView struct {
	Page  string
	Cells []string
}

func (h *Handler) GetStocksPage(c *gin.Context) {
	name := c.Param("dataset")

	config, err := h.configCache.GetConfig(name)
	if err != nil || !config.Settings.Enabled {
		c.Status(http.StatusNotFound)
		return
	}

	table := h.tables.Get(name)
	opts := h.viewFromQuery(c, config)
	records := stock.ApplyView(table.Snapshot(), opts)

	rows := make([]rowView, 0, len(records))
	for _, r := range records {
		cells := make([]string, 0, len(stock.Columns))
		for _, col := range stock.Columns {
			cells = append(cells, r.Display(col.Name))
		}
		rows = append(rows, rowView{Page: r.Page, Cells: cells})
	}

	title := config.Title
	if title == "" {
		title = config.Name
	}

	c.HTML(http.StatusOK, "stocks.html", gin.H{
		"Title":   title,
		"Dataset": name,
		"Columns": stock.Columns,
		"Rows":    rows,
		"Error":   table.Err(),
		"Query":   c.Query("q"),
		"SortKey": opts.SortKey,
		"SortDir": string(opts.SortDir),
		"Count":   len(rows),
		"Total":   table.Len(),
	})
}

func (h *Handler) GetStocks(c *gin.Context) {
	name := c.Param("dataset")

	config, err := h.configCache.GetConfig(name)
	if err != nil || !config.Settings.Enabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return
	}

	table := h.tables.Get(name)
	opts := h.viewFromQuery(c, config)
	records := stock.ApplyView(table.Snapshot(), opts)

	columns := make([]gin.H, 0, len(stock.Columns))
	for _, col := range stock.Columns {
		columns = append(columns, gin.H{
			"name":  col.Name,
			"title": col.Title,
			"kind":  col.Kind.String(),
		})
	}

	out := make([]gin.H, 0, len(records))
	for _, r := range records {
		record := gin.H{"page": r.Page}
		for _, col := range stock.Columns {
			record[col.Name] = r.Display(col.Name)
		}
		out = append(out, record)
	}

	c.JSON(http.StatusOK, gin.H{
		"dataset": name,
		"title":   config.Title,
		"count":   len(out),
		"total":   table.Len(),
		"error":   table.Err(),
		"sort": gin.H{
			"key":       opts.SortKey,
			"direction": string(opts.SortDir),
		},
		"columns": columns,
		"records": out,
	})
}

// viewFromQuery builds the filter/sort pass from the request: q for global
// search, sort/dir for ordering, f_<column> for per-column filters. Unknown
// columns are ignored. The dataset's default sort applies when the request
// does not pick one.
func (h *Handler) viewFromQuery(c *gin.Context, config *dataset.Config) stock.ViewOptions {
	sortKey := c.Query("sort")
	if _, ok := stock.LookupColumn(sortKey); !ok {
		sortKey = config.DefaultSort.Key
	}
	if _, ok := stock.LookupColumn(sortKey); !ok {
		sortKey = "name"
	}

	dir := stock.SortDirection(c.Query("dir"))
	if dir != stock.SortAscending && dir != stock.SortDescending {
		if sortKey == config.DefaultSort.Key && config.DefaultSort.Direction != "" {
			dir = stock.SortDirection(config.DefaultSort.Direction)
		} else {
			dir = stock.DefaultDirection(sortKey)
		}
	}

	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if !strings.HasPrefix(key, "f_") || len(values) == 0 {
			continue
		}
		column := strings.TrimPrefix(key, "f_")
		if _, ok := stock.LookupColumn(column); ok {
			filters[column] = values[0]
		}
	}

	return stock.ViewOptions{
		Filters:       filters,
		GlobalQuery:   c.Query("q"),
		SortKey:       sortKey,
		SortDir:       dir,
		RequireFields: config.RequireFields,
	}
}

func (h *Handler) GetTickerNews(c *gin.Context) {
	name := c.Param("dataset")
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))

	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	items, err := h.newsRepo.GetItems(name, ticker, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_news", "dataset", name, "ticker", ticker, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		entry := gin.H{
			"title":        item.Title,
			"link":         item.Link,
			"description":  item.Description,
			"published_at": item.PublishedAt,
		}
		if item.ExtractionStatus == database.ExtractionDone {
			entry["content"] = item.Content
		}
		out = append(out, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"dataset": name,
		"ticker":  ticker,
		"count":   len(out),
		"items":   out,
	})
}

// ReloadDataset re-reads the dataset configuration from disk and enqueues a
// load so the table picks up source changes without a restart.
func (h *Handler) ReloadDataset(c *gin.Context) {
	name := c.Param("dataset")

	config, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "dataset", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Failed to reload configuration", "details": err.Error()})
		return
	}

	task := tasks.NewLoadDatasetTask(config, h.loader, h.stockRepo, h.tables)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing load task", "dataset", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue load task", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and load task enqueued",
		"task":    gin.H{"id": task.ID, "type": task.Type},
	})
}

// RefreshDataset enqueues a screener universe refresh for the dataset.
func (h *Handler) RefreshDataset(c *gin.Context) {
	name := c.Param("dataset")

	config, err := h.configCache.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return
	}
	if !config.Screener.Enabled {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Screener is not enabled for this dataset"})
		return
	}

	task := tasks.NewUpdateUniverseTask(config, h.updater, h.stockRepo, h.tables)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing refresh task", "dataset", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue refresh task", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Universe refresh enqueued",
		"task":    gin.H{"id": task.ID, "type": task.Type},
	})
}

type upsertTickerRequest struct {
	TargetPrice *string `json:"target_price"`
	Strategy    *string `json:"strategy"`
	Rating      *string `json:"rating"`
}

// UpsertTicker adds or refreshes one ticker from the screener. Optional body
// fields override the stored curated values; last_updated stays untouched.
func (h *Handler) UpsertTicker(c *gin.Context) {
	name := c.Param("dataset")
	ticker := c.Param("ticker")

	config, err := h.configCache.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return
	}

	var req upsertTickerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	opts := updater.UpsertOptions{
		TargetPrice: req.TargetPrice,
		Strategy:    req.Strategy,
		Rating:      req.Rating,
		Exchanges:   config.Screener.Exchanges,
	}
	if err := h.updater.UpsertTicker(c.Request.Context(), name, ticker, opts); err != nil {
		slog.Error("Failed to upsert ticker", "dataset", name, "ticker", ticker, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upsert ticker", "details": err.Error()})
		return
	}

	h.enqueueReload(name)

	c.JSON(http.StatusOK, gin.H{"success": true, "ticker": strings.ToUpper(strings.TrimSpace(ticker))})
}

type setFieldRequest struct {
	Value string `json:"value"`
}

func (h *Handler) SetTargetPrice(c *gin.Context) {
	h.setField(c, h.updater.SetTargetPrice)
}

func (h *Handler) SetStrategy(c *gin.Context) {
	h.setField(c, h.updater.SetStrategy)
}

func (h *Handler) SetRating(c *gin.Context) {
	h.setField(c, h.updater.SetRating)
}

func (h *Handler) SetIndustry(c *gin.Context) {
	h.setField(c, h.updater.SetIndustry)
}

func (h *Handler) SetLastUpdated(c *gin.Context) {
	h.setField(c, h.updater.SetLastUpdated)
}

func (h *Handler) setField(c *gin.Context, apply func(dataset, ticker, value string) error) {
	name := c.Param("dataset")
	ticker := c.Param("ticker")

	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return
	}

	var req setFieldRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	if err := apply(name, ticker, req.Value); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to update field", "details": err.Error()})
		return
	}

	h.enqueueReload(name)

	c.JSON(http.StatusOK, gin.H{"success": true, "ticker": strings.ToUpper(strings.TrimSpace(ticker))})
}

// enqueueReload refreshes the in-memory table after a store mutation. Best
// effort: the next scheduled load catches up if the queue is full.
func (h *Handler) enqueueReload(name string) {
	config, err := h.configCache.GetConfig(name)
	if err != nil {
		return
	}

	task := tasks.NewLoadDatasetTask(config, h.loader, h.stockRepo, h.tables)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue reload after mutation", "dataset", name, "error", err)
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	datasets := 0
	records := 0
	for name := range h.configCache.GetConfigs() {
		datasets++
		records += h.tables.Get(name).Len()
	}
	health["datasets"] = datasets
	health["records"] = records

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	datasets := make([]gin.H, 0, len(configs))
	for name, config := range configs {
		table := h.tables.Get(name)

		info := gin.H{
			"name":             name,
			"enabled":          config.Settings.Enabled,
			"records":          table.Len(),
			"refresh_interval": (time.Duration(config.Settings.RefreshInterval) * time.Second).String(),
		}
		if loadErr := table.Err(); loadErr != "" {
			info["error"] = loadErr
		}

		if stored, err := h.stockRepo.GetStockCount(name); err == nil {
			info["stored_stocks"] = stored
		}
		if config.News.Enabled {
			if newsCount, err := h.newsRepo.GetItemCount(name); err == nil {
				info["news_items"] = newsCount
			}
		}

		datasets = append(datasets, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"datasets": datasets,
		"total":    len(datasets),
	})
}
