package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/loader"
	"stockboard/app/stock"
	"stockboard/app/tasks"
	"stockboard/app/updater"
)

type fakeScheduler struct {
	enqueued []tasks.TaskInterface
}

func (s *fakeScheduler) Start() {}
func (s *fakeScheduler) Stop()  {}
func (s *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error {
	s.enqueued = append(s.enqueued, task)
	return nil
}

const testConfigYML = `title: "Watchlist"
source:
  records:
    - name: "Apple Inc."
      ticker: "AAPL"
      industry: "Consumer Electronics"
      market_cap: "3.2T"
      current_price: "189.84"
      page: "stocks/AAPL.html"
    - name: "Microsoft"
      ticker: "MSFT"
      industry: "Software"
      market_cap: "3.1T"
settings:
  enabled: true
default_sort:
  key: market_cap
screener:
  enabled: true
`

type testEnv struct {
	router    *gin.Engine
	tables    *stock.Tables
	newsRepo  database.NewsRepository
	scheduler *fakeScheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	datasetsDir := t.TempDir()
	err := os.WriteFile(filepath.Join(datasetsDir, "watchlist.yml"), []byte(testConfigYML), 0o644)
	if err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	configCache := dataset.NewConfigCache(datasetsDir)
	if err := configCache.Run(); err != nil {
		t.Fatalf("ConfigCache.Run() error: %v", err)
	}

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewConnection() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error: %v", err)
	}

	stockRepo := database.NewStockRepository(db)
	newsRepo := database.NewNewsRepository(db)

	tables := stock.NewTables()
	tables.Get("watchlist").Replace(stock.Normalize([]stock.RawRecord{
		{"name": "Apple Inc.", "ticker": "AAPL", "industry": "Consumer Electronics", "market_cap": "3.2T", "current_price": "189.84", "page": "stocks/AAPL.html"},
		{"name": "Microsoft", "ticker": "MSFT", "industry": "Software", "market_cap": "3.1T"},
		{"name": "Tiny Corp", "ticker": "TINY", "industry": "Software", "market_cap": "500M"},
	}))

	ldr := loader.NewLoader(http.DefaultClient, "test-agent")
	upd := updater.New(stockRepo, nil, t.TempDir())
	scheduler := &fakeScheduler{}

	handler := NewHandler(tables, configCache, stockRepo, newsRepo, ldr, upd, scheduler)
	router := NewServer(handler, "secret-key")

	return &testEnv{
		router:    router,
		tables:    tables,
		newsRepo:  newsRepo,
		scheduler: scheduler,
	}
}

func doRequest(t *testing.T, router *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSONBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return body
}

func TestGetStocksDefaultSort(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/api/stocks/watchlist", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeJSONBody(t, w)
	if body["count"].(float64) != 3 {
		t.Errorf("count = %v, want 3", body["count"])
	}

	// Dataset default sort is market_cap, which defaults to descending.
	records := body["records"].([]any)
	first := records[0].(map[string]any)
	if first["ticker"] != "AAPL" {
		t.Errorf("first record = %v, want AAPL (largest market cap)", first["ticker"])
	}

	sortInfo := body["sort"].(map[string]any)
	if sortInfo["key"] != "market_cap" || sortInfo["direction"] != "desc" {
		t.Errorf("sort = %v, want market_cap desc", sortInfo)
	}
}

func TestGetStocksColumnFilter(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/api/stocks/watchlist?f_market_cap=%3E1T", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeJSONBody(t, w)
	if body["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2 records above 1T", body["count"])
	}
	if body["total"].(float64) != 3 {
		t.Errorf("total = %v, want unfiltered 3", body["total"])
	}
}

func TestGetStocksGlobalSearch(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/api/stocks/watchlist?q=software&sort=name&dir=asc", nil)
	body := decodeJSONBody(t, w)

	records := body["records"].([]any)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 matching industry Software", len(records))
	}
	if records[0].(map[string]any)["ticker"] != "MSFT" {
		t.Errorf("first = %v, want MSFT with name asc", records[0])
	}
}

func TestGetStocksUnknownDataset(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/api/stocks/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetStocksPageHTML(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/stocks/watchlist", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	html := w.Body.String()
	if !strings.Contains(html, "AAPL") {
		t.Errorf("page missing ticker AAPL")
	}
	if !strings.Contains(html, "Watchlist") {
		t.Errorf("page missing dataset title")
	}
	if !strings.Contains(html, "stocks/AAPL.html") {
		t.Errorf("page missing ticker page link")
	}
}

func TestGetStocksPageShowsLoadError(t *testing.T) {
	env := newTestEnv(t)
	env.tables.Get("watchlist").SetError("failed to load data/watchlist.json: no such file")

	w := doRequest(t, env.router, "GET", "/stocks/watchlist", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Failed to load dataset") {
		t.Errorf("page missing load error banner")
	}
}

func TestRefreshDatasetRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "POST", "/api/stocks/watchlist/refresh", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without API key", w.Code)
	}

	w = doRequest(t, env.router, "POST", "/api/stocks/watchlist/refresh", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 with wrong API key", w.Code)
	}
}

func TestRefreshDatasetEnqueuesTask(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "POST", "/api/stocks/watchlist/refresh", map[string]string{"X-API-Key": "secret-key"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	if len(env.scheduler.enqueued) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(env.scheduler.enqueued))
	}
	if env.scheduler.enqueued[0].GetType() != tasks.TaskTypeUpdateUniverse {
		t.Errorf("task type = %s, want %s", env.scheduler.enqueued[0].GetType(), tasks.TaskTypeUpdateUniverse)
	}
}

func TestRefreshDatasetBearerAuth(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "POST", "/api/stocks/watchlist/refresh", map[string]string{"Authorization": "Bearer secret-key"})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with Bearer token", w.Code)
	}
}

func TestGetTickerNews(t *testing.T) {
	env := newTestEnv(t)

	err := env.newsRepo.UpsertItem(database.NewsItem{
		Dataset: "watchlist", Ticker: "AAPL", GUID: "g1",
		Title: "Apple headline", Link: "https://example.com/a",
	})
	if err != nil {
		t.Fatalf("UpsertItem() error: %v", err)
	}

	w := doRequest(t, env.router, "GET", "/api/stocks/watchlist/tickers/aapl/news", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeJSONBody(t, w)
	if body["ticker"] != "AAPL" {
		t.Errorf("ticker = %v, want uppercased AAPL", body["ticker"])
	}
	items := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	item := items[0].(map[string]any)
	if item["title"] != "Apple headline" {
		t.Errorf("title = %v", item["title"])
	}
	if _, hasContent := item["content"]; hasContent {
		t.Error("content should be omitted while extraction is pending")
	}
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeJSONBody(t, w)
	if body["loaded_configurations"].(float64) != 1 {
		t.Errorf("loaded_configurations = %v, want 1", body["loaded_configurations"])
	}
}

func TestGetIndexListsDatasets(t *testing.T) {
	env := newTestEnv(t)

	w := doRequest(t, env.router, "GET", "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeJSONBody(t, w)
	datasets := body["datasets"].([]any)
	if len(datasets) != 1 {
		t.Fatalf("datasets = %d, want 1", len(datasets))
	}
	if datasets[0].(map[string]any)["name"] != "watchlist" {
		t.Errorf("dataset name = %v", datasets[0])
	}
}
