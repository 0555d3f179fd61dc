package dataset

import "fmt"

// Config describes one dataset: where its raw records come from, how often
// the table is reloaded, which fields are mandatory for visibility, and how
// the table sorts before the user picks a column.
type Config struct {
	Name          string       // Derived from filename (without .yml extension)
	Title         string       `yaml:"title"`
	Source        ConfigSource `yaml:"source"`
	Settings      ConfigSettings `yaml:"settings"`
	RequireFields []string     `yaml:"require_fields"`
	DefaultSort   ConfigSort   `yaml:"default_sort"`
	News          ConfigNews   `yaml:"news"`
	Screener      ConfigScreener `yaml:"screener"`
}

// ConfigSource resolves in priority order: inline records, local file, URL.
type ConfigSource struct {
	Records []map[string]any `yaml:"records"`
	Path    string           `yaml:"path"`
	URL     string           `yaml:"url"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	Timeout         int  `yaml:"timeout"`          // seconds
}

type ConfigSort struct {
	Key       string `yaml:"key"`
	Direction string `yaml:"direction"` // asc | desc; empty = column default
}

type ConfigNews struct {
	Enabled        bool   `yaml:"enabled"`
	FeedURL        string `yaml:"feed_url"` // %s replaced by the ticker
	MaxTickers     int    `yaml:"max_tickers"`
	FetchInterval  int    `yaml:"fetch_interval"` // seconds
	ExtractContent bool   `yaml:"extract_content"`
}

// ConfigScreener enables background universe refreshes from the stock
// screener for this dataset.
type ConfigScreener struct {
	Enabled   bool     `yaml:"enabled"`
	Exchanges []string `yaml:"exchanges"`
}

// FeedURLFor returns the news feed URL with the ticker substituted in.
func (c *Config) FeedURLFor(ticker string) string {
	return fmt.Sprintf(c.News.FeedURL, ticker)
}
