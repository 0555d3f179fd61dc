package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"stockboard/app/stock"
)

type ConfigCache struct {
	datasetsDir string
	cache       map[string]*Config
	mu          sync.RWMutex
}

func NewConfigCache(datasetsDir string) *ConfigCache {
	return &ConfigCache{
		datasetsDir: datasetsDir,
		cache:       make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.datasetsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.datasetsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		datasetName := fileName[:len(fileName)-4] // Remove .yml extension

		config, err := cc.LoadConfig(datasetName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Dataset configuration loaded", "dataset", datasetName,
			"enabled", config.Settings.Enabled, "refresh_interval", config.Settings.RefreshInterval)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(datasetName string) (*Config, error) {
	configFile := cc.getConfigFilePath(datasetName)
	config, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	config.Name = datasetName

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config

	return config, nil
}

func (cc *ConfigCache) GetConfig(datasetName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[datasetName]
	if !ok {
		return nil, fmt.Errorf("dataset config with name '%s' not found", datasetName)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Settings.RefreshInterval == 0 {
		config.Settings.RefreshInterval = 3600
	}
	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = 30
	}
	if config.News.MaxTickers == 0 {
		config.News.MaxTickers = 10
	}
	if config.News.FetchInterval == 0 {
		config.News.FetchInterval = 1800
	}
	if config.News.FeedURL == "" {
		config.News.FeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"
	}
	if len(config.Screener.Exchanges) == 0 {
		config.Screener.Exchanges = []string{"nyse", "nasdaq", "amex"}
	}

	return &config, nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.Name == "" {
		return fmt.Errorf("dataset name is required")
	}

	if len(config.Source.Records) == 0 && config.Source.Path == "" && config.Source.URL == "" {
		return fmt.Errorf("dataset source is required: one of records, path or url")
	}

	nonNegativeFields := map[string]int{
		"refresh interval":    config.Settings.RefreshInterval,
		"timeout":             config.Settings.Timeout,
		"news max tickers":    config.News.MaxTickers,
		"news fetch interval": config.News.FetchInterval,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	for _, field := range config.RequireFields {
		if _, ok := stock.LookupColumn(field); !ok {
			return fmt.Errorf("invalid require_fields column: %s", field)
		}
	}

	if config.DefaultSort.Key != "" {
		if _, ok := stock.LookupColumn(config.DefaultSort.Key); !ok {
			return fmt.Errorf("invalid default_sort key: %s", config.DefaultSort.Key)
		}
	}
	switch config.DefaultSort.Direction {
	case "", string(stock.SortAscending), string(stock.SortDescending):
	default:
		return fmt.Errorf("invalid default_sort direction: %s", config.DefaultSort.Direction)
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(datasetName string) string {
	return filepath.Join(cc.datasetsDir, datasetName+".yml")
}
