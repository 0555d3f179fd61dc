// Package loader resolves a dataset's raw records from its configured
// sources: inline records in the dataset config, a local file, or an HTTP
// fetch. JSON payloads are decoded strictly; files with a recognized lenient
// extension are cleaned of comments, trailing commas and single-quoted
// strings first, and CSV files are mapped through their header row.
package loader

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"stockboard/app/dataset"
	"stockboard/app/stock"
)

// LoadError wraps any failure between source resolution and decoded records.
// It is caught once at the loader boundary; callers render a visible error
// state instead of crashing.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type Loader struct {
	httpClient *http.Client
	userAgent  string
}

func NewLoader(httpClient *http.Client, userAgent string) *Loader {
	return &Loader{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Run resolves the first available source in priority order: inline records,
// local file, remote URL.
func (l *Loader) Run(ctx context.Context, config *dataset.Config) ([]stock.RawRecord, error) {
	if len(config.Source.Records) > 0 {
		records := make([]stock.RawRecord, 0, len(config.Source.Records))
		for _, r := range config.Source.Records {
			records = append(records, stock.RawRecord(r))
		}
		return records, nil
	}

	if config.Source.Path != "" {
		data, err := os.ReadFile(config.Source.Path)
		if err != nil {
			return nil, &LoadError{Source: config.Source.Path, Err: err}
		}
		records, err := decode(data, config.Source.Path)
		if err != nil {
			return nil, &LoadError{Source: config.Source.Path, Err: err}
		}
		return records, nil
	}

	if config.Source.URL != "" {
		data, err := l.fetch(ctx, config.Source.URL, config.Settings.Timeout)
		if err != nil {
			return nil, &LoadError{Source: config.Source.URL, Err: err}
		}
		records, err := decode(data, config.Source.URL)
		if err != nil {
			return nil, &LoadError{Source: config.Source.URL, Err: err}
		}
		return records, nil
	}

	return nil, &LoadError{Source: config.Name, Err: fmt.Errorf("no source configured")}
}

func (l *Loader) fetch(ctx context.Context, url string, timeout int) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func decode(data []byte, source string) ([]stock.RawRecord, error) {
	switch strings.ToLower(path.Ext(strings.SplitN(source, "?", 2)[0])) {
	case ".csv":
		return decodeCSV(data)
	case ".jsqon", ".jsonc":
		return decodeJSON(StripLenient(data))
	default:
		return decodeJSON(data)
	}
}

func decodeJSON(data []byte) ([]stock.RawRecord, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	seq, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("payload must be a top-level array")
	}

	records := make([]stock.RawRecord, 0, len(seq))
	for _, element := range seq {
		obj, ok := element.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, stock.RawRecord(obj))
	}

	return records, nil
}

// decodeCSV maps rows through the header row, lowercasing header names so
// they line up with the normalizer's alias keys.
func decodeCSV(data []byte) ([]stock.RawRecord, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("payload must have a CSV header row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	records := make([]stock.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(stock.RawRecord, len(header))
		for i, value := range row {
			if i < len(header) {
				record[header[i]] = value
			}
		}
		records = append(records, record)
	}

	return records, nil
}
