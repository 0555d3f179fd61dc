// Package screener fetches the listed-stock universe from the Nasdaq
// screener API and normalizes its rows into display-ready quote fields.
package screener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"stockboard/app/stock"
)

const defaultBaseURL = "https://api.nasdaq.com/api/screener/stocks"

// DefaultExchanges covers the three US exchanges the screener knows.
var DefaultExchanges = []string{"nasdaq", "nyse", "amex"}

var priceRe = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// Quote is one normalized screener row. All fields are display strings,
// matching the dataset record format.
type Quote struct {
	Ticker       string
	Name         string
	Industry     string
	MarketCap    string
	CurrentPrice string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
	}
}

// SetBaseURL overrides the screener endpoint, used in tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

type screenerResponse struct {
	Data struct {
		Rows []screenerRow `json:"rows"`
	} `json:"data"`
}

type screenerRow struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	LastSale  string `json:"lastsale"`
	MarketCap string `json:"marketCap"`
	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
}

// FetchUniverse downloads every row from the given exchanges and returns
// quotes keyed by ticker. Later exchanges win on duplicate symbols.
func (c *Client) FetchUniverse(ctx context.Context, exchanges []string) (map[string]Quote, error) {
	if len(exchanges) == 0 {
		exchanges = DefaultExchanges
	}

	universe := make(map[string]Quote)
	for _, exchange := range exchanges {
		rows, err := c.fetchExchange(ctx, exchange)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch exchange %s: %w", exchange, err)
		}

		for _, row := range rows {
			quote, ok := normalizeRow(row)
			if !ok {
				continue
			}
			universe[quote.Ticker] = quote
		}
	}

	return universe, nil
}

// FetchTicker looks up one ticker across the given exchanges. Returns nil
// when the screener does not list it.
func (c *Client) FetchTicker(ctx context.Context, ticker string, exchanges []string) (*Quote, error) {
	if len(exchanges) == 0 {
		exchanges = DefaultExchanges
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	for _, exchange := range exchanges {
		rows, err := c.fetchExchange(ctx, exchange)
		if err != nil {
			continue
		}

		for _, row := range rows {
			if strings.ToUpper(strings.TrimSpace(row.Symbol)) != ticker {
				continue
			}
			quote, ok := normalizeRow(row)
			if !ok {
				continue
			}
			return &quote, nil
		}
	}

	return nil, nil
}

func (c *Client) fetchExchange(ctx context.Context, exchange string) ([]screenerRow, error) {
	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse screener url: %w", err)
	}

	query := reqURL.Query()
	query.Set("download", "true")
	query.Set("exchange", exchange)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// The screener rejects requests without a browser-shaped header set.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", "https://www.nasdaq.com")
	req.Header.Set("Referer", "https://www.nasdaq.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch screener: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("screener returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload screenerResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return payload.Data.Rows, nil
}

func normalizeRow(row screenerRow) (Quote, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(row.Symbol))
	if ticker == "" {
		return Quote{}, false
	}

	industry := strings.TrimSpace(row.Industry)
	if industry == "" {
		industry = strings.TrimSpace(row.Sector)
	}

	return Quote{
		Ticker:       ticker,
		Name:         strings.TrimSpace(row.Name),
		Industry:     industry,
		MarketCap:    prettyMarketCap(row.MarketCap),
		CurrentPrice: parsePrice(row.LastSale),
	}, true
}

// prettyMarketCap turns the screener's plain number ("3200000000000") into
// the scaled form datasets use ("3.2T"). Unparseable input becomes "".
func prettyMarketCap(raw string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return ""
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return ""
	}

	return stock.FormatScaledNumber(v)
}

// parsePrice extracts the first numeric token from a last-sale string such
// as "$189.84" or "189.84 USD".
func parsePrice(raw string) string {
	m := priceRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1]
}
