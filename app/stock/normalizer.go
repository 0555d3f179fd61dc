package stock

import (
	"strconv"
	"strings"
)

// Alias lists per canonical field, in resolution order. The first alias
// present with a non-empty value wins.
var fieldAliases = map[string][]string{
	"name":          {"name", "company", "company_name"},
	"ticker":        {"ticker", "symbol"},
	"industry":      {"industry", "sector"},
	"market_cap":    {"market_cap", "marketcap", "market capitalization", "mktcap"},
	"last_updated":  {"last_updated", "updated_at", "as_of", "date"},
	"current_price": {"current_price", "price", "last_price", "close"},
	"target_price":  {"target_price", "pt", "price_target"},
	"rating":        {"rating"},
	"strategy":      {"strategy"},
	"page":          {"page"},
}

// Normalize maps arbitrary-shaped raw records into canonical Records. It is
// total: missing or malformed fields produce empty raw text and the NaN
// sentinel, never an error. A fresh slice is returned on every run; the raw
// records are not mutated.
func Normalize(raws []RawRecord) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, normalizeRecord(raw))
	}
	return records
}

func normalizeRecord(raw RawRecord) Record {
	r := Record{
		Name:            resolveAlias(raw, "name"),
		Ticker:          strings.ToUpper(strings.TrimSpace(resolveAlias(raw, "ticker"))),
		Industry:        resolveAlias(raw, "industry"),
		Page:            resolveAlias(raw, "page"),
		MarketCapRaw:    resolveAlias(raw, "market_cap"),
		CurrentPriceRaw: resolveAlias(raw, "current_price"),
		TargetPriceRaw:  resolveAlias(raw, "target_price"),
		RatingRaw:       resolveAlias(raw, "rating"),
		LastUpdatedRaw:  resolveAlias(raw, "last_updated"),
		StrategyRaw:     resolveAlias(raw, "strategy"),
	}

	r.MarketCapVal = ParseScaledNumber(r.MarketCapRaw)
	r.CurrentPriceVal = ParseScaledNumber(r.CurrentPriceRaw)
	r.TargetPriceVal = ParseScaledNumber(r.TargetPriceRaw)
	r.RatingVal = ParseScaledNumber(r.RatingRaw)
	r.LastUpdatedVal = ParseDate(r.LastUpdatedRaw)

	if r.Page == "" {
		if r.Ticker != "" {
			r.Page = r.Ticker + ".html"
		} else {
			r.Page = "#"
		}
	}

	return r
}

func resolveAlias(raw RawRecord, field string) string {
	for _, key := range fieldAliases[field] {
		if v, ok := raw[key]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return ""
	}
}
