package marketdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"argus/pkg/errors"
)

// Metric is one named fundamental figure (PE ratio, EPS, market cap, ...).
type Metric struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Fundamentals is a sorted-by-name list of fundamental metrics.
type Fundamentals []Metric

func (Fundamentals) Capability() Capability { return CapabilityFundamentals }

func (f Fundamentals) Render() string {
	var b strings.Builder
	for _, m := range f {
		fmt.Fprintf(&b, "%s=%s\n", m.Name, m.Value.String())
	}
	return b.String()
}

// Headline is one news item.
type Headline struct {
	Time    time.Time `json:"time"`
	Source  string    `json:"source"`
	Title   string    `json:"title"`
	Summary string    `json:"summary"`
}

// News is an ascending-by-time list of headlines.
type News []Headline

func (News) Capability() Capability { return CapabilityNews }

func (n News) Render() string {
	var b strings.Builder
	for _, h := range n {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", h.Time.Format("2006-01-02"), h.Source, h.Title)
		if h.Summary != "" {
			fmt.Fprintf(&b, "  %s\n", h.Summary)
		}
	}
	return b.String()
}

// Transaction is one insider trade filing.
type Transaction struct {
	Date   time.Time `json:"date"`
	Name   string    `json:"name"`
	Shares int64     `json:"shares"`
	Change int64     `json:"change"`
	Price  float64   `json:"price"`
	Code   string    `json:"code"`
}

// InsiderActivity is an ascending-by-date list of insider transactions.
type InsiderActivity []Transaction

func (InsiderActivity) Capability() Capability { return CapabilityInsiderActivity }

func (a InsiderActivity) Render() string {
	var b strings.Builder
	for _, t := range a {
		fmt.Fprintf(&b, "- [%s] %s %s %d shares (holding %d) @ %.2f\n",
			t.Date.Format("2006-01-02"), t.Name, t.Code, t.Change, t.Shares, t.Price)
	}
	return b.String()
}

// Normalize validates a raw vendor payload for the given capability and
// converts it to its structured form. A failure here is a ParseError and is
// treated by callers as a vendor failure for fallback purposes.
func Normalize(cap Capability, source string, raw []byte) (Payload, error) {
	switch cap {
	case CapabilityPriceSeries:
		return ParsePriceSeries(source, raw)
	case CapabilityFundamentals:
		return ParseFundamentals(source, raw)
	case CapabilityNews:
		return ParseNews(source, raw)
	case CapabilityInsiderActivity:
		return ParseInsiderActivity(source, raw)
	default:
		return nil, errors.Newf("unknown capability %q", cap)
	}
}

// ParseFundamentals accepts a JSON document of arbitrary nesting and collects
// every numeric leaf into a metric, keyed by its dotted path. Both flat
// overview documents (alpha_vantage) and nested summaries (yfinance) reduce
// to the same normalized form.
func ParseFundamentals(source string, raw []byte) (Fundamentals, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.NewParseError(source, "empty fundamentals payload")
	}

	var doc interface{}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, &errors.ParseError{Source: source, Message: "invalid fundamentals JSON", Err: err}
	}

	metrics := Fundamentals{}
	collectNumericLeaves("", doc, &metrics)
	if len(metrics) == 0 {
		return nil, errors.NewParseError(source, "no numeric fundamentals found")
	}

	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Name < metrics[j].Name })
	return metrics, nil
}

func collectNumericLeaves(prefix string, node interface{}, out *Fundamentals) {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, child := range v {
			name := key
			if prefix != "" {
				name = prefix + "." + key
			}
			collectNumericLeaves(name, child, out)
		}
	case float64:
		if prefix == "" {
			return
		}
		*out = append(*out, Metric{Name: prefix, Value: decimal.NewFromFloat(v)})
	case string:
		if prefix == "" {
			return
		}
		if d, err := decimal.NewFromString(v); err == nil {
			*out = append(*out, Metric{Name: prefix, Value: d})
		}
	}
}

// finnhub company-news entry
type newsEntry struct {
	Headline      string `json:"headline"`
	Title         string `json:"title"`
	Source        string `json:"source"`
	Summary       string `json:"summary"`
	Datetime      int64  `json:"datetime"`
	TimePublished string `json:"time_published"`
}

// ParseNews accepts either a bare JSON array of articles (finnhub) or an
// object with a "feed" array (alpha_vantage news sentiment).
func ParseNews(source string, raw []byte) (News, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.NewParseError(source, "empty news payload")
	}

	var entries []newsEntry
	if trimmed[0] == '{' {
		var wrapper struct {
			Feed []newsEntry `json:"feed"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, &errors.ParseError{Source: source, Message: "invalid news JSON", Err: err}
		}
		entries = wrapper.Feed
	} else {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, &errors.ParseError{Source: source, Message: "invalid news JSON", Err: err}
		}
	}

	news := make(News, 0, len(entries))
	for _, e := range entries {
		title := e.Headline
		if title == "" {
			title = e.Title
		}
		if title == "" {
			continue
		}

		var ts time.Time
		switch {
		case e.Datetime > 0:
			ts = time.Unix(e.Datetime, 0).UTC()
		case e.TimePublished != "":
			parsed, err := time.Parse("20060102T150405", e.TimePublished)
			if err != nil {
				continue
			}
			ts = parsed.UTC()
		default:
			continue
		}

		news = append(news, Headline{Time: ts, Source: e.Source, Title: title, Summary: e.Summary})
	}
	if len(news) == 0 {
		return nil, errors.NewParseError(source, "no parseable news entries")
	}

	sort.Slice(news, func(i, j int) bool {
		if news[i].Time.Equal(news[j].Time) {
			return news[i].Title < news[j].Title
		}
		return news[i].Time.Before(news[j].Time)
	})
	return news, nil
}

// finnhub insider-transactions entry
type insiderEntry struct {
	Name             string  `json:"name"`
	Share            int64   `json:"share"`
	Change           int64   `json:"change"`
	TransactionDate  string  `json:"transactionDate"`
	TransactionPrice float64 `json:"transactionPrice"`
	TransactionCode  string  `json:"transactionCode"`
}

// ParseInsiderActivity normalizes an insider-transactions document.
func ParseInsiderActivity(source string, raw []byte) (InsiderActivity, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.NewParseError(source, "empty insider payload")
	}

	var wrapper struct {
		Data []insiderEntry `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, &errors.ParseError{Source: source, Message: "invalid insider JSON", Err: err}
	}

	activity := make(InsiderActivity, 0, len(wrapper.Data))
	for _, e := range wrapper.Data {
		if e.Name == "" || e.TransactionDate == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", e.TransactionDate)
		if err != nil {
			continue
		}
		activity = append(activity, Transaction{
			Date:   date.UTC(),
			Name:   e.Name,
			Shares: e.Share,
			Change: e.Change,
			Price:  e.TransactionPrice,
			Code:   e.TransactionCode,
		})
	}
	if len(activity) == 0 {
		return nil, errors.NewParseError(source, "no parseable insider transactions")
	}

	sort.Slice(activity, func(i, j int) bool {
		if activity[i].Date.Equal(activity[j].Date) {
			return activity[i].Name < activity[j].Name
		}
		return activity[i].Date.Before(activity[j].Date)
	})
	return activity, nil
}
