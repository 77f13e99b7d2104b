package marketdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"argus/pkg/errors"
)

// Candle is one OHLCV record of a price series.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// PriceSeries is an ordered (ascending by timestamp) sequence of candles.
type PriceSeries []Candle

// Capability identifies the payload kind.
func (PriceSeries) Capability() Capability { return CapabilityPriceSeries }

// Render returns the series as comma-delimited rows, most recent last.
func (s PriceSeries) Render() string {
	var b strings.Builder
	b.WriteString("timestamp,open,high,low,close,volume\n")
	for _, c := range s {
		fmt.Fprintf(&b, "%s,%.4f,%.4f,%.4f,%.4f,%d\n",
			c.Timestamp.Format("2006-01-02"), c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	return b.String()
}

// Closes returns the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// ParsePriceSeries validates and normalizes a raw price payload. It accepts
// columnar candle JSON (finnhub style) as well as comma- or
// whitespace-delimited text; delimited input may carry header and comment
// lines, and malformed rows are skipped rather than aborting the parse.
func ParsePriceSeries(source string, raw []byte) (PriceSeries, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.NewParseError(source, "empty price payload")
	}

	var (
		series PriceSeries
		err    error
	)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		series, err = parseCandleJSON(source, trimmed)
	} else {
		series, err = parseCandleText(source, trimmed)
	}
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, errors.NewParseError(source, "no parseable price rows")
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})
	return series, nil
}

// finnhub-style columnar candles
type candleColumns struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

func parseCandleJSON(source string, raw []byte) (PriceSeries, error) {
	var cols candleColumns
	if err := json.Unmarshal(raw, &cols); err != nil {
		return nil, &errors.ParseError{Source: source, Message: "invalid candle JSON", Err: err}
	}
	if cols.Status != "" && cols.Status != "ok" {
		return nil, errors.NewParseError(source, "candle response status "+cols.Status)
	}

	n := len(cols.Times)
	if n == 0 || len(cols.Opens) != n || len(cols.Highs) != n || len(cols.Lows) != n ||
		len(cols.Closes) != n || len(cols.Volumes) != n {
		return nil, errors.NewParseError(source, "candle columns missing or misaligned")
	}

	series := make(PriceSeries, 0, n)
	for i := 0; i < n; i++ {
		c := Candle{
			Timestamp: time.Unix(cols.Times[i], 0).UTC(),
			Open:      cols.Opens[i],
			High:      cols.Highs[i],
			Low:       cols.Lows[i],
			Close:     cols.Closes[i],
			Volume:    int64(cols.Volumes[i]),
		}
		if !validCandle(c) {
			continue
		}
		series = append(series, c)
	}
	return series, nil
}

func parseCandleText(source string, raw []byte) (PriceSeries, error) {
	lines := strings.Split(string(raw), "\n")
	series := make(PriceSeries, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var fields []string
		if strings.Contains(line, ",") {
			fields = strings.Split(line, ",")
			for i := range fields {
				fields[i] = strings.TrimSpace(fields[i])
			}
		} else {
			fields = strings.Fields(line)
		}
		if len(fields) != 6 {
			continue
		}

		ts, ok := parseTimestamp(fields[0])
		if !ok {
			// header lines land here
			continue
		}

		nums := make([]float64, 5)
		valid := true
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				valid = false
				break
			}
			nums[i] = v
		}
		if !valid {
			continue
		}

		c := Candle{
			Timestamp: ts,
			Open:      nums[0],
			High:      nums[1],
			Low:       nums[2],
			Close:     nums[3],
			Volume:    int64(nums[4]),
		}
		if !validCandle(c) {
			continue
		}
		series = append(series, c)
	}

	return series, nil
}

func parseTimestamp(field string) (time.Time, bool) {
	if secs, err := strconv.ParseInt(field, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), true
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if ts, err := time.Parse(layout, field); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func validCandle(c Candle) bool {
	return c.Open > 0 && c.High > 0 && c.Low > 0 && c.Close > 0 &&
		c.High >= c.Low && c.Volume >= 0
}
