package tools

import (
	"fmt"
	"strings"

	talib "github.com/markcheno/go-talib"

	"argus/internal/marketdata"
	"argus/pkg/errors"
)

const (
	rsiPeriod  = 14
	atrPeriod  = 14
	smaShort   = 20
	smaLong    = 50
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// RenderIndicators computes the standard indicator set over a price series
// and renders it for the conversation. An "indicators" argument narrows the
// set to a comma-separated selection of rsi, sma, macd, atr.
func RenderIndicators(series marketdata.PriceSeries, args map[string]string) (string, error) {
	if len(series) <= smaLong {
		return "", errors.NewParseError("indicators",
			fmt.Sprintf("need more than %d price rows, have %d", smaLong, len(series)))
	}

	closes := series.Closes()
	highs := make([]float64, len(series))
	lows := make([]float64, len(series))
	for i, c := range series {
		highs[i] = c.High
		lows[i] = c.Low
	}

	selected := selectedIndicators(args)
	last := len(closes) - 1

	var b strings.Builder
	fmt.Fprintf(&b, "technical indicators as of %s (close %.4f):\n",
		series[last].Timestamp.Format("2006-01-02"), closes[last])

	if selected["rsi"] {
		rsi := talib.Rsi(closes, rsiPeriod)
		fmt.Fprintf(&b, "RSI(%d): %.2f\n", rsiPeriod, rsi[last])
	}
	if selected["sma"] {
		short := talib.Sma(closes, smaShort)
		long := talib.Sma(closes, smaLong)
		fmt.Fprintf(&b, "SMA(%d): %.4f  SMA(%d): %.4f\n", smaShort, short[last], smaLong, long[last])
	}
	if selected["macd"] {
		macd, signal, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
		fmt.Fprintf(&b, "MACD(%d,%d,%d): %.4f  signal: %.4f  histogram: %.4f\n",
			macdFast, macdSlow, macdSignal, macd[last], signal[last], hist[last])
	}
	if selected["atr"] {
		atr := talib.Atr(highs, lows, closes, atrPeriod)
		fmt.Fprintf(&b, "ATR(%d): %.4f\n", atrPeriod, atr[last])
	}

	return b.String(), nil
}

func selectedIndicators(args map[string]string) map[string]bool {
	all := map[string]bool{"rsi": true, "sma": true, "macd": true, "atr": true}

	raw, ok := args["indicators"]
	if !ok || strings.TrimSpace(raw) == "" {
		return all
	}

	picked := make(map[string]bool, 4)
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if all[name] {
			picked[name] = true
		}
	}
	if len(picked) == 0 {
		return all
	}
	return picked
}
