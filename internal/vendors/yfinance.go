package vendors

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"argus/internal/marketdata"
	"argus/pkg/errors"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YFinance serves daily price history via the Yahoo chart API and
// fundamentals via quoteSummary. Chart responses are re-emitted as delimited
// candle rows so the downstream validator sees the same textual format the
// other price vendors produce.
type YFinance struct {
	client *httpClient
}

// NewYFinance creates a Yahoo Finance adapter. No API key is required.
func NewYFinance(opts Options) *YFinance {
	return &YFinance{client: newHTTPClient("yfinance", yahooBaseURL, opts)}
}

// Name returns the vendor identifier used in priority lists.
func (y *YFinance) Name() string { return "yfinance" }

// Fetch retrieves the raw payload for one capability.
func (y *YFinance) Fetch(ctx context.Context, req Request) (*Result, error) {
	switch req.Capability {
	case marketdata.CapabilityPriceSeries:
		return y.fetchCandles(ctx, req)
	case marketdata.CapabilityFundamentals:
		return y.fetchFundamentals(ctx, req)
	default:
		return nil, errors.Newf("yfinance does not serve %s", req.Capability)
	}
}

func (y *YFinance) fetchCandles(ctx context.Context, req Request) (*Result, error) {
	raw, err := y.client.get(ctx, "/v8/finance/chart/"+req.Symbol, map[string]string{
		"period1":  strconv.FormatInt(req.Start.Unix(), 10),
		"period2":  strconv.FormatInt(req.End.Unix(), 10),
		"interval": "1d",
		"events":   "history",
	})
	if err != nil {
		return nil, err
	}

	rows, err := chartToRows(raw)
	if err != nil {
		return nil, err
	}

	return &Result{Vendor: y.Name(), Raw: rows, FetchedAt: time.Now().UTC()}, nil
}

func (y *YFinance) fetchFundamentals(ctx context.Context, req Request) (*Result, error) {
	raw, err := y.client.get(ctx, "/v10/finance/quoteSummary/"+req.Symbol, map[string]string{
		"modules": "defaultKeyStatistics,financialData,summaryDetail",
	})
	if err != nil {
		return nil, err
	}

	return &Result{Vendor: y.Name(), Raw: raw, FetchedAt: time.Now().UTC()}, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func chartToRows(raw []byte) ([]byte, error) {
	var resp chartResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "decode yahoo chart response")
	}
	if resp.Chart.Error != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "yahoo chart error: %s %s",
			resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.Wrap(errors.ErrExternal, "yahoo chart response has no quote data")
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var b strings.Builder
	b.WriteString("# timestamp open high low close volume\n")
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		fmt.Fprintf(&b, "%d %.6f %.6f %.6f %.6f %.0f\n",
			ts, quote.Open[i], quote.High[i], quote.Low[i], quote.Close[i], quote.Volume[i])
	}

	return []byte(b.String()), nil
}
