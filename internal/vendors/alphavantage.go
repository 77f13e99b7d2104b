package vendors

import (
	"context"
	"time"

	"argus/internal/marketdata"
	"argus/pkg/errors"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantage serves daily price history (CSV), company overview
// fundamentals, and news sentiment.
type AlphaVantage struct {
	client *httpClient
	apiKey string
}

// NewAlphaVantage creates an Alpha Vantage adapter.
func NewAlphaVantage(apiKey string, opts Options) *AlphaVantage {
	return &AlphaVantage{
		client: newHTTPClient("alpha_vantage", alphaVantageBaseURL, opts),
		apiKey: apiKey,
	}
}

// Name returns the vendor identifier used in priority lists.
func (a *AlphaVantage) Name() string { return "alpha_vantage" }

// Fetch retrieves the raw payload for one capability.
func (a *AlphaVantage) Fetch(ctx context.Context, req Request) (*Result, error) {
	if a.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "alpha_vantage API key not configured")
	}

	params := map[string]string{
		"symbol": req.Symbol,
		"apikey": a.apiKey,
	}
	switch req.Capability {
	case marketdata.CapabilityPriceSeries:
		params["function"] = "TIME_SERIES_DAILY"
		params["outputsize"] = "full"
		params["datatype"] = "csv"
	case marketdata.CapabilityFundamentals:
		params["function"] = "OVERVIEW"
	case marketdata.CapabilityNews:
		delete(params, "symbol")
		params["function"] = "NEWS_SENTIMENT"
		params["tickers"] = req.Symbol
		params["time_from"] = req.Start.Format("20060102T0000")
	default:
		return nil, errors.Newf("alpha_vantage does not serve %s", req.Capability)
	}

	raw, err := a.client.get(ctx, "/query", params)
	if err != nil {
		return nil, err
	}

	return &Result{Vendor: a.Name(), Raw: raw, FetchedAt: time.Now().UTC()}, nil
}
