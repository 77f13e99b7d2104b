package vendors

import (
	"context"
	"strconv"
	"time"

	"argus/internal/marketdata"
	"argus/pkg/errors"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub serves candles, company news, fundamentals metrics, and insider
// transactions.
type Finnhub struct {
	client *httpClient
	apiKey string
}

// NewFinnhub creates a Finnhub adapter.
func NewFinnhub(apiKey string, opts Options) *Finnhub {
	return &Finnhub{
		client: newHTTPClient("finnhub", finnhubBaseURL, opts),
		apiKey: apiKey,
	}
}

// Name returns the vendor identifier used in priority lists.
func (f *Finnhub) Name() string { return "finnhub" }

// Fetch retrieves the raw payload for one capability.
func (f *Finnhub) Fetch(ctx context.Context, req Request) (*Result, error) {
	if f.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "finnhub API key not configured")
	}

	var (
		path   string
		params map[string]string
	)
	switch req.Capability {
	case marketdata.CapabilityPriceSeries:
		path = "/stock/candle"
		params = map[string]string{
			"symbol":     req.Symbol,
			"resolution": "D",
			"from":       strconv.FormatInt(req.Start.Unix(), 10),
			"to":         strconv.FormatInt(req.End.Unix(), 10),
		}
	case marketdata.CapabilityNews:
		path = "/company-news"
		params = map[string]string{
			"symbol": req.Symbol,
			"from":   req.Start.Format("2006-01-02"),
			"to":     req.End.Format("2006-01-02"),
		}
	case marketdata.CapabilityFundamentals:
		path = "/stock/metric"
		params = map[string]string{
			"symbol": req.Symbol,
			"metric": "all",
		}
	case marketdata.CapabilityInsiderActivity:
		path = "/stock/insider-transactions"
		params = map[string]string{
			"symbol": req.Symbol,
			"from":   req.Start.Format("2006-01-02"),
			"to":     req.End.Format("2006-01-02"),
		}
	default:
		return nil, errors.Newf("finnhub does not serve %s", req.Capability)
	}
	params["token"] = f.apiKey

	raw, err := f.client.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	return &Result{Vendor: f.Name(), Raw: raw, FetchedAt: time.Now().UTC()}, nil
}
