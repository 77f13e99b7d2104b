package vendors

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"argus/pkg/errors"
)

// httpClient is the shared transport for vendor adapters: resty under a
// per-vendor rate limiter, with bounded exponential backoff on 429 before the
// failure is reported upward.
type httpClient struct {
	name          string
	rest          *resty.Client
	limiter       *rate.Limiter
	maxRetries429 int
}

func newHTTPClient(name, baseURL string, opts Options) *httpClient {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout)

	return &httpClient{
		name:          name,
		rest:          rest,
		limiter:       rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		maxRetries429: opts.MaxRetries429,
	}
}

func (c *httpClient) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(err, "%s rate limiter", c.name)
	}

	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		resp, err := c.rest.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrUnavailable, "%s request failed: %v", c.name, err)
		}

		if resp.StatusCode() == http.StatusTooManyRequests && attempt < c.maxRetries429 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrapf(ctx.Err(), "%s backoff interrupted", c.name)
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode() != http.StatusOK {
			return nil, errors.Wrapf(errors.ErrExternal, "%s API error (%d): %s",
				c.name, resp.StatusCode(), resp.String())
		}

		return resp.Body(), nil
	}
}
