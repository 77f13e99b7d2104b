package vendors

import (
	"context"
	"time"

	"argus/internal/marketdata"
)

// Request describes one capability fetch for one symbol over a date range.
type Request struct {
	Capability marketdata.Capability
	Symbol     string
	Start      time.Time
	End        time.Time
}

// Result is a successful raw fetch. Failure is always an error return, never
// an error-shaped payload.
type Result struct {
	Vendor    string
	Raw       []byte
	FetchedAt time.Time
}

// Adapter wraps one external data source behind a uniform call signature.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, req Request) (*Result, error)
}

// Options carries the transport policy shared by all HTTP vendor adapters.
type Options struct {
	Timeout       time.Duration
	RatePerSecond float64
	MaxRetries429 int
}

// DefaultOptions returns conservative transport settings.
func DefaultOptions() Options {
	return Options{
		Timeout:       15 * time.Second,
		RatePerSecond: 5,
		MaxRetries429: 3,
	}
}
