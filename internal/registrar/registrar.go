package registrar

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"argus/internal/marketdata"
	"argus/internal/metrics"
	"argus/internal/vendors"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// VendorSource resolves the effective vendor priority per capability and the
// adapters behind the names. The tool registry satisfies it.
type VendorSource interface {
	Priority(cap marketdata.Capability) []string
	Adapter(name string) (vendors.Adapter, error)
}

// Options tune the bulk acquisition pass.
type Options struct {
	// CallTimeout bounds each individual vendor call.
	CallTimeout time.Duration
	// Lookback is the historical window fetched relative to the trade date.
	Lookback time.Duration
}

// DefaultOptions returns acquisition defaults for daily research runs.
func DefaultOptions() Options {
	return Options{
		CallTimeout: 15 * time.Second,
		Lookback:    365 * 24 * time.Hour,
	}
}

// Registrar performs the bulk data acquisition that precedes every run:
// every required capability is fetched, normalized and recorded before any
// agent speaks. Capabilities run concurrently; vendors within a capability
// are tried strictly in priority order.
type Registrar struct {
	source VendorSource
	opts   Options
	log    *logger.Logger
}

// New builds a registrar over a vendor source.
func New(source VendorSource, opts Options) *Registrar {
	def := DefaultOptions()
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = def.CallTimeout
	}
	if opts.Lookback <= 0 {
		opts.Lookback = def.Lookback
	}
	return &Registrar{
		source: source,
		opts:   opts,
		log:    logger.Get().With("component", "registrar"),
	}
}

// Acquire fetches every listed capability for the symbol and returns a
// frozen ledger. Any capability that exhausts its vendors fails the whole
// acquisition: the workflow never starts on partial data.
func (r *Registrar) Acquire(ctx context.Context, symbol string, tradeDate time.Time, caps []marketdata.Capability) (*marketdata.FactLedger, error) {
	ledger := marketdata.NewFactLedger(symbol, tradeDate)
	if len(caps) == 0 {
		ledger.Freeze()
		return ledger, nil
	}

	req := vendors.Request{
		Symbol: symbol,
		Start:  tradeDate.Add(-r.opts.Lookback),
		End:    tradeDate,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, cap := range caps {
		capability := cap
		g.Go(func() error {
			capReq := req
			capReq.Capability = capability

			payload, err := r.acquireOne(gctx, capReq)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			return ledger.Put(payload)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ledger.Freeze()
	r.log.Infow("acquisition complete", "symbol", symbol, "capabilities", len(caps))
	return ledger, nil
}

// acquireOne walks the vendor priority order for one capability. A payload
// that fetches but fails normalization counts as a vendor failure and falls
// through to the next vendor.
func (r *Registrar) acquireOne(ctx context.Context, req vendors.Request) (marketdata.Payload, error) {
	order := r.source.Priority(req.Capability)
	attempted := make([]string, 0, len(order))
	var lastErr error

	for i, vendorName := range order {
		adapter, err := r.source.Adapter(vendorName)
		if err != nil {
			continue
		}
		attempted = append(attempted, vendorName)
		metrics.VendorAttempts.WithLabelValues(string(req.Capability), vendorName).Inc()

		payload, err := r.tryVendor(ctx, adapter, req)
		if err == nil {
			if i > 0 {
				metrics.VendorFallbacks.WithLabelValues(string(req.Capability)).Inc()
			}
			return payload, nil
		}

		metrics.VendorFailures.WithLabelValues(string(req.Capability), vendorName).Inc()
		lastErr = errors.NewVendorError(vendorName, string(req.Capability), err)
		r.log.Warnf("vendor failed, falling back: %v", lastErr)

		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "acquisition canceled")
		}
	}

	return nil, errors.NewDataAcquisitionError(string(req.Capability), attempted, lastErr)
}

func (r *Registrar) tryVendor(ctx context.Context, adapter vendors.Adapter, req vendors.Request) (marketdata.Payload, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.CallTimeout)
	defer cancel()

	result, err := adapter.Fetch(callCtx, req)
	if err != nil {
		return nil, err
	}
	return marketdata.Normalize(req.Capability, adapter.Name(), result.Raw)
}
