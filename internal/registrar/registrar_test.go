package registrar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/marketdata"
	"argus/internal/vendors"
	"argus/pkg/errors"
)

var (
	priceRaw = []byte("2024-01-02,100.0,101.5,99.5,101.0,1000\n2024-01-03,101.0,103.0,100.5,102.5,1200\n")
	newsRaw  = []byte(`[{"headline":"Earnings beat","source":"wire","datetime":1704240000}]`)
)

type fakeAdapter struct {
	name  string
	raw   map[marketdata.Capability][]byte
	err   error
	calls int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(_ context.Context, req vendors.Request) (*vendors.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.raw[req.Capability]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no fixture for %s", req.Capability)
	}
	return &vendors.Result{Vendor: f.name, Raw: raw, FetchedAt: time.Now()}, nil
}

type fakeSource struct {
	priority map[marketdata.Capability][]string
	adapters map[string]vendors.Adapter
}

func (s *fakeSource) Priority(cap marketdata.Capability) []string { return s.priority[cap] }

func (s *fakeSource) Adapter(name string) (vendors.Adapter, error) {
	a, ok := s.adapters[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "vendor %q", name)
	}
	return a, nil
}

func sourceOf(priority map[marketdata.Capability][]string, adapters ...*fakeAdapter) *fakeSource {
	s := &fakeSource{priority: priority, adapters: make(map[string]vendors.Adapter)}
	for _, a := range adapters {
		s.adapters[a.name] = a
	}
	return s
}

func tradeDate() time.Time { return time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC) }

func TestAcquireFillsAndFreezesLedger(t *testing.T) {
	primary := &fakeAdapter{name: "alpha", raw: map[marketdata.Capability][]byte{
		marketdata.CapabilityPriceSeries: priceRaw,
		marketdata.CapabilityNews:        newsRaw,
	}}
	source := sourceOf(map[marketdata.Capability][]string{
		marketdata.CapabilityPriceSeries: {"alpha"},
		marketdata.CapabilityNews:        {"alpha"},
	}, primary)

	ledger, err := New(source, Options{}).Acquire(context.Background(), "AAPL", tradeDate(),
		[]marketdata.Capability{marketdata.CapabilityPriceSeries, marketdata.CapabilityNews})
	require.NoError(t, err)

	assert.True(t, ledger.Frozen())
	series, ok := ledger.PriceSeries()
	require.True(t, ok)
	assert.Len(t, series, 2)
	_, ok = ledger.News()
	assert.True(t, ok)
}

func TestAcquireFallsBackOnVendorError(t *testing.T) {
	primary := &fakeAdapter{name: "alpha", err: errors.ErrUnavailable}
	secondary := &fakeAdapter{name: "beta", raw: map[marketdata.Capability][]byte{
		marketdata.CapabilityPriceSeries: priceRaw,
	}}
	source := sourceOf(map[marketdata.Capability][]string{
		marketdata.CapabilityPriceSeries: {"alpha", "beta"},
	}, primary, secondary)

	ledger, err := New(source, Options{}).Acquire(context.Background(), "AAPL", tradeDate(),
		[]marketdata.Capability{marketdata.CapabilityPriceSeries})
	require.NoError(t, err)

	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	_, ok := ledger.PriceSeries()
	assert.True(t, ok)
}

func TestAcquireMalformedPayloadCountsAsVendorFailure(t *testing.T) {
	// primary responds but the payload has no parseable rows
	primary := &fakeAdapter{name: "alpha", raw: map[marketdata.Capability][]byte{
		marketdata.CapabilityPriceSeries: []byte("timestamp,open,high,low,close,volume\n"),
	}}
	secondary := &fakeAdapter{name: "beta", raw: map[marketdata.Capability][]byte{
		marketdata.CapabilityPriceSeries: priceRaw,
	}}
	source := sourceOf(map[marketdata.Capability][]string{
		marketdata.CapabilityPriceSeries: {"alpha", "beta"},
	}, primary, secondary)

	ledger, err := New(source, Options{}).Acquire(context.Background(), "AAPL", tradeDate(),
		[]marketdata.Capability{marketdata.CapabilityPriceSeries})
	require.NoError(t, err)

	series, ok := ledger.PriceSeries()
	require.True(t, ok)
	assert.Len(t, series, 2)
	assert.Equal(t, 1, secondary.calls)
}

func TestAcquireExhaustedVendors(t *testing.T) {
	first := &fakeAdapter{name: "alpha", err: errors.ErrUnavailable}
	second := &fakeAdapter{name: "beta", err: errors.ErrTimeout}
	source := sourceOf(map[marketdata.Capability][]string{
		marketdata.CapabilityPriceSeries: {"alpha", "beta"},
	}, first, second)

	_, err := New(source, Options{}).Acquire(context.Background(), "AAPL", tradeDate(),
		[]marketdata.Capability{marketdata.CapabilityPriceSeries})

	var daErr *errors.DataAcquisitionError
	require.ErrorAs(t, err, &daErr)
	assert.Equal(t, string(marketdata.CapabilityPriceSeries), daErr.Capability)
	assert.Equal(t, []string{"alpha", "beta"}, daErr.Attempted)

	var verr *errors.VendorError
	require.ErrorAs(t, daErr.LastReason, &verr)
	assert.Equal(t, "beta", verr.Vendor)
}

func TestAcquireIsIdempotent(t *testing.T) {
	adapter := &fakeAdapter{name: "alpha", raw: map[marketdata.Capability][]byte{
		marketdata.CapabilityPriceSeries: priceRaw,
		marketdata.CapabilityNews:        newsRaw,
	}}
	source := sourceOf(map[marketdata.Capability][]string{
		marketdata.CapabilityPriceSeries: {"alpha"},
		marketdata.CapabilityNews:        {"alpha"},
	}, adapter)
	caps := []marketdata.Capability{marketdata.CapabilityNews, marketdata.CapabilityPriceSeries}

	r := New(source, Options{})
	first, err := r.Acquire(context.Background(), "AAPL", tradeDate(), caps)
	require.NoError(t, err)
	second, err := r.Acquire(context.Background(), "AAPL", tradeDate(), caps)
	require.NoError(t, err)

	a, err := first.Snapshot()
	require.NoError(t, err)
	b, err := second.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAcquireNoCapabilities(t *testing.T) {
	ledger, err := New(sourceOf(nil), Options{}).Acquire(context.Background(), "AAPL", tradeDate(), nil)
	require.NoError(t, err)
	assert.True(t, ledger.Frozen())
	assert.Empty(t, ledger.Capabilities())
}
