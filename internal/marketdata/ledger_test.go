package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/pkg/errors"
)

func testSeries(t *testing.T) PriceSeries {
	t.Helper()
	series, err := ParsePriceSeries("test",
		[]byte("2024-01-02,100.0,101.5,99.5,101.0,1000\n2024-01-03,101.0,103.0,100.5,102.5,1200\n"))
	require.NoError(t, err)
	return series
}

func testNews(t *testing.T) News {
	t.Helper()
	news, err := ParseNews("test",
		[]byte(`[{"headline":"Earnings beat","source":"wire","datetime":1704240000}]`))
	require.NoError(t, err)
	return news
}

func TestFactLedgerFreeze(t *testing.T) {
	ledger := NewFactLedger("AAPL", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, ledger.Put(testSeries(t)))

	ledger.Freeze()
	require.True(t, ledger.Frozen())

	err := ledger.Put(testNews(t))
	var werr *errors.WorkflowError
	require.ErrorAs(t, err, &werr)

	// the frozen ledger still serves reads
	series, ok := ledger.PriceSeries()
	require.True(t, ok)
	assert.Len(t, series, 2)
	assert.False(t, ledger.Has(CapabilityNews))
}

func TestFactLedgerTypedGetters(t *testing.T) {
	ledger := NewFactLedger("AAPL", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, ledger.Put(testSeries(t)))
	require.NoError(t, ledger.Put(testNews(t)))

	_, ok := ledger.Fundamentals()
	assert.False(t, ok)

	news, ok := ledger.News()
	require.True(t, ok)
	assert.Equal(t, "Earnings beat", news[0].Title)

	assert.Equal(t,
		[]Capability{CapabilityNews, CapabilityPriceSeries},
		ledger.Capabilities())
}

func TestFactLedgerSnapshotDeterminism(t *testing.T) {
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	first := NewFactLedger("AAPL", date)
	require.NoError(t, first.Put(testSeries(t)))
	require.NoError(t, first.Put(testNews(t)))
	first.Freeze()

	// same payloads, inserted in the opposite order
	second := NewFactLedger("AAPL", date)
	require.NoError(t, second.Put(testNews(t)))
	require.NoError(t, second.Put(testSeries(t)))
	second.Freeze()

	a, err := first.Snapshot()
	require.NoError(t, err)
	b, err := second.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, a, b)

	// snapshots are stable across repeated serialization too
	again, err := first.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, a, again)
}
