package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/pkg/errors"
)

func TestParseNewsBareArray(t *testing.T) {
	raw := []byte(`[
		{"headline":"Guidance cut","source":"wire","summary":"down 5%","datetime":1704326400},
		{"headline":"Earnings beat","source":"wire","datetime":1704240000}
	]`)

	news, err := ParseNews("finnhub", raw)
	require.NoError(t, err)
	require.Len(t, news, 2)

	// ascending by time regardless of input order
	assert.Equal(t, "Earnings beat", news[0].Title)
	assert.Equal(t, "Guidance cut", news[1].Title)
	assert.Equal(t, "down 5%", news[1].Summary)
}

func TestParseNewsFeedWrapper(t *testing.T) {
	raw := []byte(`{"feed":[
		{"title":"Upgrade to buy","source":"research","time_published":"20240103T143000"},
		{"title":"no timestamp, dropped"}
	]}`)

	news, err := ParseNews("alpha_vantage", raw)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Upgrade to buy", news[0].Title)
	assert.Equal(t, "2024-01-03", news[0].Time.Format("2006-01-02"))
}

func TestParseNewsNothingUsable(t *testing.T) {
	_, err := ParseNews("finnhub", []byte(`[{"summary":"no title"}]`))
	var perr *errors.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseFundamentalsFlattensNestedDocuments(t *testing.T) {
	raw := []byte(`{
		"PERatio": "28.5",
		"summaryDetail": {"marketCap": 2500000000, "beta": 1.2},
		"sector": "Technology"
	}`)

	fundamentals, err := ParseFundamentals("yfinance", raw)
	require.NoError(t, err)

	names := make([]string, len(fundamentals))
	for i, m := range fundamentals {
		names[i] = m.Name
	}

	// sorted dotted paths; the non-numeric "sector" leaf is dropped
	assert.Equal(t, []string{"PERatio", "summaryDetail.beta", "summaryDetail.marketCap"}, names)
	assert.Equal(t, "28.5", fundamentals[0].Value.String())
}

func TestParseFundamentalsNoNumericLeaves(t *testing.T) {
	_, err := ParseFundamentals("alpha_vantage", []byte(`{"Name":"Apple","Sector":"Technology"}`))
	var perr *errors.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseInsiderActivity(t *testing.T) {
	raw := []byte(`{"data":[
		{"name":"COO","share":5000,"change":-1000,"transactionDate":"2024-01-04","transactionPrice":101.5,"transactionCode":"S"},
		{"name":"CEO","share":20000,"change":2500,"transactionDate":"2024-01-02","transactionPrice":100.25,"transactionCode":"P"},
		{"name":"","transactionDate":"2024-01-03"}
	]}`)

	activity, err := ParseInsiderActivity("finnhub", raw)
	require.NoError(t, err)
	require.Len(t, activity, 2)

	assert.Equal(t, "CEO", activity[0].Name)
	assert.Equal(t, int64(2500), activity[0].Change)
	assert.Equal(t, "S", activity[1].Code)
}

func TestNormalizeDispatch(t *testing.T) {
	payload, err := Normalize(CapabilityPriceSeries, "test",
		[]byte("2024-01-02,100.0,101.5,99.5,101.0,1000\n"))
	require.NoError(t, err)
	assert.Equal(t, CapabilityPriceSeries, payload.Capability())

	_, err = Normalize(Capability("bogus"), "test", []byte(`{}`))
	require.Error(t, err)
}
