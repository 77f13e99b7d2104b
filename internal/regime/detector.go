package regime

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"argus/internal/marketdata"
	"argus/pkg/errors"
)

// Label is the categorical market-state classification.
type Label string

const (
	LabelTrendingUp     Label = "trending_up"
	LabelTrendingDown   Label = "trending_down"
	LabelRanging        Label = "ranging"
	LabelHighVolatility Label = "high_volatility"
)

// Metrics are the derived market-state measurements for one price series.
// They are read-only once computed.
type Metrics struct {
	Volatility       float64 `json:"volatility"`
	TrendStrength    float64 `json:"trend_strength"`
	Hurst            float64 `json:"hurst_exponent"`
	CumulativeReturn float64 `json:"cumulative_return"`
	Label            Label   `json:"label"`
	Observations     int     `json:"observations"`
}

// Describe renders the metrics for inclusion in an agent conversation.
func (m *Metrics) Describe() string {
	return fmt.Sprintf(
		"regime=%s volatility=%.4f trend_strength=%.4f hurst=%.3f cumulative_return=%.2f%% (n=%d)",
		m.Label, m.Volatility, m.TrendStrength, m.Hurst, m.CumulativeReturn*100, m.Observations)
}

// Policy is the tunable surface of the detector: the minimum viable series
// length and the classification thresholds.
type Policy struct {
	MinRows         int
	HighVolatility  float64
	TrendThreshold  float64
	HurstPersistent float64
}

// DefaultPolicy returns thresholds suitable for daily equity bars.
func DefaultPolicy() Policy {
	return Policy{
		MinRows:         30,
		HighVolatility:  0.04,
		TrendThreshold:  0.10,
		HurstPersistent: 0.55,
	}
}

// Detector derives regime metrics from a price series.
type Detector struct {
	policy Policy
}

// NewDetector creates a detector with the given policy. Zero-valued policy
// fields fall back to defaults.
func NewDetector(policy Policy) *Detector {
	def := DefaultPolicy()
	if policy.MinRows <= 0 {
		policy.MinRows = def.MinRows
	}
	if policy.HighVolatility <= 0 {
		policy.HighVolatility = def.HighVolatility
	}
	if policy.TrendThreshold <= 0 {
		policy.TrendThreshold = def.TrendThreshold
	}
	if policy.HurstPersistent <= 0 {
		policy.HurstPersistent = def.HurstPersistent
	}
	return &Detector{policy: policy}
}

// DetectRaw parses a textual price payload (comma- or whitespace-delimited)
// and derives metrics from it.
func (d *Detector) DetectRaw(raw []byte) (*Metrics, error) {
	series, err := marketdata.ParsePriceSeries("regime", raw)
	if err != nil {
		return nil, err
	}
	return d.Detect(series)
}

// Detect derives metrics from an already-structured series.
func (d *Detector) Detect(series marketdata.PriceSeries) (*Metrics, error) {
	n := len(series)
	if n < d.policy.MinRows {
		return nil, errors.NewParseError("regime",
			fmt.Sprintf("series has %d rows, need at least %d", n, d.policy.MinRows))
	}

	closes := series.Closes()
	returns := logReturns(closes)

	m := &Metrics{
		Volatility:       sampleStdDev(returns),
		TrendStrength:    trendStrength(closes),
		Hurst:            hurstExponent(returns),
		CumulativeReturn: closes[len(closes)-1]/closes[0] - 1,
		Observations:     n,
	}
	m.Label = d.classify(m)
	return m, nil
}

func (d *Detector) classify(m *Metrics) Label {
	p := d.policy
	switch {
	case m.Volatility > p.HighVolatility:
		return LabelHighVolatility
	case m.Hurst >= p.HurstPersistent && m.CumulativeReturn > 0:
		return LabelTrendingUp
	case m.Hurst >= p.HurstPersistent && m.CumulativeReturn < 0:
		return LabelTrendingDown
	case m.TrendStrength >= p.TrendThreshold:
		return LabelTrendingUp
	case m.TrendStrength <= -p.TrendThreshold:
		return LabelTrendingDown
	default:
		return LabelRanging
	}
}

func logReturns(closes []float64) []float64 {
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, math.Log(closes[i]/closes[i-1]))
	}
	return out
}

func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sd := stat.StdDev(xs, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}

// trendStrength is the regression slope over the window, normalized by the
// mean close so it reads as total relative move: +0.2 means the fitted line
// gains 20% of the mean price across the series.
func trendStrength(closes []float64) float64 {
	n := len(closes)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	_, beta := stat.LinearRegression(xs, closes, nil, false)
	mean := stat.Mean(closes, nil)
	if mean == 0 || math.IsNaN(beta) {
		return 0
	}
	return beta * float64(n-1) / mean
}

// hurstExponent estimates persistence via rescaled range over halving chunk
// sizes. 0.5 is returned when the series carries no usable signal (for
// example a perfectly flat series).
func hurstExponent(returns []float64) float64 {
	n := len(returns)

	var logSizes, logRS []float64
	for size := n / 2; size >= 8; size /= 2 {
		avg, ok := averageRescaledRange(returns, size)
		if !ok {
			continue
		}
		logSizes = append(logSizes, math.Log(float64(size)))
		logRS = append(logRS, math.Log(avg))
	}
	if len(logSizes) < 2 {
		return 0.5
	}

	_, h := stat.LinearRegression(logSizes, logRS, nil, false)
	if math.IsNaN(h) {
		return 0.5
	}
	return math.Max(0, math.Min(1, h))
}

func averageRescaledRange(returns []float64, size int) (float64, bool) {
	var sum float64
	var count int

	for start := 0; start+size <= len(returns); start += size {
		chunk := returns[start : start+size]
		mean := stat.Mean(chunk, nil)

		var cum, minCum, maxCum, variance float64
		for _, r := range chunk {
			cum += r - mean
			minCum = math.Min(minCum, cum)
			maxCum = math.Max(maxCum, cum)
			variance += (r - mean) * (r - mean)
		}

		s := math.Sqrt(variance / float64(size))
		if s == 0 {
			continue
		}
		sum += (maxCum - minCum) / s
		count++
	}

	if count == 0 || sum <= 0 {
		return 0, false
	}
	return sum / float64(count), true
}
