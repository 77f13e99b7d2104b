package marketdata

import (
	"encoding/json"
	"sort"
	"time"

	"argus/pkg/errors"
)

// FactLedger is the per-run snapshot of all externally fetched data, keyed by
// capability. It is write-once: the registrar populates it, freezes it, and
// from then on every agent only reads.
type FactLedger struct {
	symbol    string
	tradeDate time.Time
	entries   map[Capability]Payload
	frozen    bool
}

// NewFactLedger creates an empty, unfrozen ledger for one run.
func NewFactLedger(symbol string, tradeDate time.Time) *FactLedger {
	return &FactLedger{
		symbol:    symbol,
		tradeDate: tradeDate,
		entries:   make(map[Capability]Payload),
	}
}

// Symbol returns the instrument this ledger was built for.
func (l *FactLedger) Symbol() string { return l.symbol }

// TradeDate returns the analysis date.
func (l *FactLedger) TradeDate() time.Time { return l.tradeDate }

// Put stores a normalized payload. Writing to a frozen ledger is a contract
// violation.
func (l *FactLedger) Put(p Payload) error {
	if l.frozen {
		return errors.NewWorkflowError("ledger", "write to frozen fact ledger")
	}
	l.entries[p.Capability()] = p
	return nil
}

// Freeze marks the ledger immutable.
func (l *FactLedger) Freeze() { l.frozen = true }

// Frozen reports whether the ledger has been frozen.
func (l *FactLedger) Frozen() bool { return l.frozen }

// Has reports whether a capability is present.
func (l *FactLedger) Has(c Capability) bool {
	_, ok := l.entries[c]
	return ok
}

// Get returns the payload for a capability.
func (l *FactLedger) Get(c Capability) (Payload, bool) {
	p, ok := l.entries[c]
	return p, ok
}

// PriceSeries returns the price series payload if present.
func (l *FactLedger) PriceSeries() (PriceSeries, bool) {
	p, ok := l.entries[CapabilityPriceSeries].(PriceSeries)
	return p, ok
}

// Fundamentals returns the fundamentals payload if present.
func (l *FactLedger) Fundamentals() (Fundamentals, bool) {
	p, ok := l.entries[CapabilityFundamentals].(Fundamentals)
	return p, ok
}

// News returns the news payload if present.
func (l *FactLedger) News() (News, bool) {
	p, ok := l.entries[CapabilityNews].(News)
	return p, ok
}

// InsiderActivity returns the insider activity payload if present.
func (l *FactLedger) InsiderActivity() (InsiderActivity, bool) {
	p, ok := l.entries[CapabilityInsiderActivity].(InsiderActivity)
	return p, ok
}

// Capabilities returns the present capabilities in sorted order.
func (l *FactLedger) Capabilities() []Capability {
	caps := make([]Capability, 0, len(l.entries))
	for c := range l.entries {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// Snapshot serializes the ledger to canonical JSON. Identical inputs always
// produce byte-identical snapshots: payload slices are sorted at parse time
// and JSON object keys marshal in sorted order.
func (l *FactLedger) Snapshot() ([]byte, error) {
	doc := struct {
		Symbol    string                 `json:"symbol"`
		TradeDate string                 `json:"trade_date"`
		Data      map[Capability]Payload `json:"data"`
	}{
		Symbol:    l.symbol,
		TradeDate: l.tradeDate.Format("2006-01-02"),
		Data:      l.entries,
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal ledger snapshot")
	}
	return out, nil
}
