package tools

import (
	"context"
	"time"

	"argus/internal/agents"
	"argus/internal/marketdata"
	"argus/internal/metrics"
	"argus/internal/vendors"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// onDemandLookback bounds the default window for analyst-initiated fetches.
const onDemandLookback = 90 * 24 * time.Hour

// Executor serves on-demand tool calls during the analyst phase. Fetch tools
// walk the vendor priority order exactly like the bulk pre-fetch does; local
// tools compute over the ledger.
type Executor struct {
	registry *Registry
	log      *logger.Logger
}

// NewExecutor builds an executor over the registry.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry: registry,
		log:      logger.Get().With("component", "tool_executor"),
	}
}

// Invoke runs one tool call on behalf of a role and returns the rendered
// result. Role gating is enforced here, not trusted from the model.
func (e *Executor) Invoke(ctx context.Context, role agents.Role, name string, rc agents.RunContext, args map[string]string) (string, error) {
	def, err := e.registry.Definition(name)
	if err != nil {
		return "", err
	}
	if !def.allows(role) {
		return "", errors.Wrapf(errors.ErrInvalidInput, "tool %q is not available to role %s", name, role)
	}

	if def.Local {
		return e.invokeLocal(def, rc, args)
	}
	return e.fetch(ctx, def, rc, args)
}

func (e *Executor) invokeLocal(def Definition, rc agents.RunContext, args map[string]string) (string, error) {
	switch def.Name {
	case ToolTechnicalIndicators:
		series, ok := rc.Ledger.PriceSeries()
		if !ok {
			return "", errors.Wrap(errors.ErrNotFound, "technical indicators need a price series on file")
		}
		return RenderIndicators(series, args)
	default:
		return "", errors.Wrapf(errors.ErrNotImplemented, "local tool %q", def.Name)
	}
}

func (e *Executor) fetch(ctx context.Context, def Definition, rc agents.RunContext, args map[string]string) (string, error) {
	start, end := e.window(rc, args)
	req := vendors.Request{
		Capability: def.Capability,
		Symbol:     rc.Symbol,
		Start:      start,
		End:        end,
	}

	order := e.registry.Priority(def.Capability)
	attempted := make([]string, 0, len(order))
	var lastErr error

	for i, vendorName := range order {
		adapter, err := e.registry.Adapter(vendorName)
		if err != nil {
			continue
		}
		attempted = append(attempted, vendorName)
		metrics.VendorAttempts.WithLabelValues(string(def.Capability), vendorName).Inc()

		result, err := adapter.Fetch(ctx, req)
		if err == nil {
			var payload marketdata.Payload
			payload, err = marketdata.Normalize(def.Capability, vendorName, result.Raw)
			if err == nil {
				if i > 0 {
					metrics.VendorFallbacks.WithLabelValues(string(def.Capability)).Inc()
				}
				return payload.Render(), nil
			}
		}

		metrics.VendorFailures.WithLabelValues(string(def.Capability), vendorName).Inc()
		lastErr = errors.NewVendorError(vendorName, string(def.Capability), err)
		e.log.Warnf("on-demand fetch failed: %v", lastErr)

		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "tool call canceled")
		}
	}

	return "", errors.NewDataAcquisitionError(string(def.Capability), attempted, lastErr)
}

// window resolves the fetch window from tool arguments, falling back to the
// run's trade date with a bounded lookback.
func (e *Executor) window(rc agents.RunContext, args map[string]string) (time.Time, time.Time) {
	end := rc.TradeDate
	if raw, ok := args["end_date"]; ok {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			end = t
		}
	}

	start := end.Add(-onDemandLookback)
	if raw, ok := args["start_date"]; ok {
		if t, err := time.Parse("2006-01-02", raw); err == nil && t.Before(end) {
			start = t
		}
	}
	return start, end
}
