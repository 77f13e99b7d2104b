package tools

import (
	"argus/internal/adapters/ai"
	"argus/internal/adapters/config"
	"argus/internal/agents"
	"argus/internal/marketdata"
	"argus/internal/vendors"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// Registry binds the tool catalog to the vendor adapters that are actually
// configured, applying per-capability priority overrides from config. It is
// the lookup surface for both the registrar (bulk pre-fetch) and the
// executor (on-demand calls).
type Registry struct {
	adapters map[string]vendors.Adapter
	priority map[marketdata.Capability][]string
	byName   map[string]Definition
	log      *logger.Logger
}

// NewRegistry builds a registry over the given adapters. Priority overrides
// come from config as comma-separated vendor lists; vendors that are not
// configured are dropped from the order with a warning.
func NewRegistry(adapters []vendors.Adapter, data config.DataConfig) *Registry {
	r := &Registry{
		adapters: make(map[string]vendors.Adapter, len(adapters)),
		priority: make(map[marketdata.Capability][]string),
		byName:   make(map[string]Definition, len(Catalog)),
		log:      logger.Get().With("component", "tool_registry"),
	}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}

	overrides := map[marketdata.Capability][]string{
		marketdata.CapabilityPriceSeries:     data.PricePriority,
		marketdata.CapabilityFundamentals:    data.FundamentalsPriority,
		marketdata.CapabilityNews:            data.NewsPriority,
		marketdata.CapabilityInsiderActivity: data.InsiderPriority,
	}

	for _, def := range Catalog {
		r.byName[def.Name] = def
		if def.Local {
			continue
		}

		order := def.Vendors
		if override := overrides[def.Capability]; len(override) > 0 {
			order = override
		}
		r.priority[def.Capability] = r.filterConfigured(def.Capability, order)
	}
	return r
}

func (r *Registry) filterConfigured(cap marketdata.Capability, order []string) []string {
	kept := make([]string, 0, len(order))
	for _, name := range order {
		if _, ok := r.adapters[name]; ok {
			kept = append(kept, name)
		} else {
			r.log.Warnf("vendor %q in priority for %s is not configured, skipping", name, cap)
		}
	}
	return kept
}

// Priority returns the effective vendor order for a capability.
func (r *Registry) Priority(cap marketdata.Capability) []string {
	return r.priority[cap]
}

// Adapter resolves a vendor adapter by name.
func (r *Registry) Adapter(name string) (vendors.Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "vendor %q is not configured", name)
	}
	return a, nil
}

// Definition resolves a tool by name.
func (r *Registry) Definition(name string) (Definition, error) {
	d, ok := r.byName[name]
	if !ok {
		return Definition{}, errors.Wrapf(errors.ErrNotFound, "unknown tool %q", name)
	}
	return d, nil
}

// SchemasFor returns the tool schemas the given role is allowed to call, in
// catalog order.
func (r *Registry) SchemasFor(role agents.Role) []ai.ToolSchema {
	var out []ai.ToolSchema
	for _, def := range Catalog {
		if def.allows(role) {
			out = append(out, def.Schema())
		}
	}
	return out
}
