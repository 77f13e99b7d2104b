package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/adapters/config"
	"argus/internal/agents"
	"argus/internal/marketdata"
	"argus/internal/vendors"
	"argus/pkg/errors"
)

type stubAdapter struct {
	name  string
	raw   map[marketdata.Capability][]byte
	err   error
	calls int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(_ context.Context, req vendors.Request) (*vendors.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	raw, ok := s.raw[req.Capability]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no fixture for %s", req.Capability)
	}
	return &vendors.Result{Vendor: s.name, Raw: raw, FetchedAt: time.Now()}, nil
}

func defaultData() config.DataConfig {
	return config.DataConfig{
		PricePriority:        []string{"yfinance", "finnhub"},
		FundamentalsPriority: []string{"alpha_vantage", "yfinance"},
		NewsPriority:         []string{"finnhub", "alpha_vantage"},
		InsiderPriority:      []string{"finnhub"},
	}
}

func TestRegistryAppliesPriorityOverrides(t *testing.T) {
	adapters := []vendors.Adapter{
		&stubAdapter{name: "yfinance"},
		&stubAdapter{name: "finnhub"},
	}
	data := defaultData()
	data.PricePriority = []string{"finnhub", "yfinance"}

	registry := NewRegistry(adapters, data)

	assert.Equal(t, []string{"finnhub", "yfinance"},
		registry.Priority(marketdata.CapabilityPriceSeries))
}

func TestRegistryDropsUnconfiguredVendors(t *testing.T) {
	adapters := []vendors.Adapter{&stubAdapter{name: "finnhub"}}
	data := defaultData()
	data.PricePriority = []string{"yfinance", "finnhub", "bogus"}

	registry := NewRegistry(adapters, data)

	assert.Equal(t, []string{"finnhub"}, registry.Priority(marketdata.CapabilityPriceSeries))
	// insider only lists finnhub, untouched
	assert.Equal(t, []string{"finnhub"}, registry.Priority(marketdata.CapabilityInsiderActivity))
}

func TestRegistrySchemasAreRoleGated(t *testing.T) {
	registry := NewRegistry([]vendors.Adapter{&stubAdapter{name: "finnhub"}}, defaultData())

	marketSchemas := registry.SchemasFor(agents.RoleMarketAnalyst)
	names := make([]string, len(marketSchemas))
	for i, s := range marketSchemas {
		names[i] = s.Name
	}
	assert.Equal(t, []string{string(marketdata.CapabilityPriceSeries), ToolTechnicalIndicators}, names)

	newsSchemas := registry.SchemasFor(agents.RoleNewsAnalyst)
	require.Len(t, newsSchemas, 1)
	assert.Equal(t, string(marketdata.CapabilityNews), newsSchemas[0].Name)

	// non-analyst roles get no tools
	assert.Empty(t, registry.SchemasFor(agents.RoleTrader))
}

func TestRegistryDefinitionLookup(t *testing.T) {
	registry := NewRegistry(nil, defaultData())

	def, err := registry.Definition(ToolTechnicalIndicators)
	require.NoError(t, err)
	assert.True(t, def.Local)

	_, err = registry.Definition("no_such_tool")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = registry.Adapter("yfinance")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
