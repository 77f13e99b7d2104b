package tools

import (
	"argus/internal/adapters/ai"
	"argus/internal/agents"
	"argus/internal/marketdata"
)

// Definition describes one tool: what it fetches or computes, which roles may
// call it, and which vendors serve it in priority order. This table is the
// single source of truth — schemas shown to models, role gating, and vendor
// routing are all derived from it.
type Definition struct {
	Name        string
	Capability  marketdata.Capability
	Description string
	Roles       []agents.Role
	// Vendors is the default priority order; config may override it.
	Vendors []string
	Params  []ai.ParamSchema
	// Local tools compute over already-fetched data instead of calling out.
	Local bool
}

// ToolTechnicalIndicators is the local computed tool's name.
const ToolTechnicalIndicators = "technical_indicators"

var dateParams = []ai.ParamSchema{
	{Name: "start_date", Description: "Window start, YYYY-MM-DD. Defaults to 90 days before the trade date."},
	{Name: "end_date", Description: "Window end, YYYY-MM-DD. Defaults to the trade date."},
}

// Catalog lists every tool the pipeline knows about.
var Catalog = []Definition{
	{
		Name:        string(marketdata.CapabilityPriceSeries),
		Capability:  marketdata.CapabilityPriceSeries,
		Description: "Fetch daily OHLCV price history for the ticker.",
		Roles:       []agents.Role{agents.RoleMarketAnalyst},
		Vendors:     []string{"yfinance", "finnhub"},
		Params:      dateParams,
	},
	{
		Name:        string(marketdata.CapabilityFundamentals),
		Capability:  marketdata.CapabilityFundamentals,
		Description: "Fetch reported fundamental metrics for the ticker.",
		Roles:       []agents.Role{agents.RoleFundamentalsAnalyst},
		Vendors:     []string{"alpha_vantage", "yfinance"},
	},
	{
		Name:        string(marketdata.CapabilityNews),
		Capability:  marketdata.CapabilityNews,
		Description: "Fetch recent news headlines for the ticker.",
		Roles:       []agents.Role{agents.RoleNewsAnalyst},
		Vendors:     []string{"finnhub", "alpha_vantage"},
		Params:      dateParams,
	},
	{
		Name:        string(marketdata.CapabilityInsiderActivity),
		Capability:  marketdata.CapabilityInsiderActivity,
		Description: "Fetch recent insider transactions for the ticker.",
		Roles:       []agents.Role{agents.RoleInsiderAnalyst},
		Vendors:     []string{"finnhub"},
		Params:      dateParams,
	},
	{
		Name:        ToolTechnicalIndicators,
		Description: "Compute technical indicators (RSI, SMA, MACD, ATR) over the price history already on file.",
		Roles:       []agents.Role{agents.RoleMarketAnalyst},
		Params: []ai.ParamSchema{
			{Name: "indicators", Description: "Comma-separated subset of rsi, sma, macd, atr. Defaults to all."},
		},
		Local: true,
	},
}

// Schema renders the definition as an LLM tool schema.
func (d Definition) Schema() ai.ToolSchema {
	return ai.ToolSchema{Name: d.Name, Description: d.Description, Params: d.Params}
}

// allows reports whether the role may invoke this tool.
func (d Definition) allows(role agents.Role) bool {
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}
