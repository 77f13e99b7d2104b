package agents

import (
	"sort"
	"strings"

	"argus/internal/marketdata"
	"argus/pkg/errors"
)

// Role enumerates the agent specializations in a research run.
type Role string

const (
	RoleMarketAnalyst       Role = "market_analyst"
	RoleNewsAnalyst         Role = "news_analyst"
	RoleFundamentalsAnalyst Role = "fundamentals_analyst"
	RoleInsiderAnalyst      Role = "insider_analyst"

	RoleBullResearcher  Role = "bull_researcher"
	RoleBearResearcher  Role = "bear_researcher"
	RoleResearchManager Role = "research_manager"

	RoleTrader Role = "trader"

	RoleRiskyDebater   Role = "risky_debater"
	RoleSafeDebater    Role = "safe_debater"
	RoleNeutralDebater Role = "neutral_debater"
	RoleRiskJudge      Role = "risk_judge"
)

// IsAnalyst reports whether the role participates in the analyst phase and
// may therefore request tool calls.
func (r Role) IsAnalyst() bool {
	switch r {
	case RoleMarketAnalyst, RoleNewsAnalyst, RoleFundamentalsAnalyst, RoleInsiderAnalyst:
		return true
	}
	return false
}

// IsJudge reports whether the role terminates a phase with a verdict.
func (r Role) IsJudge() bool {
	return r == RoleResearchManager || r == RoleRiskJudge
}

// analystAliases maps config shorthand to analyst roles.
var analystAliases = map[string]Role{
	"market":       RoleMarketAnalyst,
	"news":         RoleNewsAnalyst,
	"fundamentals": RoleFundamentalsAnalyst,
	"insider":      RoleInsiderAnalyst,
}

// analystCapabilities maps each analyst to the capability its phase depends
// on. The registrar pre-fetches exactly these before any analyst runs.
var analystCapabilities = map[Role]marketdata.Capability{
	RoleMarketAnalyst:       marketdata.CapabilityPriceSeries,
	RoleNewsAnalyst:         marketdata.CapabilityNews,
	RoleFundamentalsAnalyst: marketdata.CapabilityFundamentals,
	RoleInsiderAnalyst:      marketdata.CapabilityInsiderActivity,
}

// ParseAnalysts resolves config shorthand ("market", "news", ...) into an
// ordered analyst role list.
func ParseAnalysts(names []string) ([]Role, error) {
	if len(names) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no analysts selected")
	}

	roles := make([]Role, 0, len(names))
	for _, name := range names {
		role, ok := analystAliases[strings.TrimSpace(strings.ToLower(name))]
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown analyst %q", name)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// RequiredCapabilities returns the sorted capability set the selected
// analysts depend on.
func RequiredCapabilities(analysts []Role) []marketdata.Capability {
	seen := make(map[marketdata.Capability]struct{}, len(analysts))
	for _, role := range analysts {
		if c, ok := analystCapabilities[role]; ok {
			seen[c] = struct{}{}
		}
	}

	caps := make([]marketdata.Capability, 0, len(seen))
	for c := range seen {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// PrimaryCapability returns the capability an analyst role is responsible
// for, if any.
func PrimaryCapability(role Role) (marketdata.Capability, bool) {
	c, ok := analystCapabilities[role]
	return c, ok
}
