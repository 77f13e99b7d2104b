package workflow

import (
	"argus/internal/adapters/ai"
	"argus/internal/adapters/config"
	"argus/internal/agents"
	"argus/internal/tools"
	"argus/pkg/errors"
)

// BuildNodes constructs the LLM node set for a run: the selected analysts
// plus the fixed downstream roles. Model tier follows each role's profile.
func BuildNodes(aiCfg config.AIConfig, client ai.Client, registry *tools.Registry, analysts []agents.Role) (map[agents.Role]agents.Node, error) {
	roles := append([]agents.Role(nil), analysts...)
	roles = append(roles,
		agents.RoleBullResearcher,
		agents.RoleBearResearcher,
		agents.RoleResearchManager,
		agents.RoleTrader,
		agents.RoleRiskyDebater,
		agents.RoleSafeDebater,
		agents.RoleNeutralDebater,
		agents.RoleRiskJudge,
	)

	nodes := make(map[agents.Role]agents.Node, len(roles))
	for _, role := range roles {
		profile, ok := agents.ProfileFor(role)
		if !ok {
			return nil, errors.Wrapf(errors.ErrInternal, "no profile for role %s", role)
		}

		model := aiCfg.QuickThinkModel
		if profile.DeepThinking {
			model = aiCfg.DeepThinkModel
		}

		var schemas []ai.ToolSchema
		if role.IsAnalyst() {
			schemas = registry.SchemasFor(role)
		}

		nodes[role] = agents.NewLLMNode(profile, client, model, aiCfg.MaxTokens, schemas)
	}
	return nodes, nil
}
