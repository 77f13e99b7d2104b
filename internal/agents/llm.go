package agents

import (
	"context"
	"fmt"
	"strings"

	"argus/internal/adapters/ai"
	"argus/internal/marketdata"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// LLMNode runs a role profile against an LLM client. One implementation
// serves every role; analysts additionally receive tool schemas so the model
// can request data fetches.
type LLMNode struct {
	profile   Profile
	client    ai.Client
	model     string
	maxTokens int
	tools     []ai.ToolSchema
	log       *logger.Logger
}

// NewLLMNode builds a node for the given profile. The tools slice should be
// empty for non-analyst roles.
func NewLLMNode(profile Profile, client ai.Client, model string, maxTokens int, tools []ai.ToolSchema) *LLMNode {
	return &LLMNode{
		profile:   profile,
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		tools:     tools,
		log:       logger.Get().With("component", "agent", "role", string(profile.Role)),
	}
}

// Role returns the node's role.
func (n *LLMNode) Role() Role { return n.profile.Role }

// Step runs one completion against the visible transcript.
func (n *LLMNode) Step(ctx context.Context, view View, rc RunContext) (NodeOutput, error) {
	req := ai.CompletionRequest{
		Model:       n.model,
		System:      n.systemPrompt(rc),
		Messages:    n.buildMessages(view),
		MaxTokens:   n.maxTokens,
		Temperature: n.profile.Temperature,
	}
	if n.profile.Role.IsAnalyst() {
		req.Tools = n.tools
	}

	resp, err := n.client.Complete(ctx, req)
	if err != nil {
		return NodeOutput{}, errors.Wrapf(err, "%s completion failed", n.profile.Role)
	}
	n.log.Debugf("completion: %d prompt tokens, %d completion tokens",
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.ToolCalls) > 0 && n.profile.Role.IsAnalyst() {
		tc := resp.ToolCalls[0]
		return ToolCallOutput(marketdata.Capability(tc.Name), tc.Args), nil
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return NodeOutput{}, errors.Wrapf(errors.ErrInternal, "%s returned an empty completion", n.profile.Role)
	}

	if n.profile.Role.IsJudge() {
		return VerdictOutput(content), nil
	}
	return MessageOutput(content), nil
}

// systemPrompt combines the role instruction with the per-run framing.
func (n *LLMNode) systemPrompt(rc RunContext) string {
	var b strings.Builder
	b.WriteString(n.profile.System)

	fmt.Fprintf(&b, "\n\nTicker under review: %s. Trade date: %s.",
		rc.Symbol, rc.TradeDate.Format("2006-01-02"))

	if rc.Regime != nil {
		fmt.Fprintf(&b, "\nDetected market regime: %s.", rc.Regime.Describe())
	}
	if rc.Ledger != nil {
		caps := rc.Ledger.Capabilities()
		if len(caps) > 0 {
			names := make([]string, len(caps))
			for i, c := range caps {
				names[i] = string(c)
			}
			fmt.Fprintf(&b, "\nData on file: %s.", strings.Join(names, ", "))
		}
	}
	return b.String()
}

// buildMessages maps the transcript onto the chat contract: this node's own
// turns become assistant messages, everything else arrives as user messages
// attributed to the speaker. Tool results are framed as data deliveries.
func (n *LLMNode) buildMessages(view View) []ai.Message {
	turns := view.Turns()
	msgs := make([]ai.Message, 0, len(turns)+1)

	for _, t := range turns {
		switch {
		case t.Speaker == n.profile.Role && !t.IsToolResult:
			msgs = append(msgs, ai.Message{Role: "assistant", Content: t.Content})
		case t.IsToolResult:
			msgs = append(msgs, ai.Message{
				Role:    "user",
				Content: fmt.Sprintf("[data delivery]\n%s", t.Content),
			})
		default:
			msgs = append(msgs, ai.Message{
				Role:    "user",
				Content: fmt.Sprintf("[%s] %s", t.Speaker, t.Content),
			})
		}
	}

	if len(msgs) == 0 || msgs[len(msgs)-1].Role != "user" {
		msgs = append(msgs, ai.Message{Role: "user", Content: "Proceed with your contribution."})
	}
	return msgs
}
