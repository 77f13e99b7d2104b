package agents

import (
	"context"
	"time"

	"argus/internal/marketdata"
	"argus/internal/regime"
)

// OutputKind tags the variant of a node's output.
type OutputKind int

const (
	// KindToolCall requests one on-demand data fetch. Only analysts emit it.
	KindToolCall OutputKind = iota
	// KindMessage is a terminal message for the node's current turn.
	KindMessage
	// KindVerdict closes a phase with a decision. Only judge roles emit it.
	KindVerdict
)

// String returns the variant name.
func (k OutputKind) String() string {
	switch k {
	case KindToolCall:
		return "tool_call"
	case KindMessage:
		return "message"
	case KindVerdict:
		return "verdict"
	default:
		return "unknown"
	}
}

// ToolCallRequest asks the orchestrator to execute one capability fetch.
type ToolCallRequest struct {
	Capability marketdata.Capability `json:"capability"`
	Args       map[string]string     `json:"args,omitempty"`
}

// NodeOutput is the tagged result of one node step.
type NodeOutput struct {
	Kind     OutputKind
	ToolCall *ToolCallRequest
	Content  string
}

// ToolCallOutput builds a tool-call output.
func ToolCallOutput(cap marketdata.Capability, args map[string]string) NodeOutput {
	return NodeOutput{Kind: KindToolCall, ToolCall: &ToolCallRequest{Capability: cap, Args: args}}
}

// MessageOutput builds a message output.
func MessageOutput(content string) NodeOutput {
	return NodeOutput{Kind: KindMessage, Content: content}
}

// VerdictOutput builds a verdict output.
func VerdictOutput(decision string) NodeOutput {
	return NodeOutput{Kind: KindVerdict, Content: decision}
}

// Turn is one entry of a conversation transcript.
type Turn struct {
	Speaker      Role             `json:"speaker"`
	Content      string           `json:"content"`
	ToolCall     *ToolCallRequest `json:"tool_call,omitempty"`
	IsToolResult bool             `json:"is_tool_result,omitempty"`
	At           time.Time        `json:"at"`
}

// View is a read-only window over a transcript. Nodes receive views and
// return outputs; they never mutate shared state directly.
type View struct {
	turns []Turn
}

// NewView wraps a transcript slice. The orchestrator retains ownership; the
// view copies on read.
func NewView(turns []Turn) View {
	return View{turns: turns}
}

// Turns returns a copy of the visible transcript.
func (v View) Turns() []Turn {
	out := make([]Turn, len(v.turns))
	copy(out, v.turns)
	return out
}

// Len returns the number of visible turns.
func (v View) Len() int { return len(v.turns) }

// RunContext is the read-only per-run context handed to every node step.
type RunContext struct {
	Symbol    string
	TradeDate time.Time
	Ledger    *marketdata.FactLedger
	Regime    *regime.Metrics
}

// Node is the shared contract for every agent variant. Role-specific behavior
// comes from configuration data (profiles), not subtypes.
type Node interface {
	Role() Role
	Step(ctx context.Context, view View, rc RunContext) (NodeOutput, error)
}
