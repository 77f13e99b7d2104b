package agents

import (
	"context"

	"argus/pkg/errors"
)

// ScriptedNode replays a fixed output sequence. It backs workflow tests and
// dry runs where no LLM is reachable.
type ScriptedNode struct {
	role    Role
	outputs []NodeOutput
	next    int
}

// NewScriptedNode builds a node that yields the given outputs in order.
func NewScriptedNode(role Role, outputs ...NodeOutput) *ScriptedNode {
	return &ScriptedNode{role: role, outputs: outputs}
}

// Role returns the scripted role.
func (n *ScriptedNode) Role() Role { return n.role }

// Step returns the next scripted output. Once the script is exhausted the
// last output repeats, so round counts beyond the script length stay valid.
func (n *ScriptedNode) Step(_ context.Context, _ View, _ RunContext) (NodeOutput, error) {
	if len(n.outputs) == 0 {
		return NodeOutput{}, errors.Wrapf(errors.ErrInternal, "scripted node %s has no outputs", n.role)
	}
	out := n.outputs[n.next]
	if n.next < len(n.outputs)-1 {
		n.next++
	}
	return out, nil
}

// Calls reports how many distinct script entries have been consumed.
func (n *ScriptedNode) Calls() int { return n.next }
