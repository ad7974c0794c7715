package executor

import (
	"context"
	"fmt"
)

// Agent is the minimal surface the engine requires from an individual
// agent. What the agent actually computes (LLM calls, tool use, memory)
// is outside this package's concern.
type Agent interface {
	// ID identifies the agent.
	ID() string

	// Run performs the instructed work against the given input and
	// context snapshot and returns a structured output.
	Run(ctx context.Context, instruction string, input map[string]any, snapshot map[string]any) (map[string]any, error)
}

// AgentExecutor adapts a single Agent to the Executor interface.
type AgentExecutor struct {
	agent Agent
}

// NewAgentExecutor wraps an agent as an Executor.
func NewAgentExecutor(agent Agent) *AgentExecutor {
	return &AgentExecutor{agent: agent}
}

// Name returns the underlying agent's ID.
func (a *AgentExecutor) Name() string { return a.agent.ID() }

// Execute delegates the task to the agent.
func (a *AgentExecutor) Execute(ctx context.Context, task Task, snapshot map[string]any) (*Result, error) {
	output, err := a.agent.Run(ctx, task.Description, task.Input, snapshot)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.agent.ID(), err)
	}

	return &Result{
		Output: output,
		Metadata: map[string]any{
			"agent_id": a.agent.ID(),
		},
	}, nil
}
