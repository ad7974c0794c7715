package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// TeamStrategy selects how a team coordinates its members for one task.
// The strategy is resolved entirely inside the adapter: the engine only
// ever sees the single combined Result.
type TeamStrategy string

const (
	// StrategyParallel runs all members concurrently and merges their
	// outputs. Any member failure fails the task.
	StrategyParallel TeamStrategy = "parallel"

	// StrategySequential pipes members in order; each member sees the
	// accumulated output of the members before it.
	StrategySequential TeamStrategy = "sequential"

	// StrategyVote runs all members concurrently and picks the most
	// common output. Ties resolve to the earliest member in team order.
	StrategyVote TeamStrategy = "vote"
)

// TeamExecutor adapts a coordinated group of agents to the Executor
// interface.
type TeamExecutor struct {
	name     string
	members  []Agent
	strategy TeamStrategy
}

// NewTeamExecutor creates a team executor. It returns an error for an
// empty member list or an unknown strategy so misconfiguration surfaces
// at wiring time rather than mid-run.
func NewTeamExecutor(name string, strategy TeamStrategy, members ...Agent) (*TeamExecutor, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("team %q must have at least one member", name)
	}
	switch strategy {
	case StrategyParallel, StrategySequential, StrategyVote:
	default:
		return nil, fmt.Errorf("team %q: unknown strategy %q", name, strategy)
	}
	return &TeamExecutor{name: name, members: members, strategy: strategy}, nil
}

// Name returns the team name.
func (t *TeamExecutor) Name() string { return t.name }

// Execute coordinates the members according to the team strategy and
// returns exactly one combined result or one error.
func (t *TeamExecutor) Execute(ctx context.Context, task Task, snapshot map[string]any) (*Result, error) {
	switch t.strategy {
	case StrategySequential:
		return t.runSequential(ctx, task, snapshot)
	case StrategyVote:
		return t.runVote(ctx, task, snapshot)
	default:
		return t.runParallel(ctx, task, snapshot)
	}
}

func (t *TeamExecutor) runParallel(ctx context.Context, task Task, snapshot map[string]any) (*Result, error) {
	outputs := make([]map[string]any, len(t.members))
	errs := make([]error, len(t.members))

	var wg sync.WaitGroup
	for i, member := range t.members {
		wg.Add(1)
		go func(idx int, m Agent) {
			defer wg.Done()
			outputs[idx], errs[idx] = m.Run(ctx, task.Description, task.Input, snapshot)
		}(i, member)
	}
	wg.Wait()

	merged := make(map[string]any)
	for i, member := range t.members {
		if errs[i] != nil {
			return nil, fmt.Errorf("team %s: member %s: %w", t.name, member.ID(), errs[i])
		}
		for k, v := range outputs[i] {
			merged[k] = v
		}
	}

	return &Result{
		Output: merged,
		Metadata: map[string]any{
			"team":     t.name,
			"strategy": string(t.strategy),
			"members":  len(t.members),
		},
	}, nil
}

func (t *TeamExecutor) runSequential(ctx context.Context, task Task, snapshot map[string]any) (*Result, error) {
	// Each member sees the original input overlaid with everything the
	// previous members produced.
	input := make(map[string]any, len(task.Input))
	for k, v := range task.Input {
		input[k] = v
	}

	accumulated := make(map[string]any)
	for _, member := range t.members {
		output, err := member.Run(ctx, task.Description, input, snapshot)
		if err != nil {
			return nil, fmt.Errorf("team %s: member %s: %w", t.name, member.ID(), err)
		}
		for k, v := range output {
			input[k] = v
			accumulated[k] = v
		}
	}

	return &Result{
		Output: accumulated,
		Metadata: map[string]any{
			"team":     t.name,
			"strategy": string(t.strategy),
			"members":  len(t.members),
		},
	}, nil
}

func (t *TeamExecutor) runVote(ctx context.Context, task Task, snapshot map[string]any) (*Result, error) {
	outputs := make([]map[string]any, len(t.members))
	errs := make([]error, len(t.members))

	var wg sync.WaitGroup
	for i, member := range t.members {
		wg.Add(1)
		go func(idx int, m Agent) {
			defer wg.Done()
			outputs[idx], errs[idx] = m.Run(ctx, task.Description, task.Input, snapshot)
		}(i, member)
	}
	wg.Wait()

	// Ballots are keyed by the canonical JSON form of each output.
	votes := make(map[string]int)
	first := make(map[string]int)
	for i, member := range t.members {
		if errs[i] != nil {
			return nil, fmt.Errorf("team %s: member %s: %w", t.name, member.ID(), errs[i])
		}
		key := canonicalKey(outputs[i])
		votes[key]++
		if _, seen := first[key]; !seen {
			first[key] = i
		}
	}

	winner := -1
	best := 0
	for key, count := range votes {
		idx := first[key]
		if count > best || (count == best && (winner == -1 || idx < winner)) {
			best = count
			winner = idx
		}
	}

	return &Result{
		Output: outputs[winner],
		Metadata: map[string]any{
			"team":     t.name,
			"strategy": string(t.strategy),
			"members":  len(t.members),
			"votes":    best,
		},
	}, nil
}

// canonicalKey renders an output map to a stable comparison key.
// json.Marshal sorts map keys, which is all the canonicalization a
// ballot needs.
func canonicalKey(output map[string]any) string {
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf("%v", output)
	}
	return string(data)
}
