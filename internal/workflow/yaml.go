package workflow

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/engine-agi/engine-core/internal/executor"
)

// Definition is the YAML representation of a workflow.
//
// Example:
//
//	name: triage
//	description: score then route
//	max_parallel: 4
//	vertices:
//	  - id: score
//	    executor: scorer
//	    task:
//	      description: score the input
//	  - id: escalate
//	    executor: notifier
//	edges:
//	  - from: score
//	    to: escalate
//	    kind: conditional
//	    condition: output.score >= 0.8
type Definition struct {
	Name        string      `yaml:"name" validate:"required"`
	Description string      `yaml:"description,omitempty"`
	MaxParallel int         `yaml:"max_parallel,omitempty" validate:"omitempty,min=1"`
	MaxSteps    int         `yaml:"max_supersteps,omitempty" validate:"omitempty,min=1"`
	Timeout     string      `yaml:"default_timeout,omitempty"`
	Vertices    []VertexDef `yaml:"vertices" validate:"required,min=1,dive"`
	Edges       []EdgeDef   `yaml:"edges,omitempty" validate:"dive"`
}

// VertexDef declares one vertex.
type VertexDef struct {
	ID       string         `yaml:"id" validate:"required"`
	Executor string         `yaml:"executor" validate:"required"`
	Task     TaskDef        `yaml:"task,omitempty"`
	Timeout  string         `yaml:"timeout,omitempty"`
	Retry    *RetryDef      `yaml:"retry,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// TaskDef declares the work handed to the vertex's executor.
type TaskDef struct {
	Description string         `yaml:"description,omitempty"`
	Input       map[string]any `yaml:"input,omitempty"`
	Metadata    map[string]any `yaml:"metadata,omitempty"`
}

// RetryDef declares a retry policy.
type RetryDef struct {
	MaxAttempts int     `yaml:"max_attempts" validate:"required,min=1"`
	Backoff     string  `yaml:"backoff,omitempty" validate:"omitempty,oneof=constant linear exponential"`
	Delay       string  `yaml:"delay,omitempty"`
	MaxDelay    string  `yaml:"max_delay,omitempty"`
	Multiplier  float64 `yaml:"multiplier,omitempty" validate:"omitempty,gt=1"`
}

// EdgeDef declares one edge. Kind defaults to plain; conditional edges
// require a condition expression.
type EdgeDef struct {
	From      string         `yaml:"from" validate:"required"`
	To        string         `yaml:"to" validate:"required"`
	Kind      string         `yaml:"kind,omitempty" validate:"omitempty,oneof=plain conditional error"`
	Condition string         `yaml:"condition,omitempty"`
	Metadata  map[string]any `yaml:"metadata,omitempty"`
}

var defValidator = validator.New(validator.WithRequiredStructEnabled())

// ParseDefinition decodes and validates a YAML workflow definition.
func ParseDefinition(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode workflow definition: %w", err)
	}
	if err := defValidator.Struct(&def); err != nil {
		return nil, fmt.Errorf("invalid workflow definition: %w", err)
	}
	for i, e := range def.Edges {
		if e.Kind == "conditional" && e.Condition == "" {
			return nil, fmt.Errorf("invalid workflow definition: edge %d (%s -> %s) is conditional but has no condition", i, e.From, e.To)
		}
	}
	return &def, nil
}

// LoadDefinition reads a definition from a YAML file.
func LoadDefinition(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workflow definition: %w", err)
	}
	defer f.Close()
	return ParseDefinition(f)
}

// ExecutorRegistry resolves executor names from a definition to live
// executors.
type ExecutorRegistry interface {
	Lookup(name string) (executor.Executor, bool)
}

// RegistryMap is a map-backed ExecutorRegistry.
type RegistryMap map[string]executor.Executor

// Lookup implements ExecutorRegistry.
func (m RegistryMap) Lookup(name string) (executor.Executor, bool) {
	e, ok := m[name]
	return e, ok
}

// BuildWorkflow assembles a workflow from a parsed definition,
// resolving executor names through the registry.
func BuildWorkflow(def *Definition, registry ExecutorRegistry) (*Workflow, error) {
	b := NewBuilder(def.Name).WithDescription(def.Description)

	if def.MaxParallel > 0 {
		b.WithMaxParallel(def.MaxParallel)
	}
	if def.MaxSteps > 0 {
		b.WithMaxSupersteps(def.MaxSteps)
	}
	if def.Timeout != "" {
		d, err := time.ParseDuration(def.Timeout)
		if err != nil {
			return nil, fmt.Errorf("default_timeout: %w", err)
		}
		b.WithDefaultTimeout(d)
	}

	for _, vd := range def.Vertices {
		exec, ok := registry.Lookup(vd.Executor)
		if !ok {
			return nil, fmt.Errorf("vertex %q: unknown executor %q", vd.ID, vd.Executor)
		}

		task := executor.Task{
			Description: vd.Task.Description,
			Input:       vd.Task.Input,
			Metadata:    vd.Task.Metadata,
		}

		var opts []VertexOption
		if vd.Timeout != "" {
			d, err := time.ParseDuration(vd.Timeout)
			if err != nil {
				return nil, fmt.Errorf("vertex %q: timeout: %w", vd.ID, err)
			}
			opts = append(opts, WithTimeout(d))
		}
		if vd.Retry != nil {
			policy, err := vd.Retry.policy()
			if err != nil {
				return nil, fmt.Errorf("vertex %q: retry: %w", vd.ID, err)
			}
			opts = append(opts, WithRetry(policy))
		}
		if vd.Metadata != nil {
			opts = append(opts, WithVertexMetadata(vd.Metadata))
		}

		b.AddVertex(vd.ID, exec, task, opts...)
	}

	for _, ed := range def.Edges {
		switch ed.Kind {
		case "", "plain":
			b.AddEdge(ed.From, ed.To)
		case "conditional":
			b.AddConditionalEdgeExpr(ed.From, ed.To, ed.Condition)
		case "error":
			b.AddErrorEdge(ed.From, ed.To)
		}
	}

	return b.Build()
}

func (rd *RetryDef) policy() (RetryPolicy, error) {
	p := RetryPolicy{
		MaxAttempts: rd.MaxAttempts,
		Backoff:     BackoffConstant,
		Multiplier:  rd.Multiplier,
	}
	if rd.Backoff != "" {
		p.Backoff = BackoffStrategy(rd.Backoff)
	}
	if rd.Delay != "" {
		d, err := time.ParseDuration(rd.Delay)
		if err != nil {
			return p, fmt.Errorf("delay: %w", err)
		}
		p.Delay = d
	}
	if rd.MaxDelay != "" {
		d, err := time.ParseDuration(rd.MaxDelay)
		if err != nil {
			return p, fmt.Errorf("max_delay: %w", err)
		}
		p.MaxDelay = d
	}
	return p, nil
}
