package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engine-agi/engine-core/internal/executor"
)

func TestEvalCondition(t *testing.T) {
	result := &executor.Result{
		Output: map[string]any{
			"score":    0.85,
			"severity": "critical",
			"approved": true,
			"count":    int64(3),
			"findings": []any{"sqli", "xss"},
			"empty":    []any{},
			"nested":   map[string]any{"depth": float64(2)},
		},
		Metadata: map[string]any{"kind": "scan"},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`output.score >= 0.8`, true},
		{`output.score > 0.9`, false},
		{`output.severity == "critical"`, true},
		{`output.severity != "critical"`, false},
		{`output.approved`, true},
		{`!output.approved`, false},
		{`output.count == 3`, true},
		{`output.count < 2`, false},
		{`output.score >= 0.8 && output.severity == "critical"`, true},
		{`output.score > 0.9 || output.approved`, true},
		{`(output.score > 0.9 || output.approved) && output.count == 3`, true},
		{`len(output.findings) > 1`, true},
		{`len(output.severity) == 8`, true},
		{`empty(output.empty)`, true},
		{`!empty(output.findings)`, true},
		{`empty(output.missing)`, true},
		{`exists(output.score)`, true},
		{`exists(output.missing)`, false},
		{`output.findings[0] == "sqli"`, true},
		{`output.nested.depth == 2`, true},
		{`metadata.kind == "scan"`, true},
		{`status == "succeeded"`, true},
		{`true`, true},
		{`false || true`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := EvalCondition(tt.expr, result)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalConditionErrors(t *testing.T) {
	result := &executor.Result{Output: map[string]any{"n": float64(1)}}

	tests := []struct {
		name string
		expr string
	}{
		{"unterminated string", `output.n == "x`},
		{"unexpected character", `output.n @ 1`},
		{"non-boolean result", `output.n`},
		{"unknown root", `inputs.n == 1`},
		{"unknown function", `shout(output.n)`},
		{"dangling operator", `output.n ==`},
		{"boolean operand mismatch", `output.n && true`},
		{"trailing tokens", `true true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvalCondition(tt.expr, result)
			assert.Error(t, err)
		})
	}
}

func TestCompileCondition(t *testing.T) {
	pred, err := CompileCondition(`output.score >= 0.5`)
	require.NoError(t, err)

	assert.True(t, pred(&executor.Result{Output: map[string]any{"score": 0.7}}))
	assert.False(t, pred(&executor.Result{Output: map[string]any{"score": 0.2}}))

	// Evaluation failures do not fire the edge.
	assert.False(t, pred(&executor.Result{Output: map[string]any{"score": "high"}}))
	assert.False(t, pred(nil))

	_, err = CompileCondition("")
	assert.Error(t, err)

	_, err = CompileCondition(`output.x == "unterminated`)
	assert.Error(t, err)
}
