package skills

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/metrics"
)

func newEchoSkill(name string, tools ...string) *BaseSkill {
	skill := NewBaseSkill(name, "test skill", "0.1.0")
	for _, tool := range tools {
		skill.AddTool(Tool{
			Name:        tool,
			Description: "echoes its arguments",
			Parameters:  map[string]interface{}{"type": "object"},
			Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				if args["fail"] == true {
					return nil, errors.New("asked to fail")
				}
				return args, nil
			},
		})
	}
	return skill
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(nil)

	require.NoError(t, r.Register(newEchoSkill("b", "echo_b")))
	require.NoError(t, r.Register(newEchoSkill("a", "echo_a", "echo_a2")))

	assert.Error(t, r.Register(newEchoSkill("a", "other")), "duplicate skill name")
	assert.Error(t, r.Register(newEchoSkill("c", "echo_b")), "tool already owned")

	skills := r.ListSkills()
	require.Len(t, skills, 2)
	assert.Equal(t, "a", skills[0].Name())

	var names []string
	for _, tool := range r.ListTools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"echo_a", "echo_a2", "echo_b"}, names)

	_, ok := r.GetTool("other")
	assert.False(t, ok, "rejected skill leaves no tools behind")
}

func TestRegistry_Execute(t *testing.T) {
	m := metrics.New()
	r := NewRegistry(m)
	skill := newEchoSkill("echo", "echo")
	require.NoError(t, r.Register(skill))
	ctx := context.Background()

	result, err := r.Execute(ctx, "echo", map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"x": 1}, result)

	_, err = r.Execute(ctx, "echo", map[string]interface{}{"fail": true})
	assert.Error(t, err)

	_, err = r.Execute(ctx, "missing", nil)
	assert.ErrorIs(t, err, apperrors.ErrToolNotFound)

	require.NoError(t, skill.Disable())
	_, err = r.Execute(ctx, "echo", nil)
	assert.ErrorIs(t, err, apperrors.ErrSkillExecution)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.ToolCallsSuccess)
	assert.Equal(t, int64(1), snap.ToolCallsFailed)
}

func TestRegistry_ExecuteTool(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(newEchoSkill("echo", "echo")))
	ctx := context.Background()

	result, err := r.ExecuteTool(ctx, "echo", json.RawMessage(`{"name":"Aspirin"}`))
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", result.(map[string]interface{})["name"])

	result, err = r.ExecuteTool(ctx, "echo", nil)
	require.NoError(t, err)
	assert.Empty(t, result)

	_, err = r.ExecuteTool(ctx, "echo", json.RawMessage(`{not json`))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestRegistry_GetToolDefinitions(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(newEchoSkill("echo", "echo")))

	defs := r.GetToolDefinitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0]["type"])
	fn := defs[0]["function"].(map[string]interface{})
	assert.Equal(t, "echo", fn["name"])
}
