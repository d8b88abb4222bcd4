package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/metrics"
)

// Skill groups a set of tools behind a name that can be toggled
type Skill interface {
	Name() string
	Description() string
	Version() string
	Tools() []Tool
	IsEnabled() bool
	Enable() error
	Disable() error
}

// Tool represents a tool provided by a skill
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
	Handler     ToolHandler            `json:"-"`
}

// ToolHandler is the function that executes a tool
type ToolHandler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Registry manages all skills
type Registry struct {
	skills  map[string]Skill
	tools   map[string]Tool
	owners  map[string]string
	mu      sync.RWMutex
	metrics *metrics.Metrics
}

// NewRegistry creates a new skill registry. A nil m records nothing.
func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		skills:  make(map[string]Skill),
		tools:   make(map[string]Tool),
		owners:  make(map[string]string),
		metrics: m,
	}
}

// Register adds a skill and its tools to the registry
func (r *Registry) Register(skill Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := skill.Name()
	if _, exists := r.skills[name]; exists {
		return fmt.Errorf("skill %s already registered", name)
	}
	for _, tool := range skill.Tools() {
		if owner, taken := r.owners[tool.Name]; taken {
			return fmt.Errorf("tool %s already provided by skill %s", tool.Name, owner)
		}
	}

	r.skills[name] = skill
	for _, tool := range skill.Tools() {
		r.tools[tool.Name] = tool
		r.owners[tool.Name] = name
	}

	return nil
}

// GetSkill retrieves a skill by name
func (r *Registry) GetSkill(name string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	skill, ok := r.skills[name]
	return skill, ok
}

// GetTool retrieves a tool by name
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// ExecuteTool runs a tool with JSON encoded arguments
func (r *Registry) ExecuteTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	argsMap := map[string]interface{}{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &argsMap); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrBadRequest.Code, "failed to parse tool arguments")
		}
	}
	return r.Execute(ctx, name, argsMap)
}

// Execute runs a tool with already decoded arguments
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	skill := r.skills[r.owners[name]]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.New(apperrors.ErrToolNotFound.Code, fmt.Sprintf("tool not found: %s", name))
	}
	if !skill.IsEnabled() {
		return nil, apperrors.New(apperrors.ErrSkillExecution.Code, fmt.Sprintf("skill %s is disabled", skill.Name()))
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := tool.Handler(ctx, args)
	if r.metrics != nil {
		r.metrics.RecordToolCall(name, err == nil)
	}
	return result, err
}

// ListSkills returns all registered skills ordered by name
func (r *Registry) ListSkills() []Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skills := make([]Skill, 0, len(r.skills))
	for _, skill := range r.skills {
		skills = append(skills, skill)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name() < skills[j].Name() })
	return skills
}

// ListTools returns all available tools ordered by name
func (r *Registry) ListTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// GetToolDefinitions returns function-calling style tool definitions
func (r *Registry) GetToolDefinitions() []map[string]interface{} {
	tools := r.ListTools()

	defs := make([]map[string]interface{}, 0, len(tools))
	for _, tool := range tools {
		defs = append(defs, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  tool.Parameters,
			},
		})
	}
	return defs
}

// BaseSkill provides a base implementation for skills
type BaseSkill struct {
	name        string
	description string
	version     string
	enabled     bool
	tools       []Tool
	mu          sync.RWMutex
}

func (s *BaseSkill) Name() string        { return s.name }
func (s *BaseSkill) Description() string { return s.description }
func (s *BaseSkill) Version() string     { return s.version }
func (s *BaseSkill) Tools() []Tool       { return s.tools }

func (s *BaseSkill) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

func (s *BaseSkill) Enable() error {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
	return nil
}

func (s *BaseSkill) Disable() error {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
	return nil
}

// NewBaseSkill creates a new enabled base skill
func NewBaseSkill(name, description, version string) *BaseSkill {
	return &BaseSkill{
		name:        name,
		description: description,
		version:     version,
		enabled:     true,
		tools:       []Tool{},
	}
}

// AddTool adds a tool to the skill. Tools must be added before Register.
func (s *BaseSkill) AddTool(tool Tool) {
	s.tools = append(s.tools, tool)
}
