package config

import "math"

// DefaultMultiplier is applied to any agent with no table entry.
const DefaultMultiplier = 2.0

// builtinMultipliers inflate per-agent target counts before generation so
// that post-generation quality filtering still leaves enough items. The
// values reflect observed rejection rates per agent: test case candidates
// are discarded far more often than epics.
var builtinMultipliers = map[string]float64{
	"epic_strategist":       1.5,
	"feature_decomposer":    2.0,
	"user_story_decomposer": 2.5,
	"developer":             2.0,
	"qa_tester":             3.0,
}

// GenerationConfig tunes the generation inflation policy. Multipliers set
// here override the built-in table per agent.
type GenerationConfig struct {
	Multipliers map[string]float64 `yaml:"multipliers,omitempty"`
}

// Multiplier returns the generation multiplier for an agent. Configured
// overrides win over the built-in table; unknown agents get
// DefaultMultiplier.
func (g GenerationConfig) Multiplier(agent string) float64 {
	if m, ok := g.Multipliers[agent]; ok {
		return m
	}
	if m, ok := builtinMultipliers[agent]; ok {
		return m
	}
	return DefaultMultiplier
}

// GenerationCount returns how many items to ask the agent for so that,
// after filtering, at least target items are expected to survive. The
// result is never below target.
func (g GenerationConfig) GenerationCount(agent string, target int) int {
	if target <= 0 {
		return 0
	}
	inflated := int(math.Round(float64(target) * g.Multiplier(agent)))
	if inflated < target {
		return target
	}
	return inflated
}

// KnownAgents returns the agents present in the built-in table.
func KnownAgents() []string {
	agents := make([]string, 0, len(builtinMultipliers))
	for a := range builtinMultipliers {
		agents = append(agents, a)
	}
	return agents
}
