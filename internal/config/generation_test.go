package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiplierDefaultsForUnknownAgents(t *testing.T) {
	g := GenerationConfig{}
	for _, agent := range []string{"", "unknown", "EPIC_STRATEGIST", "supervisor"} {
		assert.Equal(t, 2.0, g.Multiplier(agent), "agent %q", agent)
	}
}

func TestMultiplierBuiltinTable(t *testing.T) {
	g := GenerationConfig{}
	assert.Equal(t, 1.5, g.Multiplier("epic_strategist"))
	assert.Equal(t, 3.0, g.Multiplier("qa_tester"))
}

func TestMultiplierConfigOverridesBuiltin(t *testing.T) {
	g := GenerationConfig{Multipliers: map[string]float64{"epic_strategist": 4.0}}
	assert.Equal(t, 4.0, g.Multiplier("epic_strategist"))
	// Other agents still use the built-in table.
	assert.Equal(t, 3.0, g.Multiplier("qa_tester"))
}

func TestGenerationCountNeverBelowTarget(t *testing.T) {
	g := GenerationConfig{Multipliers: map[string]float64{"shrinker": 0.5}}
	for target := 0; target <= 20; target++ {
		for _, agent := range []string{"epic_strategist", "qa_tester", "unknown", "shrinker"} {
			got := g.GenerationCount(agent, target)
			if got < target {
				t.Fatalf("GenerationCount(%q, %d) = %d, below target", agent, target, got)
			}
		}
	}
}

func TestGenerationCountRounds(t *testing.T) {
	g := GenerationConfig{}
	// epic_strategist multiplier 1.5: 3 * 1.5 = 4.5 rounds to 5 (half away from zero)
	assert.Equal(t, 5, g.GenerationCount("epic_strategist", 3))
	// unknown agent: 7 * 2.0 = 14
	assert.Equal(t, 14, g.GenerationCount("unknown", 7))
	// qa_tester multiplier 3.0: 4 * 3 = 12
	assert.Equal(t, 12, g.GenerationCount("qa_tester", 4))
}

func TestGenerationCountZeroAndNegativeTarget(t *testing.T) {
	g := GenerationConfig{}
	assert.Equal(t, 0, g.GenerationCount("epic_strategist", 0))
	assert.Equal(t, 0, g.GenerationCount("epic_strategist", -3))
}

func TestKnownAgentsCoverBuiltinTable(t *testing.T) {
	agents := KnownAgents()
	assert.Len(t, agents, len(builtinMultipliers))
	g := GenerationConfig{}
	for _, a := range agents {
		assert.NotZero(t, g.Multiplier(a))
	}
}
