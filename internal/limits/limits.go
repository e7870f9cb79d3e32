// Package limits holds the work item quantity policy for backlog generation.
//
// A Limits value caps how many items the generation pipeline may produce at
// each level of the Azure DevOps hierarchy (Epic → Feature → User Story →
// Task / Test Case). Unset fields mean "no cap at that level". Validation is
// advisory: ceilings produce warnings, nothing is clamped.
package limits

import (
	"fmt"
	"sort"
)

// Static ceilings for each limit field. Exceeding a ceiling marks the
// limits invalid but does not prevent their use.
const (
	CeilingEpics                 = 50
	CeilingFeaturesPerEpic       = 30
	CeilingUserStoriesPerFeature = 40
	CeilingTasksPerUserStory     = 25
	CeilingTestCasesPerUserStory = 25
)

// Hierarchy level keys used in MaxPossibleItems projections.
const (
	LevelEpics       = "epics"
	LevelFeatures    = "features"
	LevelUserStories = "user_stories"
	LevelTasks       = "tasks"
	LevelTestCases   = "test_cases"
	LevelTotal       = "total"
)

// Limits caps generated work item counts per hierarchy level.
// A nil field means unlimited at that level.
type Limits struct {
	MaxEpics                 *int `yaml:"max_epics,omitempty" json:"max_epics,omitempty"`
	MaxFeaturesPerEpic       *int `yaml:"max_features_per_epic,omitempty" json:"max_features_per_epic,omitempty"`
	MaxUserStoriesPerFeature *int `yaml:"max_user_stories_per_feature,omitempty" json:"max_user_stories_per_feature,omitempty"`
	MaxTasksPerUserStory     *int `yaml:"max_tasks_per_user_story,omitempty" json:"max_tasks_per_user_story,omitempty"`
	MaxTestCasesPerUserStory *int `yaml:"max_test_cases_per_user_story,omitempty" json:"max_test_cases_per_user_story,omitempty"`
}

// ValidationResult carries the outcome of Validate.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
}

// ceilingCheck pairs a limit field with its ceiling for validation.
type ceilingCheck struct {
	name    string
	value   *int
	ceiling int
}

func (l *Limits) ceilingChecks() []ceilingCheck {
	return []ceilingCheck{
		{"max_epics", l.MaxEpics, CeilingEpics},
		{"max_features_per_epic", l.MaxFeaturesPerEpic, CeilingFeaturesPerEpic},
		{"max_user_stories_per_feature", l.MaxUserStoriesPerFeature, CeilingUserStoriesPerFeature},
		{"max_tasks_per_user_story", l.MaxTasksPerUserStory, CeilingTasksPerUserStory},
		{"max_test_cases_per_user_story", l.MaxTestCasesPerUserStory, CeilingTestCasesPerUserStory},
	}
}

// Validate checks every set field against its static ceiling and flags
// negative values. The warnings are advisory; callers decide whether to
// proceed. Valid is false exactly when at least one warning was produced.
func (l *Limits) Validate() ValidationResult {
	result := ValidationResult{Valid: true, Warnings: []string{}}

	for _, c := range l.ceilingChecks() {
		if c.value == nil {
			continue
		}
		switch {
		case *c.value < 0:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s is negative (%d); treat as unset instead", c.name, *c.value))
		case *c.value > c.ceiling:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s %d exceeds ceiling %d", c.name, *c.value, c.ceiling))
		}
	}

	result.Valid = len(result.Warnings) == 0
	return result
}

// MaxPossibleItems projects the cartesian-product upper bound of generated
// items per hierarchy level, plus a "total" key summing the bounded levels.
//
// The projection requires a bounded epic count: when MaxEpics is unset the
// result is an empty map. Levels below the first unset per-parent limit are
// omitted, since their bound is infinite.
func (l *Limits) MaxPossibleItems() map[string]int {
	out := map[string]int{}
	if l.MaxEpics == nil {
		return out
	}

	epics := *l.MaxEpics
	out[LevelEpics] = epics
	total := epics

	if l.MaxFeaturesPerEpic == nil {
		out[LevelTotal] = total
		return out
	}
	features := epics * *l.MaxFeaturesPerEpic
	out[LevelFeatures] = features
	total += features

	if l.MaxUserStoriesPerFeature == nil {
		out[LevelTotal] = total
		return out
	}
	stories := features * *l.MaxUserStoriesPerFeature
	out[LevelUserStories] = stories
	total += stories

	if l.MaxTasksPerUserStory != nil {
		tasks := stories * *l.MaxTasksPerUserStory
		out[LevelTasks] = tasks
		total += tasks
	}
	if l.MaxTestCasesPerUserStory != nil {
		testCases := stories * *l.MaxTestCasesPerUserStory
		out[LevelTestCases] = testCases
		total += testCases
	}

	out[LevelTotal] = total
	return out
}

// Describe renders the limits as "field=value" pairs for display,
// with unset fields shown as unlimited.
func (l *Limits) Describe() []string {
	var lines []string
	for _, c := range l.ceilingChecks() {
		if c.value == nil {
			lines = append(lines, fmt.Sprintf("%s=unlimited", c.name))
		} else {
			lines = append(lines, fmt.Sprintf("%s=%d", c.name, *c.value))
		}
	}
	sort.Strings(lines)
	return lines
}

func intPtr(v int) *int { return &v }
