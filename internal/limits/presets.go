package limits

import "sort"

// presets are the named limit profiles exposed to operators. The values are
// fixed; changing them changes the advertised meaning of the preset names.
var presets = map[string]Limits{
	"small": {
		MaxEpics:                 intPtr(2),
		MaxFeaturesPerEpic:       intPtr(3),
		MaxUserStoriesPerFeature: intPtr(3),
		MaxTasksPerUserStory:     intPtr(4),
		MaxTestCasesPerUserStory: intPtr(2),
	},
	"medium": {
		MaxEpics:                 intPtr(5),
		MaxFeaturesPerEpic:       intPtr(5),
		MaxUserStoriesPerFeature: intPtr(5),
		MaxTasksPerUserStory:     intPtr(6),
		MaxTestCasesPerUserStory: intPtr(3),
	},
	"large": {
		MaxEpics:                 intPtr(10),
		MaxFeaturesPerEpic:       intPtr(8),
		MaxUserStoriesPerFeature: intPtr(8),
		MaxTasksPerUserStory:     intPtr(8),
		MaxTestCasesPerUserStory: intPtr(4),
	},
	// unlimited leaves every level uncapped.
	"unlimited": {},
}

// Preset returns a copy of the named preset, or nil when no preset with
// that name exists.
func Preset(name string) *Limits {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	// Copy pointer fields so callers can't mutate the preset table.
	cp := Limits{}
	if p.MaxEpics != nil {
		cp.MaxEpics = intPtr(*p.MaxEpics)
	}
	if p.MaxFeaturesPerEpic != nil {
		cp.MaxFeaturesPerEpic = intPtr(*p.MaxFeaturesPerEpic)
	}
	if p.MaxUserStoriesPerFeature != nil {
		cp.MaxUserStoriesPerFeature = intPtr(*p.MaxUserStoriesPerFeature)
	}
	if p.MaxTasksPerUserStory != nil {
		cp.MaxTasksPerUserStory = intPtr(*p.MaxTasksPerUserStory)
	}
	if p.MaxTestCasesPerUserStory != nil {
		cp.MaxTestCasesPerUserStory = intPtr(*p.MaxTestCasesPerUserStory)
	}
	return &cp
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
