package device

import (
	_ "embed"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed quirks.yaml
var quirksYAML []byte

// quirk is a per-device override applied after the generic decision table.
// Substring matches are case-insensitive; empty fields match anything.
type quirk struct {
	Manufacturer      string `yaml:"manufacturer"`
	Model             string `yaml:"model"`
	ForceSafeMode     *bool  `yaml:"force_safe_mode"`
	AdaptiveThreshold *bool  `yaml:"adaptive_threshold"`
	Reason            string `yaml:"reason"`
}

type quirksFile struct {
	Quirks []quirk `yaml:"quirks"`
}

var (
	quirksOnce sync.Once
	quirksList []quirk
)

func loadQuirks() []quirk {
	quirksOnce.Do(func() {
		var f quirksFile
		if err := yaml.Unmarshal(quirksYAML, &f); err != nil {
			slog.Warn("failed to parse embedded device quirks", "error", err)
			return
		}
		quirksList = f.Quirks
	})
	return quirksList
}

func (q quirk) matches(id Identifiers) bool {
	if q.Manufacturer != "" && !strings.Contains(strings.ToLower(id.Manufacturer), q.Manufacturer) {
		return false
	}
	if q.Model != "" && !strings.Contains(strings.ToLower(id.Model), q.Model) {
		return false
	}
	return true
}

func applyQuirks(id Identifiers, profile Profile) Profile {
	for _, q := range loadQuirks() {
		if !q.matches(id) {
			continue
		}
		if q.ForceSafeMode != nil {
			profile.SafeMode = *q.ForceSafeMode
		}
		if q.AdaptiveThreshold != nil {
			profile.UseAdaptiveThreshold = *q.AdaptiveThreshold
		}
		slog.Debug("device quirk applied", "manufacturer", q.Manufacturer,
			"model", q.Model, "reason", q.Reason)
	}
	return profile
}
