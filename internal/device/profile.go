// Package device derives the process-wide capability profile that gates
// crash-prone algorithm variants (adaptive thresholding, native perspective
// warp) on hardware known to mishandle them.
package device

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Identifiers holds the static platform identifiers the profile is
// derived from. They are treated as opaque, already-resolved inputs.
type Identifiers struct {
	Manufacturer string
	Model        string
	Device       string
	SDKVersion   int
}

// Profile is the immutable capability profile consumed by the detectors
// and the rectifier. It is computed once and never mutated.
type Profile struct {
	// SafeMode disables the exact perspective warp in favor of an
	// affine approximation that cannot hit unsupported CPU instructions.
	SafeMode bool
	// UseAdaptiveThreshold permits the adaptive threshold path in the
	// geometric detector. When false only the global Otsu path may run.
	UseAdaptiveThreshold bool
}

const minHighEndSDK = 29

// Detect derives a Profile from platform identifiers. The decision table
// mirrors the shipped scanner: only recent, known-good vendors run the
// full-fidelity paths, and emulator-ish identifiers always force safe mode.
func Detect(id Identifiers) Profile {
	manufacturer := strings.ToLower(id.Manufacturer)
	model := strings.ToLower(id.Model)
	dev := strings.ToLower(id.Device)

	highEnd := id.SDKVersion >= minHighEndSDK &&
		!strings.Contains(manufacturer, "mediatek") &&
		!strings.Contains(manufacturer, "spreadtrum") &&
		!strings.Contains(dev, "generic") &&
		!strings.Contains(model, "emulator") &&
		!strings.Contains(dev, "x86") &&
		(strings.Contains(manufacturer, "google") ||
			strings.Contains(manufacturer, "samsung") ||
			strings.Contains(manufacturer, "xiaomi"))

	emulator := strings.Contains(dev, "emu") ||
		strings.Contains(model, "sdk") ||
		strings.Contains(model, "emulator") ||
		strings.Contains(model, "virtual") ||
		strings.Contains(manufacturer, "genymotion") ||
		strings.Contains(model, "generator")

	profile := Profile{
		SafeMode:             !highEnd || emulator,
		UseAdaptiveThreshold: highEnd,
	}
	profile = applyQuirks(id, profile)

	slog.Debug("device profile resolved",
		"manufacturer", manufacturer,
		"model", model,
		"sdk", id.SDKVersion,
		"safe_mode", profile.SafeMode,
		"adaptive_threshold", profile.UseAdaptiveThreshold)
	return profile
}

var (
	defaultOnce    sync.Once
	defaultProfile Profile
)

// Default returns the process-wide profile, computed lazily on first use
// from DOCSCAN_DEVICE_* environment variables. Unset identifiers yield the
// conservative safe-mode profile.
func Default() Profile {
	defaultOnce.Do(func() {
		sdk, _ := strconv.Atoi(os.Getenv("DOCSCAN_DEVICE_SDK"))
		defaultProfile = Detect(Identifiers{
			Manufacturer: os.Getenv("DOCSCAN_DEVICE_MANUFACTURER"),
			Model:        os.Getenv("DOCSCAN_DEVICE_MODEL"),
			Device:       os.Getenv("DOCSCAN_DEVICE_NAME"),
			SDKVersion:   sdk,
		})
	})
	return defaultProfile
}
