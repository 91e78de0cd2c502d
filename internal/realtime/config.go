package realtime

// Config holds tuning for the live-preview detection loop.
type Config struct {
	// EnableRoi narrows detection to the previous result's neighborhood.
	EnableRoi bool
	// EnableFrameSkip processes only 1 of every FrameSkip+1 submitted frames.
	EnableFrameSkip bool
	// FrameSkip is the number of frames skipped between processed ones.
	FrameSkip int
	// EmaAlpha weights the newest corners in the exponential moving
	// average; history gets 1-EmaAlpha.
	EmaAlpha float64
	// RoiMarginFraction expands the previous quad's bounding box by this
	// fraction of the frame dimensions before cropping.
	RoiMarginFraction float64
	// UseContourDetector restores dual-detector fusion in the live loop.
	// Off by default: the contour pipeline's cost dominates the frame
	// budget, so the live loop normally runs the heatmap model alone.
	UseContourDetector bool
}

// DefaultConfig returns the live-loop defaults.
func DefaultConfig() Config {
	return Config{
		EnableRoi:          true,
		EnableFrameSkip:    true,
		FrameSkip:          1,
		EmaAlpha:           0.65,
		RoiMarginFraction:  0.12,
		UseContourDetector: false,
	}
}

// normalized clamps the tunables into their legal ranges.
func (c Config) normalized() Config {
	if c.FrameSkip < 0 {
		c.FrameSkip = 0
	}
	if c.EmaAlpha < 0 {
		c.EmaAlpha = 0
	}
	if c.EmaAlpha > 1 {
		c.EmaAlpha = 1
	}
	if c.RoiMarginFraction < 0 {
		c.RoiMarginFraction = 0
	}
	if c.RoiMarginFraction > 0.4 {
		c.RoiMarginFraction = 0.4
	}
	return c
}

// Confidence remap constants: quad-area fraction of the frame, shifted
// past a noise floor and rescaled.
const (
	confidenceFloor = 0.02
	confidenceSpan  = 0.5
)

// roi lower bounds, keeping the crop from collapsing onto a jittery quad.
const (
	minRoiSidePx       = 64
	minRoiSideFraction = 0.25
)
