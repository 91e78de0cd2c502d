package detector

import (
	"image"
	"log/slog"

	"github.com/schliweb/docscan/internal/device"
)

// Config holds configuration for the combined detector.
type Config struct {
	Heatmap HeatmapConfig
	Contour ContourConfig
}

// DefaultConfig returns the combined defaults.
func DefaultConfig() Config {
	return Config{
		Heatmap: DefaultHeatmapConfig(),
		Contour: DefaultContourConfig(),
	}
}

// Detector fuses the corner heatmap model and the geometric contour
// pipeline into a single detection call for still captures.
type Detector struct {
	heatmap *HeatmapDetector
	contour *ContourDetector
}

// New builds the combined detector. The heatmap model must be loadable;
// the contour detector needs no model.
func New(cfg Config, profile device.Profile) (*Detector, error) {
	heatmap, err := NewHeatmapDetector(cfg.Heatmap)
	if err != nil {
		return nil, err
	}
	return &Detector{
		heatmap: heatmap,
		contour: NewContourDetector(cfg.Contour, profile),
	}, nil
}

// NewWithDetectors assembles a combined detector from pre-built parts.
func NewWithDetectors(heatmap *HeatmapDetector, contour *ContourDetector) *Detector {
	return &Detector{heatmap: heatmap, contour: contour}
}

// Close releases the heatmap session.
func (d *Detector) Close() error {
	if d.heatmap == nil {
		return nil
	}
	return d.heatmap.Close()
}

// DetectCorners runs both detectors independently and arbitrates their
// hypotheses. A frame with no usable hypothesis yields the contour
// detector's fallback rectangle, per the arbitration rules.
func (d *Detector) DetectCorners(img image.Image) Outcome {
	if img == nil {
		return NotFound()
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var heatmap Outcome
	if d.heatmap != nil {
		heatmap = d.heatmap.Detect(img)
	} else {
		heatmap = NotFound()
	}

	var contour Outcome
	if d.contour != nil {
		contour = d.contour.Detect(img)
	} else {
		contour = NotFound()
	}

	result := Arbitrate(heatmap, contour, w, h)
	slog.Debug("corner detection arbitrated",
		"heatmap", heatmap.Kind, "contour", contour.Kind, "result", result.Kind)
	return result
}
