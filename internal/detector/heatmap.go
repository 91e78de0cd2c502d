package detector

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/schliweb/docscan/internal/models"
	"github.com/schliweb/docscan/internal/onnx"
)

// HeatmapConfig holds configuration for the corner heatmap detector.
type HeatmapConfig struct {
	ModelPath  string  // Path to the ONNX corner heatmap model
	InputSize  int     // Square model input side (default: 256)
	MinPeak    float32 // Minimum acceptable per-corner heatmap peak
	NumThreads int     // Number of CPU threads (0 = auto)
}

// DefaultHeatmapConfig returns the defaults matching the shipped model.
func DefaultHeatmapConfig() HeatmapConfig {
	return HeatmapConfig{
		ModelPath:  models.GetCornerModelPath(""),
		InputSize:  256,
		MinPeak:    1e-4,
		NumThreads: 0,
	}
}

// HeatmapDetector predicts the four document corners with a learned model
// producing one probability heatmap per corner. Besides the lazily created
// session it keeps no state between calls.
type HeatmapDetector struct {
	cfg     HeatmapConfig
	runner  onnx.Runner
	session *onnx.Session
}

// NewHeatmapDetector loads the model and prepares the inference session.
func NewHeatmapDetector(cfg HeatmapConfig) (*HeatmapDetector, error) {
	if cfg.InputSize <= 0 {
		cfg.InputSize = 256
	}
	if cfg.MinPeak <= 0 {
		cfg.MinPeak = 1e-4
	}
	session, err := onnx.NewSession(cfg.ModelPath, cfg.NumThreads)
	if err != nil {
		return nil, err
	}
	slog.Debug("heatmap detector initialized", "model_path", cfg.ModelPath,
		"input_size", cfg.InputSize)
	return &HeatmapDetector{cfg: cfg, runner: session, session: session}, nil
}

// NewHeatmapDetectorWithRunner wires a custom inference runner. Used by
// tests and by callers that manage the session themselves.
func NewHeatmapDetectorWithRunner(cfg HeatmapConfig, runner onnx.Runner) *HeatmapDetector {
	if cfg.InputSize <= 0 {
		cfg.InputSize = 256
	}
	if cfg.MinPeak <= 0 {
		cfg.MinPeak = 1e-4
	}
	return &HeatmapDetector{cfg: cfg, runner: runner}
}

// Close releases the underlying session, if any.
func (d *HeatmapDetector) Close() error {
	if d.session == nil {
		return nil
	}
	return d.session.Close()
}

// Detect runs the model on img and decodes a corner quadrilateral.
// Implausible predictions and inference failures both yield NotFound;
// callers must treat an absent result as a normal outcome.
func (d *HeatmapDetector) Detect(img image.Image) Outcome {
	if img == nil || d.runner == nil {
		return NotFound()
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return NotFound()
	}

	tensor, err := d.preprocess(img)
	if err != nil {
		slog.Warn("heatmap preprocessing failed", "error", err)
		return NotFound()
	}

	pred, shape, err := d.runner.Run(tensor)
	if err != nil {
		slog.Warn("heatmap inference failed", "error", err)
		return NotFound()
	}

	quad, ok := decodeHeatmaps(pred, shape, w, h, d.cfg.MinPeak)
	if !ok {
		return NotFound()
	}
	return Found(quad)
}

// preprocess converts img into the model's planar BGR float tensor in
// [0,1], resized to the fixed square input.
func (d *HeatmapDetector) preprocess(img image.Image) (onnx.Tensor, error) {
	side := d.cfg.InputSize
	resized := imaging.Resize(img, side, side, imaging.Lanczos)

	hw := side * side
	data := make([]float32, 3*hw)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			i := y*resized.Stride + x*4
			idx := y*side + x
			r := float32(resized.Pix[i]) / 255.0
			g := float32(resized.Pix[i+1]) / 255.0
			b := float32(resized.Pix[i+2]) / 255.0
			// Channel order B, G, R per the model's training pipeline.
			data[idx] = b
			data[hw+idx] = g
			data[2*hw+idx] = r
		}
	}
	return onnx.NewImageTensor(data, 3, side, side)
}
