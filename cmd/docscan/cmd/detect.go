package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/schliweb/docscan/internal/config"
	"github.com/schliweb/docscan/internal/detector"
)

// detectCmd locates document corners in still images.
var detectCmd = &cobra.Command{
	Use:   "detect [flags] <image> [image...]",
	Short: "Detect document corners in images",
	Long: `Detect the four corners of a document page in one or more images.

Each image is processed by the corner heatmap model and the geometric
contour detector; the two hypotheses are arbitrated into a single result.

Examples:
  docscan detect photo.jpg
  docscan detect --format text *.jpg
  docscan detect --model custom.onnx photo.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().String("format", "json", "output format (json, text)")
	detectCmd.Flags().String("model", "", "path to the corner heatmap ONNX model")
	detectCmd.Flags().String("debug-dir", "", "write intermediate detection images to this directory")
	detectCmd.Flags().Int("threads", 0, "number of inference threads (0 = auto)")
}

// detectOutput is the per-image result printed by the detect command.
type detectOutput struct {
	File     string       `json:"file"`
	Found    bool         `json:"found"`
	Fallback bool         `json:"fallback,omitempty"`
	Corners  [][2]float64 `json:"corners,omitempty"`
	Error    string       `json:"error,omitempty"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	det, err := buildDetector(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize detector: %w", err)
	}
	defer func() { _ = det.Close() }()

	format, _ := cmd.Flags().GetString("format")

	results := make([]detectOutput, 0, len(args))
	for _, path := range args {
		results = append(results, detectOne(det, path))
	}

	switch format {
	case "text":
		for _, res := range results {
			printDetectText(cmd, res)
		}
	default:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	}

	return nil
}

func detectOne(det *detector.Detector, path string) detectOutput {
	out := detectOutput{File: path}

	img, err := imaging.Open(path)
	if err != nil {
		out.Error = fmt.Sprintf("failed to open image: %v", err)
		return out
	}

	outcome := det.DetectCorners(img)
	out.Found = outcome.HasQuad()
	out.Fallback = outcome.Kind == detector.KindFallback
	if outcome.HasQuad() {
		out.Corners = make([][2]float64, 4)
		for i, p := range outcome.Quad.Points() {
			out.Corners[i] = [2]float64{p.X, p.Y}
		}
	}
	return out
}

func printDetectText(cmd *cobra.Command, res detectOutput) {
	w := cmd.OutOrStdout()
	if res.Error != "" {
		fmt.Fprintf(w, "%s: error: %s\n", res.File, res.Error)
		return
	}
	if !res.Found {
		fmt.Fprintf(w, "%s: no document found\n", res.File)
		return
	}
	suffix := ""
	if res.Fallback {
		suffix = " (fallback)"
	}
	fmt.Fprintf(w, "%s: corners (%.1f,%.1f) (%.1f,%.1f) (%.1f,%.1f) (%.1f,%.1f)%s\n",
		res.File,
		res.Corners[0][0], res.Corners[0][1],
		res.Corners[1][0], res.Corners[1][1],
		res.Corners[2][0], res.Corners[2][1],
		res.Corners[3][0], res.Corners[3][1],
		suffix)
}

// buildDetector assembles the combined detector from config and flags.
func buildDetector(cmd *cobra.Command, cfg *config.Config) (*detector.Detector, error) {
	dCfg := detector.DefaultConfig()
	dCfg.Heatmap.ModelPath = cfg.ResolveModelPath()
	if cfg.Detector.InputSize > 0 {
		dCfg.Heatmap.InputSize = cfg.Detector.InputSize
	}
	if cfg.Detector.MinPeak > 0 {
		dCfg.Heatmap.MinPeak = float32(cfg.Detector.MinPeak)
	}
	dCfg.Heatmap.NumThreads = cfg.Detector.NumThreads
	dCfg.Contour.DebugDir = cfg.Detector.DebugDir

	if cmd.Flags().Changed("model") {
		dCfg.Heatmap.ModelPath, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("threads") {
		dCfg.Heatmap.NumThreads, _ = cmd.Flags().GetInt("threads")
	}
	if cmd.Flags().Changed("debug-dir") {
		dCfg.Contour.DebugDir, _ = cmd.Flags().GetString("debug-dir")
	}

	return detector.New(dCfg, resolveProfile(cfg))
}
