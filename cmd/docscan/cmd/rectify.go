package cmd

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/schliweb/docscan/internal/geometry"
	"github.com/schliweb/docscan/internal/rectify"
)

// rectifyCmd warps an image to its detected (or given) document corners.
var rectifyCmd = &cobra.Command{
	Use:   "rectify [flags] <image>",
	Short: "Perspective-correct a document image",
	Long: `Detect the document corners in an image and warp its content into an
axis-aligned rectangle. Corners can also be supplied explicitly to skip
detection.

Examples:
  docscan rectify photo.jpg -o scan.png
  docscan rectify photo.jpg -o scan.png --width 1240 --height 1754
  docscan rectify photo.jpg -o scan.png --corners 12,34,600,30,610,820,8,830`,
	Args: cobra.ExactArgs(1),
	RunE: runRectify,
}

func init() {
	rootCmd.AddCommand(rectifyCmd)

	rectifyCmd.Flags().StringP("output", "o", "", "output image path (required)")
	rectifyCmd.Flags().Int("width", 0, "output width in pixels (default: source width)")
	rectifyCmd.Flags().Int("height", 0, "output height in pixels (default: source height)")
	rectifyCmd.Flags().String("corners", "", "explicit corners as x0,y0,x1,y1,x2,y2,x3,y3")
	rectifyCmd.Flags().String("model", "", "path to the corner heatmap ONNX model")
	_ = rectifyCmd.MarkFlagRequired("output")
}

func runRectify(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	img, err := imaging.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", args[0], err)
	}

	var quad geometry.Quad
	cornersRaw, _ := cmd.Flags().GetString("corners")
	if cornersRaw != "" {
		quad, err = parseCorners(cornersRaw)
		if err != nil {
			return err
		}
	} else {
		det, err := buildDetector(cmd, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize detector: %w", err)
		}
		defer func() { _ = det.Close() }()

		outcome := det.DetectCorners(img)
		if !outcome.HasQuad() {
			return fmt.Errorf("no document found in %s", args[0])
		}
		quad = outcome.Quad
	}

	targetW, _ := cmd.Flags().GetInt("width")
	targetH, _ := cmd.Flags().GetInt("height")

	rectifier := rectify.New(resolveProfile(cfg))
	out := rectifier.Rectify(img, quad, targetW, targetH)

	outputPath, _ := cmd.Flags().GetString("output")
	if err := imaging.Save(out, outputPath); err != nil {
		return fmt.Errorf("failed to save output %s: %w", outputPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved rectified image to %s\n", outputPath)
	return nil
}

// parseCorners parses "x0,y0,x1,y1,x2,y2,x3,y3" into a canonical quad.
func parseCorners(raw string) (geometry.Quad, error) {
	var vals [8]float64
	n, err := fmt.Sscanf(raw, "%f,%f,%f,%f,%f,%f,%f,%f",
		&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &vals[6], &vals[7])
	if err != nil || n != 8 {
		return geometry.Quad{}, fmt.Errorf("invalid corners %q: expected 8 comma-separated numbers", raw)
	}
	var quad geometry.Quad
	for i := 0; i < 4; i++ {
		quad[i] = geometry.Point{X: vals[2*i], Y: vals[2*i+1]}
	}
	return quad.SortCanonical(), nil
}
