package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/schliweb/docscan/internal/config"
	"github.com/schliweb/docscan/internal/detector"
	"github.com/schliweb/docscan/internal/realtime"
)

// previewCmd replays a directory of frames through the realtime loop.
var previewCmd = &cobra.Command{
	Use:   "preview [flags] <frames-dir>",
	Short: "Run the realtime detection loop over a frame sequence",
	Long: `Feed a directory of image frames (sorted by filename) through the
realtime detection loop and print one result line per processed frame.

The loop behaves as it does against a live camera: frames arriving while
a detection cycle is in flight are dropped, results are smoothed across
frames, and detection is narrowed to the previous result's neighborhood.

Examples:
  docscan preview frames/
  docscan preview frames/ --interval 33ms
  docscan preview frames/ --frame-skip 2 --no-roi`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().Duration("interval", 33*time.Millisecond, "delay between submitted frames")
	previewCmd.Flags().Int("frame-skip", -1, "frames skipped between processed ones (-1 = config default)")
	previewCmd.Flags().Float64("ema-alpha", -1, "corner smoothing weight for the newest frame (-1 = config default)")
	previewCmd.Flags().Bool("no-roi", false, "disable region-of-interest cropping")
	previewCmd.Flags().Bool("contour", false, "fuse the geometric contour detector into the loop")
	previewCmd.Flags().String("model", "", "path to the corner heatmap ONNX model")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	frames, err := listFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no image frames found in %s", args[0])
	}

	rtCfg := realtimeConfigFromFlags(cmd, cfg)

	dCfg := detector.DefaultConfig()
	dCfg.Heatmap.ModelPath = cfg.ResolveModelPath()
	if cmd.Flags().Changed("model") {
		dCfg.Heatmap.ModelPath, _ = cmd.Flags().GetString("model")
	}
	heatmap, err := detector.NewHeatmapDetector(dCfg.Heatmap)
	if err != nil {
		return fmt.Errorf("failed to initialize detector: %w", err)
	}
	defer func() { _ = heatmap.Close() }()
	contour := detector.NewContourDetector(dCfg.Contour, resolveProfile(cfg))

	out := cmd.OutOrStdout()
	frameNo := 0
	sink := func(res realtime.Result) {
		frameNo++
		if res.Quad == nil {
			fmt.Fprintf(out, "frame %4d: no document (%dms)\n", frameNo, res.LatencyMs)
			return
		}
		q := *res.Quad
		fmt.Fprintf(out, "frame %4d: conf=%.2f (%.0f,%.0f) (%.0f,%.0f) (%.0f,%.0f) (%.0f,%.0f) (%dms)\n",
			frameNo, res.Confidence,
			q[0].X, q[0].Y, q[1].X, q[1].Y, q[2].X, q[2].Y, q[3].X, q[3].Y,
			res.LatencyMs)
	}

	rt := realtime.NewWithDetectors(rtCfg, heatmap, contour, sink)

	interval, _ := cmd.Flags().GetDuration("interval")
	for _, path := range frames {
		img, err := imaging.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}
		rt.SubmitFrame(img)
		time.Sleep(interval)
	}

	rt.Close()
	<-rt.Done()
	return nil
}

// realtimeConfigFromFlags merges the config file's realtime section with
// CLI flag overrides.
func realtimeConfigFromFlags(cmd *cobra.Command, cfg *config.Config) realtime.Config {
	rtCfg := realtime.DefaultConfig()
	rtCfg.EnableRoi = cfg.Realtime.EnableRoi
	rtCfg.EnableFrameSkip = cfg.Realtime.EnableFrameSkip
	rtCfg.FrameSkip = cfg.Realtime.FrameSkip
	rtCfg.EmaAlpha = cfg.Realtime.EmaAlpha
	rtCfg.RoiMarginFraction = cfg.Realtime.RoiMarginFraction
	rtCfg.UseContourDetector = cfg.Realtime.UseContourDetector

	if v, _ := cmd.Flags().GetInt("frame-skip"); v >= 0 {
		rtCfg.FrameSkip = v
	}
	if v, _ := cmd.Flags().GetFloat64("ema-alpha"); v >= 0 {
		rtCfg.EmaAlpha = v
	}
	if noRoi, _ := cmd.Flags().GetBool("no-roi"); noRoi {
		rtCfg.EnableRoi = false
	}
	if fuse, _ := cmd.Flags().GetBool("contour"); fuse {
		rtCfg.UseContourDetector = true
	}
	return rtCfg
}

// listFrames returns the image files in dir sorted by name.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}

	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			frames = append(frames, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}
