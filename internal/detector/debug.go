package detector

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/schliweb/docscan/internal/imgproc"
)

// dumpDebug writes an intermediate raster as PNG when DebugDir is set.
func (d *ContourDetector) dumpDebug(stage string, g *imgproc.Gray) {
	if d.cfg.DebugDir == "" || g == nil {
		return
	}
	_ = writeGrayPNG(d.cfg.DebugDir, stage, g)
}

func writeGrayPNG(dir, stage string, g *imgproc.Gray) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("contour_%s_%d.png", stage, time.Now().UnixNano()))
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	copy(img.Pix, g.Pix)
	f, err := os.Create(path) //nolint:gosec // G304: path is constructed from timestamp in debug directory
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return png.Encode(f, img)
}
