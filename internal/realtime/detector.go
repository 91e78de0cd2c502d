// Package realtime runs continuous document boundary detection over a live
// frame stream with adaptive cropping, temporal smoothing and drop-based
// backpressure.
package realtime

import (
	"image"
	"image/draw"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"

	"github.com/schliweb/docscan/internal/detector"
	"github.com/schliweb/docscan/internal/geometry"
	"github.com/schliweb/docscan/internal/mempool"
)

// Result is delivered to the sink once per accepted, processed frame.
// Quad is nil when no detector produced a usable hypothesis.
type Result struct {
	Quad       *geometry.Quad
	Confidence float32
	LatencyMs  int64
}

// DetectFunc produces a detection outcome for one (possibly cropped) frame.
type DetectFunc func(img image.Image) detector.Outcome

// Sink receives detection results. It is invoked from the worker
// goroutine; panics inside the sink are contained and do not disturb the
// detector's state.
type Sink func(Result)

type frameJob struct {
	img      *image.RGBA
	accepted time.Time
}

// Detector is the live-preview orchestrator: one dedicated worker, one
// cycle in flight at a time. Frames submitted while busy are dropped, not
// queued; a lower effective frame rate buys bounded memory and latency.
type Detector struct {
	cfg    Config
	detect DetectFunc
	sink   Sink

	busy         atomic.Bool
	frameCounter atomic.Int64

	mu     sync.Mutex
	closed bool
	jobs   chan frameJob
	done   chan struct{}

	// lastQuad is touched only by the worker goroutine.
	lastQuad *geometry.Quad
}

// New starts the worker and returns a ready detector.
func New(cfg Config, detect DetectFunc, sink Sink) *Detector {
	d := &Detector{
		cfg:    cfg.normalized(),
		detect: detect,
		sink:   sink,
		jobs:   make(chan frameJob, 1),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// NewWithDetectors wires the standard live-loop detection function: the
// heatmap model alone by default, or heatmap+contour fusion when
// cfg.UseContourDetector is set.
func NewWithDetectors(cfg Config, heatmap *detector.HeatmapDetector,
	contour *detector.ContourDetector, sink Sink,
) *Detector {
	detect := func(img image.Image) detector.Outcome {
		h := heatmap.Detect(img)
		if !cfg.UseContourDetector || contour == nil {
			return h
		}
		b := img.Bounds()
		return detector.Arbitrate(h, contour.Detect(img), b.Dx(), b.Dy())
	}
	return New(cfg, detect, sink)
}

// SubmitFrame offers a frame to the detector. It never blocks: the frame
// is either copied and handed to the worker, or dropped (frame-skip ratio
// or worker busy). The caller may reuse its buffer immediately on return.
func (d *Detector) SubmitFrame(img image.Image) {
	if img == nil {
		return
	}
	framesSubmitted.Inc()

	if d.cfg.EnableFrameSkip {
		c := d.frameCounter.Add(1) - 1
		if c%int64(d.cfg.FrameSkip+1) != 0 {
			framesDropped.WithLabelValues("skip").Inc()
			return
		}
	}

	if !d.busy.CompareAndSwap(false, true) {
		framesDropped.WithLabelValues("busy").Inc()
		return
	}

	job := frameJob{img: copyFrame(img), accepted: time.Now()}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.releaseFrame(job.img)
		d.busy.Store(false)
		return
	}
	d.jobs <- job
	d.mu.Unlock()
}

// Close stops accepting frames and lets an in-flight cycle finish without
// blocking the caller. No results are delivered after Close returns the
// session to idle.
func (d *Detector) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
}

// Done is closed once the worker has drained and exited.
func (d *Detector) Done() <-chan struct{} {
	return d.done
}

func (d *Detector) run() {
	defer close(d.done)
	for job := range d.jobs {
		d.processFrame(job)
		d.busy.Store(false)
	}
}

func (d *Detector) processFrame(job frameJob) {
	defer d.releaseFrame(job.img)

	bounds := job.img.Bounds()
	frameW, frameH := bounds.Dx(), bounds.Dy()

	outcome := d.detectSafe(job.img, frameW, frameH)

	var quadPtr *geometry.Quad
	var confidence float32
	if outcome.HasQuad() {
		quad := outcome.Quad
		if d.lastQuad != nil {
			quad = quad.Lerp(*d.lastQuad, d.cfg.EmaAlpha)
		}
		d.lastQuad = &quad
		quadPtr = &quad
		confidence = remapConfidence(quad.Area() / (float64(frameW) * float64(frameH)))
		detectionOutcomes.WithLabelValues("found").Inc()
	} else {
		detectionOutcomes.WithLabelValues("not_found").Inc()
	}

	latency := time.Since(job.accepted)
	framesProcessed.Inc()
	cycleDuration.Observe(latency.Seconds())

	d.deliver(Result{
		Quad:       quadPtr,
		Confidence: confidence,
		LatencyMs:  latency.Milliseconds(),
	})
}

// detectSafe contains any panic escaping the detection stages; a failed
// cycle surfaces as no-result, never as a terminated session.
func (d *Detector) detectSafe(img *image.RGBA, frameW, frameH int) (outcome detector.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("realtime detection panicked", "panic", r)
			outcome = detector.NotFound()
		}
	}()
	return d.detectWithRoi(img, frameW, frameH)
}

// detectWithRoi crops the frame to the previous quad's neighborhood before
// detection and translates the result back to full-frame coordinates.
// When cropping fails detection proceeds on the full frame.
func (d *Detector) detectWithRoi(img *image.RGBA, frameW, frameH int) detector.Outcome {
	if !d.cfg.EnableRoi || d.lastQuad == nil {
		return d.detect(img)
	}

	roi := roiWindow(*d.lastQuad, frameW, frameH, d.cfg.RoiMarginFraction)
	rect := roi.ToRect(img.Bounds())
	if rect.Dx() <= 1 || rect.Dy() <= 1 {
		return d.detect(img)
	}

	cropped := imaging.Crop(img, rect)
	if cropped == nil || cropped.Bounds().Empty() {
		return d.detect(img)
	}

	outcome := d.detect(cropped)
	if outcome.HasQuad() {
		outcome.Quad = outcome.Quad.Offset(float64(rect.Min.X), float64(rect.Min.Y))
	}
	return outcome
}

// roiWindow expands the quad's bounding box by the margin fraction of the
// frame dimensions, clamps it, and enforces a minimum side length so the
// crop never collapses.
func roiWindow(q geometry.Quad, frameW, frameH int, marginFrac float64) geometry.Box {
	fw, fh := float64(frameW), float64(frameH)
	box := q.Bounds().Expand(fw*marginFrac, fh*marginFrac).Clip(fw, fh)

	minSide := fw
	if fh < minSide {
		minSide = fh
	}
	minSide *= minRoiSideFraction
	if minSide < minRoiSidePx {
		minSide = minRoiSidePx
	}

	if box.Width() < minSide {
		cx := (box.MinX + box.MaxX) / 2
		box.MinX = cx - minSide/2
		box.MaxX = cx + minSide/2
	}
	if box.Height() < minSide {
		cy := (box.MinY + box.MaxY) / 2
		box.MinY = cy - minSide/2
		box.MaxY = cy + minSide/2
	}
	return box.Clip(fw, fh)
}

func remapConfidence(areaFraction float64) float32 {
	c := (areaFraction - confidenceFloor) / confidenceSpan
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return float32(c)
}

// deliver invokes the sink, containing any panic it raises.
func (d *Detector) deliver(res Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("result sink panicked", "panic", r)
		}
	}()
	if d.sink != nil {
		d.sink(res)
	}
}

// copyFrame takes an isolated copy of the producer's pixels into a pooled
// buffer so the producer can recycle its buffer immediately.
func copyFrame(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := mempool.GetPix(4 * w * h)
	dst := &image.RGBA{Pix: buf, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return dst
}

func (d *Detector) releaseFrame(img *image.RGBA) {
	if img != nil {
		mempool.PutPix(img.Pix)
	}
}
