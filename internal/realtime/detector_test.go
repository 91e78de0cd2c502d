package realtime

import (
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schliweb/docscan/internal/detector"
	"github.com/schliweb/docscan/internal/geometry"
)

func frame(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func rectQuad(x0, y0, x1, y1 float64) geometry.Quad {
	return geometry.Quad{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// plainConfig disables the adaptive features so tests control exactly
// which frames reach the detect function.
func plainConfig() Config {
	return Config{EnableRoi: false, EnableFrameSkip: false, EmaAlpha: 0.65}
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a result")
		return Result{}
	}
}

// waitIdle blocks until the worker has released its busy gate. The sink
// fires before the gate clears, so back-to-back submits need this to
// avoid a busy drop.
func waitIdle(t *testing.T, d *Detector) {
	t.Helper()
	require.Eventually(t, func() bool { return !d.busy.Load() },
		2*time.Second, time.Millisecond)
}

func shutdown(t *testing.T, d *Detector) {
	t.Helper()
	d.Close()
	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit")
	}
}

func TestDetector_DeliversResultWithConfidence(t *testing.T) {
	quad := rectQuad(100, 100, 540, 380) // 440x280 on a 640x480 frame
	results := make(chan Result, 4)

	d := New(plainConfig(),
		func(image.Image) detector.Outcome { return detector.Found(quad) },
		func(r Result) { results <- r },
	)
	d.SubmitFrame(frame(640, 480))

	r := waitResult(t, results)
	require.NotNil(t, r.Quad)
	assert.Equal(t, quad, *r.Quad)
	// area fraction 0.401, remapped past the 0.02 floor over a 0.5 span
	assert.InDelta(t, 0.762, float64(r.Confidence), 0.01)
	assert.GreaterOrEqual(t, r.LatencyMs, int64(0))

	shutdown(t, d)
}

func TestDetector_NoDetectionStillFiresSink(t *testing.T) {
	results := make(chan Result, 4)
	d := New(plainConfig(),
		func(image.Image) detector.Outcome { return detector.NotFound() },
		func(r Result) { results <- r },
	)
	d.SubmitFrame(frame(320, 240))

	r := waitResult(t, results)
	assert.Nil(t, r.Quad)
	assert.Zero(t, r.Confidence)

	shutdown(t, d)
}

func TestDetector_SubmitNeverBlocksWhileBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	results := make(chan Result, 32)

	d := New(plainConfig(),
		func(image.Image) detector.Outcome {
			close(started)
			<-release
			return detector.NotFound()
		},
		func(r Result) { results <- r },
	)

	d.SubmitFrame(frame(320, 240))
	<-started

	// The worker is parked inside detect; every further submit must
	// return immediately as a drop.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.SubmitFrame(frame(320, 240))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SubmitFrame blocked while the worker was busy")
	}

	close(release)
	waitResult(t, results)
	shutdown(t, d)
	assert.Empty(t, results, "dropped frames must not produce results")
}

func TestDetector_FrameSkipRatio(t *testing.T) {
	cfg := plainConfig()
	cfg.EnableFrameSkip = true
	cfg.FrameSkip = 2 // process 1 of every 3

	results := make(chan Result, 16)
	d := New(cfg,
		func(image.Image) detector.Outcome { return detector.NotFound() },
		func(r Result) { results <- r },
	)

	// Submitting in lockstep with the sink keeps the busy gate out of the
	// picture, so only the skip ratio decides.
	for i := 0; i < 9; i++ {
		d.SubmitFrame(frame(320, 240))
		if i%3 == 0 {
			waitResult(t, results)
			waitIdle(t, d)
		}
	}

	shutdown(t, d)
	assert.Empty(t, results)
}

func TestDetector_SmoothsAcrossFrames(t *testing.T) {
	first := rectQuad(100, 100, 500, 400)
	second := rectQuad(120, 110, 520, 410)

	var calls atomic.Int64
	results := make(chan Result, 4)
	d := New(plainConfig(),
		func(image.Image) detector.Outcome {
			if calls.Add(1) == 1 {
				return detector.Found(first)
			}
			return detector.Found(second)
		},
		func(r Result) { results <- r },
	)

	d.SubmitFrame(frame(640, 480))
	r1 := waitResult(t, results)
	require.NotNil(t, r1.Quad)
	assert.Equal(t, first, *r1.Quad)

	waitIdle(t, d)
	d.SubmitFrame(frame(640, 480))
	r2 := waitResult(t, results)
	require.NotNil(t, r2.Quad)
	// 0.65*second + 0.35*first per corner
	assert.InDelta(t, 113.0, r2.Quad[0].X, 1e-9)
	assert.InDelta(t, 106.5, r2.Quad[0].Y, 1e-9)
	assert.InDelta(t, 513.0, r2.Quad[2].X, 1e-9)
	assert.InDelta(t, 406.5, r2.Quad[2].Y, 1e-9)

	shutdown(t, d)
}

func TestDetector_RoiCropTranslatesBack(t *testing.T) {
	cfg := plainConfig()
	cfg.EnableRoi = true
	cfg.RoiMarginFraction = 0.12
	cfg.EmaAlpha = 1 // keep the raw second detection visible

	firstQuad := rectQuad(100, 100, 540, 380)
	croppedQuad := rectQuad(80, 60, 500, 330)

	var calls atomic.Int64
	var secondW, secondH atomic.Int64
	results := make(chan Result, 4)
	d := New(cfg,
		func(img image.Image) detector.Outcome {
			if calls.Add(1) == 1 {
				return detector.Found(firstQuad)
			}
			secondW.Store(int64(img.Bounds().Dx()))
			secondH.Store(int64(img.Bounds().Dy()))
			return detector.Found(croppedQuad)
		},
		func(r Result) { results <- r },
	)

	d.SubmitFrame(frame(640, 480))
	waitResult(t, results)

	waitIdle(t, d)
	d.SubmitFrame(frame(640, 480))
	r2 := waitResult(t, results)

	// The previous quad's box expanded by 12% of each frame dimension is
	// (23.2,42.4)-(616.8,437.6), rasterized to (23,42)-(617,438).
	assert.Equal(t, int64(594), secondW.Load())
	assert.Equal(t, int64(396), secondH.Load())

	require.NotNil(t, r2.Quad)
	assert.InDelta(t, 80+23, r2.Quad[0].X, 1e-9)
	assert.InDelta(t, 60+42, r2.Quad[0].Y, 1e-9)

	shutdown(t, d)
}

func TestDetector_DetectPanicIsContained(t *testing.T) {
	var calls atomic.Int64
	results := make(chan Result, 4)
	d := New(plainConfig(),
		func(image.Image) detector.Outcome {
			if calls.Add(1) == 1 {
				panic("model exploded")
			}
			return detector.Found(rectQuad(50, 50, 250, 200))
		},
		func(r Result) { results <- r },
	)

	d.SubmitFrame(frame(320, 240))
	r1 := waitResult(t, results)
	assert.Nil(t, r1.Quad)

	// The session survives and the next cycle runs normally.
	waitIdle(t, d)
	d.SubmitFrame(frame(320, 240))
	r2 := waitResult(t, results)
	assert.NotNil(t, r2.Quad)

	shutdown(t, d)
}

func TestDetector_SinkPanicIsContained(t *testing.T) {
	var delivered atomic.Int64
	d := New(plainConfig(),
		func(image.Image) detector.Outcome { return detector.NotFound() },
		func(Result) {
			delivered.Add(1)
			panic("sink exploded")
		},
	)

	d.SubmitFrame(frame(320, 240))
	require.Eventually(t, func() bool { return delivered.Load() == 1 },
		2*time.Second, 5*time.Millisecond)

	waitIdle(t, d)
	d.SubmitFrame(frame(320, 240))
	require.Eventually(t, func() bool { return delivered.Load() == 2 },
		2*time.Second, 5*time.Millisecond)

	shutdown(t, d)
}

func TestDetector_SubmitAfterCloseIsIgnored(t *testing.T) {
	results := make(chan Result, 4)
	d := New(plainConfig(),
		func(image.Image) detector.Outcome { return detector.NotFound() },
		func(r Result) { results <- r },
	)
	shutdown(t, d)

	d.SubmitFrame(frame(320, 240))
	d.Close() // idempotent
	assert.Empty(t, results)
}

func TestRoiWindow(t *testing.T) {
	// Margin expansion inside the frame.
	box := roiWindow(rectQuad(300, 200, 340, 240), 640, 480, 0.12)
	assert.InDelta(t, 223.2, box.MinX, 1e-9)
	assert.InDelta(t, 142.4, box.MinY, 1e-9)
	assert.InDelta(t, 416.8, box.MaxX, 1e-9)
	assert.InDelta(t, 297.6, box.MaxY, 1e-9)

	// A tiny quad with no margin still gets the minimum window, centered.
	box = roiWindow(rectQuad(300, 200, 310, 210), 640, 480, 0)
	assert.InDelta(t, 120, box.Width(), 1e-9)
	assert.InDelta(t, 120, box.Height(), 1e-9)
	assert.InDelta(t, 305, (box.MinX+box.MaxX)/2, 1e-9)
	assert.InDelta(t, 205, (box.MinY+box.MaxY)/2, 1e-9)

	// Near the frame corner the clamp wins over the minimum side.
	box = roiWindow(rectQuad(0, 0, 10, 10), 640, 480, 0)
	assert.GreaterOrEqual(t, box.MinX, 0.0)
	assert.GreaterOrEqual(t, box.MinY, 0.0)
	assert.LessOrEqual(t, box.MaxX, 640.0)
	assert.LessOrEqual(t, box.MaxY, 480.0)
}

func TestRemapConfidence(t *testing.T) {
	assert.Zero(t, remapConfidence(0.01))
	assert.InDelta(t, 0.5, float64(remapConfidence(0.27)), 1e-6)
	assert.InDelta(t, 1.0, float64(remapConfidence(0.52)), 1e-6)
	assert.InDelta(t, 1.0, float64(remapConfidence(0.9)), 1e-6)
}

func TestConfigNormalized(t *testing.T) {
	c := Config{FrameSkip: -3, EmaAlpha: 1.5, RoiMarginFraction: 0.9}.normalized()
	assert.Equal(t, 0, c.FrameSkip)
	assert.Equal(t, 1.0, c.EmaAlpha)
	assert.Equal(t, 0.4, c.RoiMarginFraction)

	c = Config{EmaAlpha: -0.2, RoiMarginFraction: -1}.normalized()
	assert.Equal(t, 0.0, c.EmaAlpha)
	assert.Equal(t, 0.0, c.RoiMarginFraction)
}
