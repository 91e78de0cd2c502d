// Package server exposes document detection and rectification over HTTP:
// single-shot endpoints for stills and a WebSocket stream for live preview.
package server

import (
	"image"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/schliweb/docscan/internal/detector"
	"github.com/schliweb/docscan/internal/device"
	"github.com/schliweb/docscan/internal/geometry"
	"github.com/schliweb/docscan/internal/realtime"
	"github.com/schliweb/docscan/internal/rectify"
)

// cornerDetector is the slice of detector.Detector the server needs.
type cornerDetector interface {
	DetectCorners(img image.Image) detector.Outcome
	Close() error
}

// Server holds the HTTP server state and dependencies. The heatmap and
// contour detectors are kept individually so the live-preview stream can
// drive them through the realtime scheduler.
type Server struct {
	detector    cornerDetector
	heatmap     *detector.HeatmapDetector
	contour     *detector.ContourDetector
	rectifier   *rectify.Rectifier
	realtimeCfg realtime.Config
	corsOrigin  string
	maxUploadMB int64
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	DetectorConfig detector.Config
	RealtimeConfig realtime.Config
	Profile        device.Profile
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// CornerPoint is one detected corner in full-frame pixel coordinates.
type CornerPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DetectResult describes one detection outcome.
type DetectResult struct {
	Found    bool          `json:"found"`
	Fallback bool          `json:"fallback,omitempty"`
	Corners  []CornerPoint `json:"corners,omitempty"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Processing struct {
		TotalTimeMs int64 `json:"total_time_ms"`
	} `json:"processing"`
}

// DetectResponse is the /detect payload.
type DetectResponse struct {
	Success bool          `json:"success"`
	Result  *DetectResult `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// NewServer creates a server with a shared detection pipeline.
func NewServer(config Config) (*Server, error) {
	heatmap, err := detector.NewHeatmapDetector(config.DetectorConfig.Heatmap)
	if err != nil {
		return nil, err
	}
	contour := detector.NewContourDetector(config.DetectorConfig.Contour, config.Profile)

	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 32
	}

	return &Server{
		detector:    detector.NewWithDetectors(heatmap, contour),
		heatmap:     heatmap,
		contour:     contour,
		rectifier:   rectify.New(config.Profile),
		realtimeCfg: config.RealtimeConfig,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: maxUpload,
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.detector != nil {
		return s.detector.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/detect", s.corsMiddleware(s.detectHandler))
	mux.HandleFunc("/rectify", s.corsMiddleware(s.rectifyHandler))
	mux.HandleFunc("/ws/preview", s.previewWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

func quadToCorners(q geometry.Quad) []CornerPoint {
	corners := make([]CornerPoint, 4)
	for i, p := range q.Points() {
		corners[i] = CornerPoint{X: p.X, Y: p.Y}
	}
	return corners
}
