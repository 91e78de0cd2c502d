package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/schliweb/docscan/internal/detector"
	"github.com/schliweb/docscan/internal/geometry"
	"github.com/schliweb/docscan/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding health response: %v\n", err)
	}
}

// detectHandler locates document corners in an uploaded image.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, ok := s.readUploadedImage(w, r)
	if !ok {
		return
	}
	bounds := img.Bounds()

	start := time.Now()
	outcome := s.detector.DetectCorners(img)
	duration := time.Since(start)

	detectRequestsTotal.WithLabelValues("detect", "success").Inc()
	detectProcessingDuration.WithLabelValues("detect").Observe(duration.Seconds())

	result := &DetectResult{
		Found:    outcome.HasQuad(),
		Fallback: outcome.Kind == detector.KindFallback,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}
	if outcome.HasQuad() {
		result.Corners = quadToCorners(outcome.Quad)
	}
	result.Processing.TotalTimeMs = duration.Milliseconds()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(DetectResponse{Success: true, Result: result}); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding detect response: %v\n", err)
	}
}

// rectifyHandler warps an uploaded image to the given or detected corners
// and returns the result as PNG.
func (s *Server) rectifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	img, ok := s.readUploadedImage(w, r)
	if !ok {
		return
	}

	quad, ok := parseCornersParam(r.FormValue("corners"))
	if !ok {
		outcome := s.detector.DetectCorners(img)
		if !outcome.HasQuad() {
			s.writeErrorResponse(w, "No document found and no corners provided", http.StatusUnprocessableEntity)
			return
		}
		quad = outcome.Quad
	}

	targetW, _ := strconv.Atoi(r.FormValue("width"))
	targetH, _ := strconv.Atoi(r.FormValue("height"))

	start := time.Now()
	out := s.rectifier.Rectify(img, quad, targetW, targetH)
	detectRequestsTotal.WithLabelValues("rectify", "success").Inc()
	detectProcessingDuration.WithLabelValues("rectify").Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding rectified image: %v\n", err)
	}
}

// readUploadedImage pulls the "image" part out of a multipart upload and
// decodes it. On failure it writes the error response and returns false.
func (s *Server) readUploadedImage(w http.ResponseWriter, r *http.Request) (image.Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return nil, false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return nil, false
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}

	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return nil, false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return nil, false
	}
	return img, true
}

// parseCornersParam parses "x0,y0,x1,y1,x2,y2,x3,y3".
func parseCornersParam(raw string) (geometry.Quad, bool) {
	var quad geometry.Quad
	if raw == "" {
		return quad, false
	}
	var vals [8]float64
	n, err := fmt.Sscanf(raw, "%f,%f,%f,%f,%f,%f,%f,%f",
		&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &vals[6], &vals[7])
	if err != nil || n != 8 {
		return quad, false
	}
	for i := 0; i < 4; i++ {
		quad[i] = geometry.Point{X: vals[2*i], Y: vals[2*i+1]}
	}
	return quad.SortCanonical(), true
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(DetectResponse{Success: false, Error: message}); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing error response: %v\n", err)
	}
}
