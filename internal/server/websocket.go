package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/schliweb/docscan/internal/realtime"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// PreviewFrameMessage is one client frame: a base64-encoded JPEG or PNG.
type PreviewFrameMessage struct {
	Type  string `json:"type"` // "frame"
	Image string `json:"image"`
}

// PreviewResultMessage is one detection result pushed to the client.
type PreviewResultMessage struct {
	Type       string        `json:"type"` // "result" or "error"
	Found      bool          `json:"found"`
	Corners    []CornerPoint `json:"corners,omitempty"`
	Confidence float32       `json:"confidence"`
	LatencyMs  int64         `json:"latency_ms"`
	Error      string        `json:"error,omitempty"`
}

// previewWebSocketHandler streams live-preview detection: the client sends
// camera frames and receives one result per processed frame. Each
// connection gets its own realtime scheduler so smoothing state is
// per-client.
func (s *Server) previewWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("Preview WebSocket connection established", "remote_addr", r.RemoteAddr)

	// Single writer goroutine: gorilla connections allow one concurrent
	// writer, and the sink fires from the detection worker.
	results := make(chan PreviewResultMessage, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range results {
			data, err := json.Marshal(msg)
			if err != nil {
				slog.Error("Failed to marshal preview result", "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Error("Failed to send preview result", "error", err)
				return
			}
			websocketMessagesTotal.WithLabelValues("sent").Inc()
		}
	}()

	sink := func(res realtime.Result) {
		msg := PreviewResultMessage{
			Type:       "result",
			Found:      res.Quad != nil,
			Confidence: res.Confidence,
			LatencyMs:  res.LatencyMs,
		}
		if res.Quad != nil {
			msg.Corners = quadToCorners(*res.Quad)
		}
		select {
		case results <- msg:
		default:
			// Slow client; drop the result rather than stall the worker.
		}
	}

	rt := realtime.NewWithDetectors(s.realtimeCfg, s.heatmap, s.contour, sink)
	defer func() {
		rt.Close()
		<-rt.Done()
		close(results)
		<-writerDone
	}()

	s.readPreviewFrames(conn, rt)
}

// readPreviewFrames consumes client messages until the connection drops.
func (s *Server) readPreviewFrames(conn *websocket.Conn, rt *realtime.Detector) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Send ping messages to keep connection alive
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("Preview WebSocket error", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType != websocket.TextMessage {
			continue
		}

		var msg PreviewFrameMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "frame" {
			continue
		}

		raw, err := base64.StdEncoding.DecodeString(msg.Image)
		if err != nil {
			slog.Debug("Invalid base64 frame", "error", err)
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			slog.Debug("Invalid frame image", "error", err)
			continue
		}

		rt.SubmitFrame(img)
	}
}
