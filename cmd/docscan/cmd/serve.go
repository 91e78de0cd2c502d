package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/schliweb/docscan/internal/detector"
	"github.com/schliweb/docscan/internal/realtime"
	"github.com/schliweb/docscan/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the detection API",
	Long: `Start an HTTP server exposing the document detection pipeline.

The server provides the following endpoints:
  POST /detect      - Locate document corners in an uploaded image
  POST /rectify     - Perspective-correct an uploaded image
  GET  /ws/preview  - WebSocket stream for live-preview detection
  GET  /health      - Health check endpoint
  GET  /metrics     - Prometheus metrics

Examples:
  docscan serve
  docscan serve --port 8080
  docscan serve --host 0.0.0.0 --port 3000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "host interface to bind")
	serveCmd.Flags().Int("port", 8080, "port to listen on")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origin")
	serveCmd.Flags().Int64("max-upload-size", 32, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 60, "request timeout in seconds")
	serveCmd.Flags().String("model", "", "path to the corner heatmap ONNX model")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}

	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
	}

	corsOrigin, _ := cmd.Flags().GetString("cors-origin")
	maxUpload, _ := cmd.Flags().GetInt64("max-upload-size")
	timeout, _ := cmd.Flags().GetInt("timeout")

	dCfg := detector.DefaultConfig()
	dCfg.Heatmap.ModelPath = cfg.ResolveModelPath()
	if cfg.Detector.InputSize > 0 {
		dCfg.Heatmap.InputSize = cfg.Detector.InputSize
	}
	if cfg.Detector.MinPeak > 0 {
		dCfg.Heatmap.MinPeak = float32(cfg.Detector.MinPeak)
	}
	dCfg.Heatmap.NumThreads = cfg.Detector.NumThreads
	if cmd.Flags().Changed("model") {
		dCfg.Heatmap.ModelPath, _ = cmd.Flags().GetString("model")
	}

	rtCfg := realtime.DefaultConfig()
	rtCfg.EnableRoi = cfg.Realtime.EnableRoi
	rtCfg.EnableFrameSkip = cfg.Realtime.EnableFrameSkip
	rtCfg.FrameSkip = cfg.Realtime.FrameSkip
	rtCfg.EmaAlpha = cfg.Realtime.EmaAlpha
	rtCfg.RoiMarginFraction = cfg.Realtime.RoiMarginFraction
	rtCfg.UseContourDetector = cfg.Realtime.UseContourDetector

	serverConfig := server.Config{
		Host:           host,
		Port:           port,
		CORSOrigin:     corsOrigin,
		MaxUploadMB:    maxUpload,
		DetectorConfig: dCfg,
		RealtimeConfig: rtCfg,
		Profile:        resolveProfile(cfg),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docServer, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	defer func() { _ = docServer.Close() }()

	mux := http.NewServeMux()
	docServer.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(timeout) * time.Second,
		WriteTimeout:      time.Duration(timeout) * time.Second,
	}

	go func() {
		slog.Info("Starting detection server", "host", host, "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}
