// Package models resolves on-disk locations of the ONNX models.
package models

import (
	"os"
	"path/filepath"
)

// Model filename constants to avoid typos and ensure consistency.
const (
	// CornerHeatmap is the document corner heatmap model (input 3x256x256,
	// output 4x128x128 per-corner probability maps).
	CornerHeatmap = "fastvit_sa24_h_e_bifpn_256_fp32.onnx"
)

// DefaultModelsDir is the models directory relative to the working directory.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory.
const EnvModelsDir = "DOCSCAN_MODELS_DIR"

// GetModelsDir returns the models directory path.
// Priority: 1. explicit modelsDir parameter, 2. environment variable,
// 3. default directory.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	return DefaultModelsDir
}

// GetCornerModelPath returns the full path of the corner heatmap model.
func GetCornerModelPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), CornerHeatmap)
}
