package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
)

// ModelDir is where downloaded embedding models are cached
const ModelDir = "./models"

// ModelPath returns the local directory a model name is cached in
func ModelPath(modelName string) string {
	return filepath.Join(ModelDir, strings.ReplaceAll(modelName, "/", "_"))
}

// PrepareModel downloads the model if it doesn't exist and returns the model path.
// onnxFilePath selects the ONNX file for repositories that ship more than one.
func PrepareModel(modelName string, onnxFilePath string) (string, error) {
	modelPath := ModelPath(modelName)

	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat model directory: %w", err)
	}

	if err := os.MkdirAll(ModelDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	downloadOptions := hugot.NewDownloadOptions()
	if onnxFilePath != "" {
		downloadOptions.OnnxFilePath = onnxFilePath
	}
	downloadedPath, err := hugot.DownloadModel(modelName, ModelDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}

	return downloadedPath, nil
}
