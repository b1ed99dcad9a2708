package utils

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// OutputManager lays out run reports on disk, one directory per run ID.
type OutputManager struct {
	BaseOutputDir string
}

func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{BaseOutputDir: baseOutputDir}
}

// RunDir creates the directory of a run if it doesn't exist.
func (om *OutputManager) RunDir(runID string) (string, error) {
	dir := filepath.Join(om.BaseOutputDir, filepath.Base(runID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}
	return dir, nil
}

// FilePath returns where fileName of a run is written. Path separators in
// fileName are dropped.
func (om *OutputManager) FilePath(runID, fileName string) (string, error) {
	dir, err := om.RunDir(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(fileName)), nil
}

// WriteJSON writes v as indented JSON and returns the file path.
func (om *OutputManager) WriteJSON(runID, fileName string, v interface{}) (string, error) {
	path, err := om.FilePath(runID, fileName)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", fileName, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", fileName, err)
	}
	return path, nil
}

// WriteCSV writes a header and rows and returns the file path.
func (om *OutputManager) WriteCSV(runID, fileName string, header []string, rows [][]string) (string, error) {
	path, err := om.FilePath(runID, fileName)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", fileName, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", fileName, err)
	}
	return path, f.Close()
}
