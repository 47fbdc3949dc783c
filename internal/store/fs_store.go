package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// FSStore implements the Store interface on the filesystem.
// Results are stored in a directory structure: <baseDir>/results/<id>/
//
// Writes go through a temp file and rename, so concurrent callers never
// observe a half-written result.json.
type FSStore struct {
	baseDir string // Root directory for all result data (e.g., "./data")
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
	}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

func resultDir(baseDir, id string) string {
	return filepath.Join(baseDir, "results", id)
}

func (fs *FSStore) resultPath(id string) string {
	return filepath.Join(resultDir(fs.baseDir, id), "result.json")
}

// SaveResult atomically saves a result.
func (fs *FSStore) SaveResult(result *Result) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}
	if err := result.Validate(); err != nil {
		return err
	}

	dir := resultDir(fs.baseDir, result.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	finalPath := fs.resultPath(result.ID)
	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp result file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename result file: %w", err)
	}

	slog.Debug("Result saved", "resultID", result.ID, "path", finalPath)
	return nil
}

// LoadResult retrieves the result with the given ID.
func (fs *FSStore) LoadResult(id string) (*Result, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}

	path := fs.resultPath(id)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to deserialize result: %w", err)
	}
	// the file is indented; hand the problem back in its compact form
	if len(result.Problem) > 0 {
		var compact bytes.Buffer
		if err := json.Compact(&compact, result.Problem); err != nil {
			return nil, fmt.Errorf("failed to compact problem: %w", err)
		}
		result.Problem = compact.Bytes()
	}

	slog.Debug("Result loaded", "resultID", id, "path", path)
	return &result, nil
}

// ListResults returns metadata for all stored results, newest first.
func (fs *FSStore) ListResults() ([]ResultInfo, error) {
	resultsDir := filepath.Join(fs.baseDir, "results")

	entries, err := os.ReadDir(resultsDir)
	if os.IsNotExist(err) {
		return []ResultInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	infos := []ResultInfo{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		id := entry.Name()
		if _, err := os.Stat(fs.resultPath(id)); os.IsNotExist(err) {
			continue // trace or samples without a result
		}

		result, err := fs.LoadResult(id)
		if err != nil {
			slog.Warn("Failed to load result for listing", "resultID", id, "error", err)
			continue
		}
		infos = append(infos, result.ToInfo())
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})

	slog.Debug("Listed results", "count", len(infos))
	return infos, nil
}

// DeleteResult removes the result directory and everything in it.
func (fs *FSStore) DeleteResult(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	dir := resultDir(fs.baseDir, id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &NotFoundError{ID: id}
	} else if err != nil {
		return fmt.Errorf("failed to stat result directory: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove result directory: %w", err)
	}

	slog.Debug("Result deleted", "resultID", id, "path", dir)
	return nil
}
