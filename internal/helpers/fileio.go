// Package helpers holds the small file utilities shared by the state files a
// testnet home carries: node descriptors, the manifest and the home lock.
package helpers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONLoadError represents an error that occurred while loading JSON.
type JSONLoadError struct {
	Path    string
	Reason  string
	Wrapped error
}

func (e *JSONLoadError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Path, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Path)
}

func (e *JSONLoadError) Unwrap() error {
	return e.Wrapped
}

// LoadJSON reads and unmarshals a JSON state file. A missing file yields a
// JSONLoadError that matches os.ErrNotExist.
func LoadJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &JSONLoadError{Path: path, Reason: "file not found", Wrapped: os.ErrNotExist}
		}
		return nil, &JSONLoadError{Path: path, Reason: "failed to read", Wrapped: err}
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &JSONLoadError{Path: path, Reason: "failed to parse JSON in", Wrapped: err}
	}
	return &result, nil
}

// SaveJSON writes data as indented JSON. The file is written next to path
// and renamed into place, so readers never observe a partial document.
func SaveJSON(path string, data any, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// HasEntries reports whether dir exists and is not empty.
func HasEntries(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect %s: %w", dir, err)
	}
	return len(entries) > 0, nil
}
