// Package storage implements the file contracts behind the catalog, the
// playlist store and the credential list.
//
// Record collections are JSON documents rewritten in full on every save.
// Writes go through a temporary file and a rename so a crash never leaves a
// half-written document behind. Every failure wraps [ErrUnavailable].
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// ErrUnavailable marks persistence read/write failures.
var ErrUnavailable = errors.New("storage unavailable")

// JSONFile is a record collection stored as one JSON document.
type JSONFile struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile returns a [JSONFile] for path. The file need not exist yet.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Load decodes the document into v. It reports false without error when the
// file does not exist.
func (f *JSONFile) Load(v any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to read %s: %v", ErrUnavailable, f.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: failed to parse %s: %v", ErrUnavailable, f.path, err)
	}
	return true, nil
}

// Save replaces the document with the encoding of v.
func (f *JSONFile) Save(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %v", ErrUnavailable, f.path, err)
	}
	data = append(data, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ensureDir(f.path); err != nil {
		return err
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrUnavailable, f.path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", ErrUnavailable, dir, err)
	}
	return nil
}
