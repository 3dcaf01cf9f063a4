package storage

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// LineFile is an append-only list of text records, one per line.
type LineFile struct {
	mu   sync.Mutex
	path string
}

// NewLineFile returns a [LineFile] for path. The file need not exist yet.
func NewLineFile(path string) *LineFile {
	return &LineFile{path: path}
}

// Scan calls fn for every non-blank line in file order until fn returns false.
// A missing file scans as empty.
func (f *LineFile) Scan(fn func(line string) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: failed to open %s: %v", ErrUnavailable, f.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !fn(line) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: failed to read %s: %v", ErrUnavailable, f.path, err)
	}
	return nil
}

// Append adds one record to the end of the file.
func (f *LineFile) Append(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("record must be a single line")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ensureDir(f.path); err != nil {
		return err
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %v", ErrUnavailable, f.path, err)
	}

	if _, err := file.WriteString(line + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("%w: failed to append to %s: %v", ErrUnavailable, f.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", ErrUnavailable, f.path, err)
	}
	return nil
}
