package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer appends one JSON object per line
type Writer struct {
	file    *os.File
	buf     *bufio.Writer
	encoder *json.Encoder
	count   int
}

// NewWriter creates (or truncates) path, creating parent directories as needed
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	buf := bufio.NewWriter(file)
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	return &Writer{file: file, buf: buf, encoder: encoder}, nil
}

// Write encodes v on its own line
func (w *Writer) Write(v any) error {
	if err := w.encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of lines written
func (w *Writer) Count() int {
	return w.count
}

// Close flushes and closes the file
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return w.file.Close()
}
