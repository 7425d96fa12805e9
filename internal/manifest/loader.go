// Package manifest reads and writes line-delimited JSON manifests.
package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mtl-archives/photometa/internal/models"
)

// ErrNoInput is returned when no input path was given and no default candidate exists
var ErrNoInput = errors.New("no manifest input file found")

// ErrLineTooLong is the LineError cause for a line over maxLineSize
var ErrLineTooLong = errors.New("line exceeds maximum size")

// maxLineSize bounds a single JSON line; longer lines are reported, not buffered
var maxLineSize = 10 * 1024 * 1024 // 10MB per line

var filenameHint = regexp.MustCompile(`"metadata_filename"\s*:\s*"([^"]*)"`)

// LineError reports an unparseable manifest line
type LineError struct {
	Line     int
	Filename string
	Err      error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("failed to parse JSON at line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ErrorMarker is written in place of a record whose line could not be parsed
type ErrorMarker struct {
	MetadataFilename string `json:"metadata_filename"`
	Error            string `json:"error"`
	Line             int    `json:"line"`
}

// Marker error kinds
const (
	MarkerDecodeError = "json_decode_error"
	MarkerSchemaError = "schema_error"
	MarkerLineTooLong = "line_too_long"
)

// Marker builds the error marker for this line error. Valid JSON whose
// structure does not fit a record is a schema error, not a decode error.
func (e *LineError) Marker() ErrorMarker {
	kind := MarkerDecodeError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(e.Err, ErrLineTooLong):
		kind = MarkerLineTooLong
	case errors.As(e.Err, &typeErr):
		kind = MarkerSchemaError
	}
	return ErrorMarker{MetadataFilename: e.Filename, Error: kind, Line: e.Line}
}

// MalformedFunc decides what happens to an unparseable line.
// Returning nil skips the line; returning an error aborts the read.
// A nil MalformedFunc makes reading strict.
type MalformedFunc func(*LineError) error

// Discover returns the first existing candidate path
func Discover(candidates []string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w (tried: %s)", ErrNoInput, strings.Join(candidates, ", "))
}

// Loader handles loading of manifest files
type Loader struct {
	path string
}

// NewLoader creates a new manifest loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the manifest path
func (l *Loader) Path() string {
	return l.path
}

// EachRaw streams raw records in file order
func (l *Loader) EachRaw(fn func(line int, rec models.RawRecord) error, onMalformed MalformedFunc) error {
	return eachLine(l.path, func(data []byte) (models.RawRecord, error) {
		var rec models.RawRecord
		err := json.Unmarshal(data, &rec)
		return rec, err
	}, fn, onMalformed)
}

// EachDocument streams records as generic JSON objects. Parquet files are read as flat export rows.
func (l *Loader) EachDocument(fn func(line int, doc map[string]any) error, onMalformed MalformedFunc) error {
	if strings.EqualFold(filepath.Ext(l.path), ".parquet") {
		rows, err := ReadParquet(l.path)
		if err != nil {
			return err
		}
		for i, row := range rows {
			if err := fn(i+1, row.Document()); err != nil {
				return err
			}
		}
		return nil
	}
	return eachLine(l.path, func(data []byte) (map[string]any, error) {
		var doc map[string]any
		err := json.Unmarshal(data, &doc)
		if err == nil && doc == nil {
			err = errors.New("line is not a JSON object")
		}
		return doc, err
	}, fn, onMalformed)
}

// LoadSample loads at most limit raw records, skipping malformed lines. limit <= 0 loads everything.
func (l *Loader) LoadSample(limit int) ([]models.RawRecord, error) {
	var records []models.RawRecord
	errStop := errors.New("sample limit reached")
	err := l.EachRaw(func(_ int, rec models.RawRecord) error {
		records = append(records, rec)
		if limit > 0 && len(records) >= limit {
			return errStop
		}
		return nil
	}, func(le *LineError) error {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", le)
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return records, nil
}

func eachLine[T any](path string, decode func([]byte) (T, error), fn func(int, T) error, onMalformed MalformedFunc) error {
	slog.Debug("Opening manifest", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open manifest file: %w", err)
	}
	defer file.Close()

	return scanLines(file, decode, fn, onMalformed)
}

func scanLines[T any](r io.Reader, decode func([]byte) (T, error), fn func(int, T) error, onMalformed MalformedFunc) error {
	reader := bufio.NewReaderSize(r, 64*1024)

	lineNum := 0
	for {
		line, tooLong, readErr := readLine(reader)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("error reading manifest: %w", readErr)
		}
		if len(line) == 0 && !tooLong && readErr != nil {
			return nil
		}
		lineNum++

		if tooLong || len(bytes.TrimSpace(line)) > 0 {
			value, err := decodeLine(line, tooLong, decode)
			if err != nil {
				lineErr := &LineError{Line: lineNum, Filename: guessFilename(line), Err: err}
				if onMalformed == nil {
					return lineErr
				}
				if err := onMalformed(lineErr); err != nil {
					return err
				}
			} else if err := fn(lineNum, value); err != nil {
				return err
			}
		}

		if lineNum%1000 == 0 {
			slog.Debug("Reading manifest", "lines_read", lineNum)
		}
		if readErr != nil {
			return nil
		}
	}
}

func decodeLine[T any](line []byte, tooLong bool, decode func([]byte) (T, error)) (T, error) {
	if tooLong {
		var zero T
		return zero, fmt.Errorf("%w (%d bytes)", ErrLineTooLong, maxLineSize)
	}
	return decode(line)
}

// readLine returns the next line including its newline. Past maxLineSize the
// rest of the line is discarded and tooLong is set; line keeps the prefix.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineSize {
				tooLong = true
				line = append(line, chunk[:maxLineSize-len(line)]...)
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

func guessFilename(line []byte) string {
	m := filenameHint.FindSubmatch(line)
	if m == nil {
		return ""
	}
	return string(m[1])
}
