package core

// streaming.go wraps import bodies before they reach the CSV reader:
//
//   - a UTF-8 BOM written by spreadsheet exports is dropped
//   - invalid UTF-8 sequences are replaced with U+FFFD
//   - the byte count is tracked and capped at the configured import size
//
// Use WrapForImport to apply all of them in the right order.

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrFileTooLarge is returned once an import body exceeds its size limit.
var ErrFileTooLarge = errors.New("file too large")

// NewUTF8Reader strips a leading UTF-8 BOM and replaces ill-formed UTF-8
// sequences with the replacement character.
func NewUTF8Reader(r io.Reader) io.Reader {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(r, dec)
}

// CountingReader tracks the bytes read through it and fails with
// ErrFileTooLarge once more than Limit bytes were read. A Limit of zero
// disables the cap.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Limit     int64
}

// NewCountingReader wraps r with an optional size cap.
func NewCountingReader(r io.Reader, limit int64) *CountingReader {
	return &CountingReader{reader: r, Limit: limit}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Limit > 0 && r.BytesRead > r.Limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, r.Limit)
	}
	return n, err
}

// WrapForImport applies the size cap to the raw bytes, then BOM stripping
// and UTF-8 sanitizing.
func WrapForImport(r io.Reader, limit int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, limit)
	return NewUTF8Reader(counter), counter
}
