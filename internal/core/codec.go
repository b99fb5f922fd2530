package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/harris/internal/matrix"
)

// FieldSeparator separates cells in the tabular format. List cells use
// matrix.ListSeparator.
const FieldSeparator = ';'

var (
	ErrEmptyFile  = errors.New("empty file")
	ErrInvalidCSV = errors.New("invalid csv")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV reads a semicolon separated dataset. The first record is the
// header. Rows may have fewer or more cells than the header; missing cells
// read as empty. Cells are trimmed.
func DecodeCSV(r io.Reader, limit int64) (matrix.Table, error) {
	body, _ := WrapForImport(r, limit)

	cr := csv.NewReader(body)
	cr.Comma = FieldSeparator
	cr.FieldsPerRecord = -1

	var t matrix.Table
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, ErrFileTooLarge) {
				return matrix.Table{}, err
			}
			return matrix.Table{}, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if t.Header == nil {
			t.Header = rec
			continue
		}
		if blankRecord(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	if t.Header == nil {
		return matrix.Table{}, ErrEmptyFile
	}
	return t, nil
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if c != "" {
			return false
		}
	}
	return true
}

// EncodeCSV writes t in the import format, prefixed with a UTF-8 BOM so
// spreadsheet programs detect the encoding.
func EncodeCSV(w io.Writer, t matrix.Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = FieldSeparator
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
