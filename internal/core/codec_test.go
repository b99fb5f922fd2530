package core

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/harris/internal/matrix"
)

func TestDecodeCSV(t *testing.T) {
	input := "\xEF\xBB\xBF Name ;Children;Equivalences;Fact;Kind;Phase;Description\n" +
		"A; B , C ;;;P;Roman;\n" +
		"B;;C;;P\n" +
		";;;;;;\n" +
		"C;;B;;P;;\"quoted; text\"\n"

	tbl, err := DecodeCSV(strings.NewReader(input), 0)
	if err != nil {
		t.Fatalf("DecodeCSV failed: %v", err)
	}
	if !reflect.DeepEqual(tbl.Header, matrix.Columns) {
		t.Errorf("header = %q, want %q", tbl.Header, matrix.Columns)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("got %d rows, want 3 (blank rows are skipped)", len(tbl.Rows))
	}
	if got := tbl.Rows[0][1]; got != "B , C" {
		t.Errorf("children cell = %q, want %q", got, "B , C")
	}
	if got := tbl.Rows[2][6]; got != "quoted; text" {
		t.Errorf("description = %q", got)
	}

	if _, err := matrix.Validate(tbl, 10); err != nil {
		t.Errorf("decoded table should validate: %v", err)
	}
}

func TestDecodeCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int64
		want  error
	}{
		{"empty", "", 0, ErrEmptyFile},
		{"bom only", "\xEF\xBB\xBF", 0, ErrEmptyFile},
		{"too large", strings.Repeat("A;B\n", 1000), 64, ErrFileTooLarge},
		{"bad quote", "Name;Kind\n\"A;P\nB\"x;P\n", 0, ErrInvalidCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCSV(strings.NewReader(tt.input), tt.limit)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeCSVRoundTrip(t *testing.T) {
	e := matrix.New(matrix.Options{})
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, e.Export()); err != nil {
		t.Fatalf("EncodeCSV failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), utf8BOM) {
		t.Error("export should start with a BOM")
	}
	if !strings.Contains(buf.String(), "Name;Children;Equivalences;Fact;Kind;Phase;Description\n") {
		t.Errorf("unexpected header in %q", buf.String())
	}

	tbl, err := DecodeCSV(&buf, 0)
	if err != nil {
		t.Fatalf("DecodeCSV failed: %v", err)
	}
	if !reflect.DeepEqual(tbl, e.Export()) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", tbl, e.Export())
	}
}
