// Package csvio reads and writes the two CSV formats used for bulk
// import and export: the task list (one row per task) and the settings
// sheet (a single row whose enum and mapping cells hold JSON).
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrEmptyFile is returned when the input holds no bytes, or only
	// whitespace and a byte-order mark.
	ErrEmptyFile = errors.New("csv: file is empty")
	// ErrNoRows is returned when the input has a header but no data rows.
	ErrNoRows = errors.New("csv: no data rows")
	// ErrMalformed is matched by every *ParseError.
	ErrMalformed = errors.New("csv: malformed")
)

// ParseError locates a malformed record or cell. Line is the 1-based line
// the record starts on. Column is the 1-based field for a bad JSON cell,
// the character offset for CSV syntax errors, and 0 otherwise.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("csv: line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("csv: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

const bom = "\ufeff"

// table is a header-indexed view of a parsed file.
type table struct {
	columns map[string]int
	rows    [][]string
	lines   []int
}

func (t *table) cell(row int, name string) (string, bool) {
	i, ok := t.columns[name]
	if !ok || i >= len(t.rows[row]) {
		return "", false
	}
	return t.rows[row][i], true
}

// column returns the 1-based position of name, or 0.
func (t *table) column(name string) int {
	if i, ok := t.columns[name]; ok {
		return i + 1
	}
	return 0
}

// readTable parses r fully. known maps a lower-cased header name to its
// canonical spelling; headers outside known are ignored, but at least
// one must match.
func readTable(r io.Reader, known []string) (*table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte(bom))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	canonical := make(map[string]string, len(known))
	for _, k := range known {
		canonical[strings.ToLower(k)] = k
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, wrapCSVError(err)
	}
	t := &table{columns: map[string]int{}}
	for i, h := range header {
		name, ok := canonical[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, dup := t.columns[name]; !dup {
			t.columns[name] = i
		}
	}
	if len(t.columns) == 0 {
		return nil, &ParseError{Line: 1, Err: errors.New("header has no recognised columns")}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSVError(err)
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		t.rows = append(t.rows, rec)
		t.lines = append(t.lines, line)
	}
	if len(t.rows) == 0 {
		return nil, ErrNoRows
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func wrapCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.StartLine, Column: pe.Column, Err: pe.Err}
	}
	return &ParseError{Err: err}
}

func writeTable(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
