package csvio

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// EnumFields are the settings columns holding a JSON array of strings.
var EnumFields = []string{"statusInternal", "todo", "rank", "askedTo", "tags"}

// SettingsColumns is the export column order.
var SettingsColumns = append(append([]string{"darkMode", "prefixText"}, EnumFields...), "statusMapping")

// SettingsRecord is the decoded settings row.
type SettingsRecord struct {
	DarkMode      bool
	PrefixText    string
	Enums         map[string][]string
	StatusMapping map[string]string
}

// ReadSettings parses the first data row of a settings CSV. Empty or
// missing JSON cells decode as an empty list or mapping. Cells may carry
// comments and trailing commas.
func ReadSettings(r io.Reader) (SettingsRecord, error) {
	t, err := readTable(r, SettingsColumns)
	if err != nil {
		return SettingsRecord{}, err
	}
	line := t.lines[0]
	raw := func(name string) string {
		v, _ := t.cell(0, name)
		return v
	}
	get := func(name string) string { return strings.TrimSpace(raw(name)) }

	rec := SettingsRecord{
		DarkMode:      get("darkMode") == "true",
		PrefixText:    raw("prefixText"),
		Enums:         make(map[string][]string, len(EnumFields)),
		StatusMapping: map[string]string{},
	}
	for _, field := range EnumFields {
		values := []string{}
		if err := decodeCell(get(field), "[]", &values); err != nil {
			return SettingsRecord{}, &ParseError{Line: line, Column: t.column(field), Err: fmt.Errorf("%s: %w", field, err)}
		}
		if values == nil {
			values = []string{}
		}
		rec.Enums[field] = values
	}
	if err := decodeCell(get("statusMapping"), "{}", &rec.StatusMapping); err != nil {
		return SettingsRecord{}, &ParseError{Line: line, Column: t.column("statusMapping"), Err: fmt.Errorf("statusMapping: %w", err)}
	}
	if rec.StatusMapping == nil {
		rec.StatusMapping = map[string]string{}
	}
	return rec, nil
}

func decodeCell(cell, empty string, v any) error {
	if cell == "" {
		cell = empty
	}
	return json.Unmarshal(jsonc.ToJSON([]byte(cell)), v)
}

// WriteSettings writes the header and the single settings row.
func WriteSettings(w io.Writer, rec SettingsRecord) error {
	row := []string{strconv.FormatBool(rec.DarkMode), rec.PrefixText}
	for _, field := range EnumFields {
		values := rec.Enums[field]
		if values == nil {
			values = []string{}
		}
		b, err := json.Marshal(values)
		if err != nil {
			return err
		}
		row = append(row, string(b))
	}
	mapping := rec.StatusMapping
	if mapping == nil {
		mapping = map[string]string{}
	}
	b, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	row = append(row, string(b))
	return writeTable(w, SettingsColumns, [][]string{row})
}
