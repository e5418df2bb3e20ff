package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the DD/MM/YYYY, HH:mm form shown in lists and written
// to the lastUpdated CSV column.
const DisplayLayout = "02/01/2006, 15:04"

var parseLayouts = []string{
	"2/1/2006, 15:04",
	"2/1/2006, 15:04:05",
	"2/1/2006, 3:04 PM",
	"2/1/2006, 3:04:05 PM",
}

// Timestamp is the instant a task was last written. The zero value means
// "never" and sorts before every real instant.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

// ParseTimestamp accepts the display form (with or without seconds, 24h
// or am/pm) interpreted in loc, and RFC 3339. An empty string yields the
// zero Timestamp.
func ParseTimestamp(s string, loc *time.Location) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t}, nil
	}
	// time only knows upper-case AM/PM.
	up := strings.ToUpper(s)
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, up, loc); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("%w: unrecognised timestamp %q", ErrInvalid, s)
}

// Display formats t in loc using DisplayLayout. Zero renders as "".
func (t Timestamp) Display(loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DisplayLayout)
}

func (t Timestamp) sortKey() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC 3339, the display form, "" and null. Values
// that parse as neither decode as zero rather than failing the whole
// collection.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	ts, err := ParseTimestamp(s, time.Local)
	if err != nil {
		ts = Timestamp{}
	}
	*t = ts
	return nil
}
