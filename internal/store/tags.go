package store

import (
	"encoding/json"
	"strings"
)

// NormalizeTags coerces raw into a flat list of trimmed, non-empty tags,
// keeping input order. A string, or any string element of a slice, is
// split on commas, since the CSV tags cell is comma separated. Anything
// else yields an empty list. It is idempotent.
func NormalizeTags(raw any) []string {
	out := []string{}
	add := func(s string) {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	switch v := raw.(type) {
	case Tags:
		for _, s := range v {
			add(s)
		}
	case []string:
		for _, s := range v {
			add(s)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		add(v)
	}
	return out
}

// Tags is a normalized tag list. It decodes from a JSON array, a comma
// separated string, or null, so older stored blobs still load.
type Tags []string

func (t *Tags) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = NormalizeTags(raw)
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

func (t Tags) Has(tag string) bool {
	for _, s := range t {
		if s == tag {
			return true
		}
	}
	return false
}

// UniqueTags lists every tag used by tasks, in order of first appearance.
func UniqueTags(tasks []Task) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, t := range tasks {
		for _, tag := range t.Tags {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	return out
}
