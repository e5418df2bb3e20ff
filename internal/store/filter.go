package store

import "strings"

// AskedEmpty is the askedToStatus filter bucket for tasks not waiting on
// anyone.
const AskedEmpty = "empty"

// Filter narrows a task list. Zero-value fields are ignored; set fields
// are ANDed. Tag is a membership test, AskedToStatus is a bucket (see
// AskedEmpty), the rest are exact matches.
type Filter struct {
	Rank           string
	Todo           string
	StatusInternal string
	Tag            string
	AskedTo        string
	AskedToStatus  string
}

func (f Filter) IsZero() bool { return f == Filter{} }

// FilterTasks returns the tasks matching query and f, in input order.
// query is a case-insensitive substring of the ticket number or of any
// tag; "" matches everything.
func FilterTasks(tasks []Task, query string, f Filter) []Task {
	q := strings.ToLower(query)
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if matchTask(t, q, f) {
			out = append(out, t)
		}
	}
	return out
}

func matchTask(t Task, q string, f Filter) bool {
	if q != "" && !matchQuery(t, q) {
		return false
	}
	if f.Rank != "" && t.Rank != f.Rank {
		return false
	}
	if f.Todo != "" && t.Todo != f.Todo {
		return false
	}
	if f.StatusInternal != "" && t.StatusInternal != f.StatusInternal {
		return false
	}
	if f.Tag != "" && !t.Tags.Has(f.Tag) {
		return false
	}
	if f.AskedTo != "" && t.AskedTo != f.AskedTo {
		return false
	}
	if f.AskedToStatus != "" {
		if f.AskedToStatus == AskedEmpty {
			return !t.HasAskedTo()
		}
		if !t.HasAskedTo() || t.AskedToStatus != f.AskedToStatus {
			return false
		}
	}
	return true
}

// q is already lower-cased.
func matchQuery(t Task, q string) bool {
	if strings.Contains(strings.ToLower(t.TicketNumber), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
