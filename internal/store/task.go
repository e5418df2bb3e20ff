package store

import "strings"

// Asked-to sub-states.
const (
	AskedPending          = "pending"
	AskedResponseReceived = "response-received"
	AskedDone             = "done"
)

type Task struct {
	ID             string    `json:"id"`
	TicketNumber   string    `json:"ticketNumber"`
	StatusInternal string    `json:"statusInternal"`
	StatusExternal string    `json:"statusExternal"`
	Todo           string    `json:"todo"`
	Rank           string    `json:"rank"`
	AskedTo        string    `json:"askedTo"`
	AskedToStatus  string    `json:"askedToStatus"`
	Notes          string    `json:"notes"`
	Tags           Tags      `json:"tags"`
	LastUpdated    Timestamp `json:"lastUpdated"`
}

// HasAskedTo reports whether the task is waiting on someone.
func (t Task) HasAskedTo() bool {
	return strings.TrimSpace(t.AskedTo) != ""
}

func (t Task) clone() Task {
	c := t
	c.Tags = append(Tags{}, t.Tags...)
	return c
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.clone()
	}
	return out
}

// TaskInput carries the user-editable fields of a new task. The external
// status is always derived and cannot be supplied.
type TaskInput struct {
	TicketNumber   string
	StatusInternal string
	Todo           string
	Rank           string
	AskedTo        string
	AskedToStatus  string
	Notes          string
	Tags           []string
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	TicketNumber   *string
	StatusInternal *string
	Todo           *string
	Rank           *string
	AskedTo        *string
	AskedToStatus  *string
	Notes          *string
	Tags           *[]string
}

func (p TaskPatch) IsEmpty() bool {
	return p.TicketNumber == nil && p.StatusInternal == nil && p.Todo == nil &&
		p.Rank == nil && p.AskedTo == nil && p.AskedToStatus == nil &&
		p.Notes == nil && p.Tags == nil
}

func normalizeTicketNumber(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
