package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func filterFixture() []Task {
	return []Task{
		{ID: "1", TicketNumber: "ABC-1", Rank: "high", Todo: "yes", StatusInternal: "new", Tags: Tags{"API", "backend"}},
		{ID: "2", TicketNumber: "ABC-2", Rank: "normal", Todo: "no", StatusInternal: "validating", AskedTo: "Dev Team", AskedToStatus: AskedPending},
		{ID: "3", TicketNumber: "XYZ-3", Rank: "high", Todo: "no", StatusInternal: "new", AskedTo: "  ", AskedToStatus: AskedPending, Tags: Tags{"client"}},
		{ID: "4", TicketNumber: "XYZ-4", Rank: "high", StatusInternal: "resolved", AskedTo: "QA Team", AskedToStatus: AskedDone, Tags: Tags{"backend"}},
		{ID: "5", TicketNumber: "Q-5", AskedTo: "QA Team", AskedToStatus: AskedResponseReceived},
	}
}

func TestFilterTasks(t *testing.T) {
	tasks := filterFixture()
	tests := []struct {
		name  string
		query string
		f     Filter
		want  []string
	}{
		{"no constraints", "", Filter{}, []string{"1", "2", "3", "4", "5"}},
		{"rank keeps order", "", Filter{Rank: "high"}, []string{"1", "3", "4"}},
		{"query ticket number", "abc", Filter{}, []string{"1", "2"}},
		{"query tag case-insensitive", "api", Filter{}, []string{"1"}},
		{"query tag substring", "end", Filter{}, []string{"1", "4"}},
		{"query with space is not trimmed", " abc", Filter{}, []string{}},
		{"tag membership is exact", "", Filter{Tag: "back"}, []string{}},
		{"tag", "", Filter{Tag: "backend"}, []string{"1", "4"}},
		{"todo and status", "", Filter{Todo: "no", StatusInternal: "new"}, []string{"3"}},
		{"asked to", "", Filter{AskedTo: "QA Team"}, []string{"4", "5"}},
		{"asked empty", "", Filter{AskedToStatus: AskedEmpty}, []string{"1", "3"}},
		{"asked pending needs person", "", Filter{AskedToStatus: AskedPending}, []string{"2"}},
		{"asked done", "", Filter{AskedToStatus: AskedDone}, []string{"4"}},
		{"asked response received", "", Filter{AskedToStatus: AskedResponseReceived}, []string{"5"}},
		{"and of query and filter", "xyz", Filter{Rank: "high", Tag: "client"}, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterTasks(tasks, tt.query, tt.f)))
		})
	}
}

func TestFilterZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{Tag: "x"}.IsZero())
}
