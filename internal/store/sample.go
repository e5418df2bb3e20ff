package store

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed sample_tasks.yaml
var sampleTasksYAML []byte

type sampleTask struct {
	TicketNumber   string   `yaml:"ticket_number"`
	StatusInternal string   `yaml:"status_internal"`
	Todo           string   `yaml:"todo"`
	Rank           string   `yaml:"rank"`
	AskedTo        string   `yaml:"asked_to"`
	AskedToStatus  string   `yaml:"asked_to_status"`
	Notes          string   `yaml:"notes"`
	Tags           []string `yaml:"tags"`
	// AgeHours places lastUpdated relative to load time.
	AgeHours int `yaml:"age_hours"`
}

// sampleTasks builds the first-run collection shown when neither storage
// nor a bundled CSV has any tasks.
func sampleTasks(now time.Time, mapping map[string]string) ([]Task, error) {
	var raw []sampleTask
	if err := yaml.Unmarshal(sampleTasksYAML, &raw); err != nil {
		return nil, fmt.Errorf("sample tasks: %w", err)
	}
	now = now.Truncate(time.Minute)
	tasks := make([]Task, 0, len(raw))
	for _, r := range raw {
		askedStatus := r.AskedToStatus
		if askedStatus == "" {
			askedStatus = AskedPending
		}
		at := now.Add(-time.Duration(r.AgeHours) * time.Hour)
		tasks = append(tasks, Task{
			ID:             newTaskID(at),
			TicketNumber:   r.TicketNumber,
			StatusInternal: r.StatusInternal,
			StatusExternal: ExternalStatus(r.StatusInternal, mapping),
			Todo:           r.Todo,
			Rank:           r.Rank,
			AskedTo:        r.AskedTo,
			AskedToStatus:  askedStatus,
			Notes:          r.Notes,
			Tags:           NormalizeTags(r.Tags),
			LastUpdated:    NewTimestamp(at),
		})
	}
	return tasks, nil
}
