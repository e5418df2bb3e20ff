package store

import (
	"fmt"
	"sort"
	"strings"
)

type View string

const (
	ViewDashboard View = "dashboard"
	ViewWaiting   View = "waiting"
	ViewResolved  View = "resolved"
	ViewAll       View = "all"
	ViewAskedTo   View = "asked-to"
)

var Views = []View{ViewDashboard, ViewWaiting, ViewResolved, ViewAll, ViewAskedTo}

func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ViewDashboard, nil
	case ViewDashboard, ViewWaiting, ViewResolved, ViewAll, ViewAskedTo:
		return v, nil
	case "asked", "askedto":
		return ViewAskedTo, nil
	default:
		return "", fmt.Errorf("%w: unknown view %q", ErrInvalid, s)
	}
}

// DefaultSort is the sort a view uses when the caller does not pick one.
func (v View) DefaultSort() SortKey {
	if v == ViewDashboard {
		return SortRank
	}
	return SortLastUpdated
}

// Includes is the view's pre-filter, applied before FilterTasks.
func (v View) Includes(t Task) bool {
	switch v {
	case ViewDashboard:
		return containsFold(t.StatusInternal, "validating") ||
			containsFold(t.StatusExternal, "validating") ||
			containsFold(t.StatusExternal, "in progress")
	case ViewWaiting:
		return containsFold(t.StatusInternal, "waiting") || containsFold(t.StatusExternal, "waiting")
	case ViewResolved:
		return containsFold(t.StatusInternal, "resolved") || containsFold(t.StatusExternal, "resolved")
	case ViewAskedTo:
		return t.HasAskedTo()
	default:
		return true
	}
}

func applyView(tasks []Task, v View) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if v.Includes(t) {
			out = append(out, t)
		}
	}
	return out
}

// AskedToGroup is one person on the asked-to page with the tasks
// waiting on them.
type AskedToGroup struct {
	Person string
	Tasks  []Task
}

// GroupAskedTo keeps tasks with a non-blank askedTo whose askedToStatus
// equals status ("" keeps all), groups them by person and orders groups
// by size, largest first. Ties keep first-appearance order; tasks keep
// input order inside a group.
func GroupAskedTo(tasks []Task, status string) []AskedToGroup {
	index := map[string]int{}
	var groups []AskedToGroup
	for _, t := range tasks {
		if !t.HasAskedTo() {
			continue
		}
		if status != "" && t.AskedToStatus != status {
			continue
		}
		i, ok := index[t.AskedTo]
		if !ok {
			i = len(groups)
			index[t.AskedTo] = i
			groups = append(groups, AskedToGroup{Person: t.AskedTo})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].Tasks) > len(groups[j].Tasks)
	})
	return groups
}
