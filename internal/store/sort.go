package store

import (
	"fmt"
	"sort"
	"strings"
)

type SortKey string

const (
	SortRank        SortKey = "rank"
	SortLastUpdated SortKey = "lastUpdated"
	SortNone        SortKey = ""
)

// ParseSortKey accepts the CLI spellings of a sort key.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SortNone, nil
	case "rank", "priority":
		return SortRank, nil
	case "lastupdated", "last-updated", "updated", "time":
		return SortLastUpdated, nil
	default:
		return SortNone, fmt.Errorf("%w: unknown sort key %q (want rank or lastUpdated)", ErrInvalid, s)
	}
}

// SortTasks returns a stably sorted copy of tasks. With priorityFirst,
// rank descending is the primary key. SortRank orders by rank descending
// then oldest first; SortLastUpdated orders oldest first. Any other key
// leaves the order unchanged apart from priorityFirst.
func SortTasks(tasks []Task, by SortKey, priorityFirst bool) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return compareTasks(out[i], out[j], by, priorityFirst) < 0
	})
	return out
}

func compareTasks(a, b Task, by SortKey, priorityFirst bool) int {
	if priorityFirst || by == SortRank {
		if d := RankValue(b.Rank) - RankValue(a.Rank); d != 0 {
			return d
		}
	}
	switch by {
	case SortRank, SortLastUpdated:
		ka, kb := a.LastUpdated.sortKey(), b.LastUpdated.sortKey()
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
	}
	return 0
}
