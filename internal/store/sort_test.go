package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByRankHighFirst(t *testing.T) {
	tasks := []Task{
		{ID: "normal", Rank: "normal", LastUpdated: ts("01/01/2024, 10:00")},
		{ID: "high", Rank: "high", LastUpdated: ts("01/01/2024, 09:00")},
	}
	assert.Equal(t, []string{"high", "normal"}, ids(SortTasks(tasks, SortRank, false)))
}

// Both the rank tie-break and the lastUpdated key put the oldest task
// first.
func TestSortTimeDirectionIsAscending(t *testing.T) {
	tasks := []Task{
		{ID: "new", Rank: "high", LastUpdated: ts("03/01/2024, 10:00")},
		{ID: "old", Rank: "high", LastUpdated: ts("01/01/2024, 10:00")},
		{ID: "missing", Rank: "high"},
		{ID: "low", Rank: "normal", LastUpdated: ts("01/01/2023, 10:00")},
	}
	assert.Equal(t, []string{"missing", "old", "new", "low"}, ids(SortTasks(tasks, SortRank, false)))
	assert.Equal(t, []string{"missing", "low", "old", "new"}, ids(SortTasks(tasks, SortLastUpdated, false)))
}

func TestSortPriorityFirst(t *testing.T) {
	tasks := []Task{
		{ID: "a", Rank: "", LastUpdated: ts("01/01/2024, 08:00")},
		{ID: "b", Rank: "normal", LastUpdated: ts("01/01/2024, 07:00")},
		{ID: "c", Rank: "high", LastUpdated: ts("01/01/2024, 09:00")},
		{ID: "d", Rank: "high", LastUpdated: ts("01/01/2024, 06:00")},
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(SortTasks(tasks, SortLastUpdated, true)))
	// Unknown key with priorityFirst only groups by rank, stably.
	assert.Equal(t, []string{"c", "d", "b", "a"}, ids(SortTasks(tasks, SortKey("notes"), true)))
}

func TestSortUnknownKeyIsStableNoop(t *testing.T) {
	tasks := filterFixture()
	got := SortTasks(tasks, SortKey("notes"), false)
	assert.Equal(t, ids(tasks), ids(got))

	got[0].ID = "mutated"
	assert.Equal(t, "1", tasks[0].ID, "SortTasks must not reorder or alias its input")
}

func TestParseSortKey(t *testing.T) {
	for in, want := range map[string]SortKey{
		"":             SortNone,
		"rank":         SortRank,
		"lastUpdated":  SortLastUpdated,
		"last-updated": SortLastUpdated,
	} {
		got, err := ParseSortKey(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSortKey("notes")
	assert.ErrorIs(t, err, ErrInvalid)
}
