package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewFixture() []Task {
	return []Task{
		{ID: "v", StatusInternal: "validating", StatusExternal: "In validation", Rank: "normal", LastUpdated: ts("01/01/2024, 10:00"), Tags: Tags{"a"}},
		{ID: "p", StatusInternal: "waiting-internal", StatusExternal: "In progress", Rank: "high", LastUpdated: ts("02/01/2024, 10:00"), Tags: Tags{"b"}},
		{ID: "w", StatusInternal: "waiting-external", StatusExternal: "WFC", Rank: "high", LastUpdated: ts("03/01/2024, 10:00")},
		{ID: "r", StatusInternal: "resolved-wfc", StatusExternal: "WFC", LastUpdated: ts("04/01/2024, 10:00"), AskedTo: "Dev Team", AskedToStatus: AskedPending},
		{ID: "n", StatusInternal: "new", StatusExternal: "new", LastUpdated: ts("05/01/2024, 10:00")},
	}
}

func TestViewPreFilters(t *testing.T) {
	tasks := viewFixture()
	tests := []struct {
		view View
		want []string
	}{
		{ViewDashboard, []string{"p", "v"}},
		{ViewWaiting, []string{"p", "w"}},
		{ViewResolved, []string{"r"}},
		{ViewAskedTo, []string{"r"}},
		{ViewAll, []string{"v", "p", "w", "r", "n"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			page := RunQuery(tasks, Query{View: tt.view})
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}
}

func TestViewFilterIsAdditive(t *testing.T) {
	page := RunQuery(viewFixture(), Query{View: ViewWaiting, Filter: Filter{Rank: "high"}, SortBy: SortLastUpdated})
	assert.Equal(t, []string{"p", "w"}, ids(page.Items))

	page = RunQuery(viewFixture(), Query{View: ViewDashboard, Search: "zzz"})
	assert.Empty(t, page.Items)
	assert.Equal(t, []string{"a", "b"}, page.Tags, "tags come from the view, not the search result")
}

func TestParseView(t *testing.T) {
	v, err := ParseView("")
	require.NoError(t, err)
	assert.Equal(t, ViewDashboard, v)
	v, err = ParseView("Asked")
	require.NoError(t, err)
	assert.Equal(t, ViewAskedTo, v)
	_, err = ParseView("kanban")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPagination(t *testing.T) {
	var tasks []Task
	for i := 0; i < 45; i++ {
		tasks = append(tasks, Task{ID: fmt.Sprint(i)})
	}
	q := Query{View: ViewAll, SortBy: SortKey("none"), PageSize: DefaultPageSize}

	q.Page = 1
	p := RunQuery(tasks, q)
	assert.Len(t, p.Items, 20)
	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 3, p.TotalPages)

	q.Page = 3
	p = RunQuery(tasks, q)
	assert.Len(t, p.Items, 5)
	assert.Equal(t, "40", p.Items[0].ID)

	q.Page = 99
	p = RunQuery(tasks, q)
	assert.Equal(t, 3, p.Page)

	q.Page = -1
	p = RunQuery(tasks, q)
	assert.Equal(t, 1, p.Page)

	q.PageSize = 1000
	p = RunQuery(tasks, q)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Len(t, p.Items, 45)

	q.PageSize = 0
	p = RunQuery(tasks, q)
	assert.Len(t, p.Items, 45)
	assert.Equal(t, 1, p.TotalPages)

	p = RunQuery(nil, Query{View: ViewAll, PageSize: 20, Page: 4})
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.Total)
	assert.Empty(t, p.Items)
}

func TestGroupAskedTo(t *testing.T) {
	tasks := []Task{
		{ID: "1", AskedTo: "Dev Team", AskedToStatus: AskedPending},
		{ID: "2", AskedTo: "QA Team", AskedToStatus: AskedPending},
		{ID: "3", AskedTo: "QA Team", AskedToStatus: AskedPending},
		{ID: "4", AskedTo: "John Doe", AskedToStatus: AskedPending},
		{ID: "5", AskedTo: "QA Team", AskedToStatus: AskedDone},
		{ID: "6", AskedTo: " ", AskedToStatus: AskedPending},
	}
	groups := GroupAskedTo(tasks, AskedPending)
	require.Len(t, groups, 3)
	assert.Equal(t, "QA Team", groups[0].Person)
	assert.Equal(t, []string{"2", "3"}, ids(groups[0].Tasks))
	assert.Equal(t, "Dev Team", groups[1].Person, "ties keep first appearance")
	assert.Equal(t, "John Doe", groups[2].Person)

	all := GroupAskedTo(tasks, "")
	require.Len(t, all, 3)
	assert.Equal(t, []string{"2", "3", "5"}, ids(all[0].Tasks))
}
