package store

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Query describes one list view. PageSize <= 0 returns every match on a
// single page. An empty SortBy uses the view's default.
type Query struct {
	View          View
	Search        string
	Filter        Filter
	SortBy        SortKey
	PriorityFirst bool
	Page          int
	PageSize      int
}

// Page is one page of a query result. Total counts every match; Tags are
// the distinct tags across the view before search and filters, for the
// tag picker.
type Page struct {
	Items      []Task
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	Tags       []string
}

// RunQuery evaluates q over tasks: view pre-filter, FilterTasks,
// SortTasks, then pagination.
func RunQuery(tasks []Task, q Query) Page {
	view := q.View
	if view == "" {
		view = ViewDashboard
	}
	sortBy := q.SortBy
	if sortBy == SortNone {
		sortBy = view.DefaultSort()
	}

	inView := applyView(tasks, view)
	matched := SortTasks(FilterTasks(inView, q.Search, q.Filter), sortBy, q.PriorityFirst)
	p := paginate(matched, q.Page, q.PageSize)
	p.Tags = UniqueTags(inView)
	return p
}

func paginate(tasks []Task, page, size int) Page {
	total := len(tasks)
	if size <= 0 {
		return Page{Items: tasks, Page: 1, PageSize: total, Total: total, TotalPages: 1}
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return Page{
		Items:      tasks[start:end],
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: pages,
	}
}
