package csvio

import (
	"io"
	"strings"
)

// TaskColumns is the export column order.
var TaskColumns = []string{
	"ticketNumber", "statusInternal", "statusExternal", "todo", "rank",
	"notes", "askedTo", "askedToStatus", "lastUpdated", "tags",
}

// TaskRecord is one task row. Tags holds the cell as written, a comma
// separated list; callers normalize it.
type TaskRecord struct {
	ID             string
	TicketNumber   string
	StatusInternal string
	StatusExternal string
	Todo           string
	Rank           string
	Notes          string
	AskedTo        string
	AskedToStatus  string
	LastUpdated    string
	Tags           string

	// Line is the 1-based line the record started on. Zero on write.
	Line int
}

// DefaultAskedToStatus fills a missing askedToStatus cell.
const DefaultAskedToStatus = "pending"

// ReadTasks parses a task CSV. Columns may appear in any order and any
// may be missing, including the optional "id" column; unknown columns
// are ignored. Rows whose cells are all blank are skipped.
func ReadTasks(r io.Reader) ([]TaskRecord, error) {
	t, err := readTable(r, append([]string{"id"}, TaskColumns...))
	if err != nil {
		return nil, err
	}
	out := make([]TaskRecord, 0, len(t.rows))
	for i := range t.rows {
		get := func(name string) string {
			v, _ := t.cell(i, name)
			return v
		}
		rec := TaskRecord{
			ID:             strings.TrimSpace(get("id")),
			TicketNumber:   get("ticketNumber"),
			StatusInternal: get("statusInternal"),
			StatusExternal: get("statusExternal"),
			Todo:           get("todo"),
			Rank:           get("rank"),
			Notes:          get("notes"),
			AskedTo:        get("askedTo"),
			AskedToStatus:  get("askedToStatus"),
			LastUpdated:    strings.TrimSpace(get("lastUpdated")),
			Tags:           get("tags"),
			Line:           t.lines[i],
		}
		if rec.AskedToStatus == "" {
			rec.AskedToStatus = DefaultAskedToStatus
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteTasks writes the header and one row per record. The id column is
// not written; exports are meant to be re-imported as fresh tasks.
func WriteTasks(w io.Writer, recs []TaskRecord) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		status := r.AskedToStatus
		if status == "" {
			status = DefaultAskedToStatus
		}
		rows = append(rows, []string{
			r.TicketNumber, r.StatusInternal, r.StatusExternal, r.Todo, r.Rank,
			r.Notes, r.AskedTo, status, r.LastUpdated, r.Tags,
		})
	}
	return writeTable(w, TaskColumns, rows)
}

// JoinTags renders a tag list the way the tags cell stores it.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
