package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/amirbrooks/ticket-tracker/internal/store"
	"github.com/amirbrooks/ticket-tracker/internal/theme"
)

// taskFlags are the editable task fields shared by add and edit.
type taskFlags struct {
	status      string
	todo        string
	rank        string
	askedTo     string
	askedStatus string
	notes       string
	tags        []string
}

func (f *taskFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.status, "status", "s", "", "Internal status")
	fs.StringVar(&f.todo, "todo", "", "Todo marker")
	fs.StringVarP(&f.rank, "rank", "r", "", "Rank (high|normal|...)")
	fs.StringVar(&f.askedTo, "asked-to", "", "Person the ticket waits on")
	fs.StringVar(&f.askedStatus, "asked-status", "", "pending|response-received|done")
	fs.StringVarP(&f.notes, "notes", "n", "", "Notes")
	fs.StringSliceVarP(&f.tags, "tag", "t", nil, "Tag (repeatable, or comma-separated)")
}

func (a *app) cmdAdd(args []string) int {
	var f taskFlags
	fs := a.flagSet("add")
	f.register(fs)
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return a.usage("add <ticket> [--status s] [--todo t] [--rank r] [--asked-to who] [--notes n] [--tag t...]")
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("add", err)
	}
	in := store.TaskInput{
		TicketNumber:   fs.Arg(0),
		StatusInternal: f.status,
		Todo:           f.todo,
		Rank:           f.rank,
		AskedTo:        f.askedTo,
		AskedToStatus:  f.askedStatus,
		Notes:          f.notes,
		Tags:           f.tags,
	}
	a.warnVocabulary(in.StatusInternal, in.Todo, in.Rank, in.AskedTo, in.Tags)
	t, err := a.tasks.Create(in)
	if err != nil {
		return a.fail("add", err)
	}
	if a.gf.JSON {
		return a.writeJSON(t)
	}
	if a.gf.Plain {
		a.writePlain([]store.Task{t})
	}
	return ExitOK
}

func (a *app) cmdEdit(args []string) int {
	var f taskFlags
	var ticket string
	var clearTags bool
	fs := a.flagSet("edit")
	f.register(fs)
	fs.StringVar(&ticket, "ticket", "", "New ticket number")
	fs.BoolVar(&clearTags, "clear-tags", false, "Remove all tags")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return a.usage("edit <ticket-or-id> [--ticket new] [--status s] [--todo t] [--rank r] [--asked-to who] [--notes n] [--tag t...] [--clear-tags]")
	}

	var patch store.TaskPatch
	set := func(name string, dst **string, v string) {
		if fs.Changed(name) {
			*dst = &v
		}
	}
	set("ticket", &patch.TicketNumber, ticket)
	set("status", &patch.StatusInternal, f.status)
	set("todo", &patch.Todo, f.todo)
	set("rank", &patch.Rank, f.rank)
	set("asked-to", &patch.AskedTo, f.askedTo)
	set("asked-status", &patch.AskedToStatus, f.askedStatus)
	set("notes", &patch.Notes, f.notes)
	switch {
	case clearTags:
		empty := []string{}
		patch.Tags = &empty
	case fs.Changed("tag"):
		tags := f.tags
		patch.Tags = &tags
	}
	if patch.IsEmpty() {
		fmt.Fprintln(a.stderr, "edit: nothing to change")
		return ExitUsage
	}

	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("edit", err)
	}
	cur, err := a.resolveTask(fs.Arg(0))
	if err != nil {
		return a.fail("edit", err)
	}
	var tags []string
	if patch.Tags != nil {
		tags = *patch.Tags
	}
	a.warnVocabulary(deref(patch.StatusInternal), deref(patch.Todo), deref(patch.Rank), deref(patch.AskedTo), tags)
	t, err := a.tasks.Update(cur.ID, patch)
	if err != nil {
		return a.fail("edit", err)
	}
	if a.gf.JSON {
		return a.writeJSON(t)
	}
	if a.gf.Plain {
		a.writePlain([]store.Task{t})
	}
	return ExitOK
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// warnVocabulary notes values outside the configured enum lists. They are
// still accepted.
func (a *app) warnVocabulary(status, todo, rank, askedTo string, tags []string) {
	check := func(field, v string) {
		if v == "" {
			return
		}
		if !slices.Contains(a.settings.Enum(field), v) {
			a.logger.Warn("value not in settings vocabulary", "field", field, "value", v)
		}
	}
	check("statusInternal", status)
	check("todo", todo)
	check("rank", rank)
	check("askedTo", askedTo)
	for _, tag := range store.NormalizeTags(tags) {
		check("tags", tag)
	}
}

func (a *app) cmdRemove(args []string) int {
	fs := a.flagSet("rm")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return a.usage("rm <ticket-or-id>")
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("rm", err)
	}
	t, err := a.resolveTask(fs.Arg(0))
	if err != nil {
		return a.fail("rm", err)
	}
	if err := a.tasks.Delete(t.ID); err != nil {
		return a.fail("rm", err)
	}
	if a.gf.JSON {
		return a.writeJSON(map[string]any{"deleted": t.ID, "ticketNumber": t.TicketNumber})
	}
	return ExitOK
}

func (a *app) cmdShow(args []string) int {
	fs := a.flagSet("show")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return a.usage("show <ticket-or-id>")
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("show", err)
	}
	t, err := a.resolveTask(fs.Arg(0))
	if err != nil {
		return a.fail("show", err)
	}
	switch {
	case a.gf.JSON:
		return a.writeJSON(t)
	case a.gf.Plain:
		a.writePlain([]store.Task{t})
	default:
		a.renderTask(t)
	}
	return ExitOK
}

func (a *app) renderTask(t store.Task) {
	w := a.stdout
	fmt.Fprintf(w, "%s  %s\n", a.theme.Heading(t.TicketNumber), a.theme.Badge(theme.StatusLabel(t.StatusInternal, t.StatusExternal)))
	fmt.Fprintf(w, "  ID:        %s\n", a.theme.Muted(t.ID))
	fmt.Fprintf(w, "  Status:    %s -> %s\n", orDash(t.StatusInternal), orDash(t.StatusExternal))
	fmt.Fprintf(w, "  Rank:      %s\n", orDash(t.Rank))
	fmt.Fprintf(w, "  Todo:      %s\n", orDash(t.Todo))
	fmt.Fprintf(w, "  Asked to:  %s\n", askedLabel(t))
	fmt.Fprintf(w, "  Tags:      %s\n", orDash(strings.Join(t.Tags, ", ")))
	fmt.Fprintf(w, "  Updated:   %s\n", orDash(t.LastUpdated.Display(a.loc)))
	if strings.TrimSpace(t.Notes) != "" {
		fmt.Fprintln(w, "  Notes:")
		for _, line := range strings.Split(t.Notes, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func askedLabel(t store.Task) string {
	if !t.HasAskedTo() {
		return "-"
	}
	if t.AskedToStatus == "" {
		return t.AskedTo
	}
	return fmt.Sprintf("%s (%s)", t.AskedTo, t.AskedToStatus)
}

type listFlags struct {
	search        string
	filter        store.Filter
	sortBy        string
	priorityFirst bool
	page          int
	pageSize      int
}

func (a *app) cmdList(args []string) int {
	var f listFlags
	fs := a.flagSet("ls")
	fs.StringVarP(&f.search, "search", "q", "", "Case-insensitive search over ticket number and tags")
	fs.StringVar(&f.filter.Rank, "rank", "", "Filter by rank")
	fs.StringVar(&f.filter.Todo, "todo", "", "Filter by todo")
	fs.StringVar(&f.filter.StatusInternal, "status", "", "Filter by internal status")
	fs.StringVar(&f.filter.Tag, "tag", "", "Filter by tag")
	fs.StringVar(&f.filter.AskedTo, "asked-to", "", "Filter by asked-to person")
	fs.StringVar(&f.filter.AskedToStatus, "asked-status", "", "empty|pending|response-received|done")
	fs.StringVar(&f.sortBy, "sort", "", "rank|lastUpdated (default per view)")
	fs.BoolVar(&f.priorityFirst, "priority-first", false, "High rank first, then the sort key")
	fs.IntVar(&f.page, "page", 1, "Page number")
	fs.IntVar(&f.pageSize, "page-size", 0, "Page size (all view defaults to config display.page_size)")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 1 {
		return a.usage("ls [dashboard|waiting|resolved|all|asked-to] [flags]")
	}
	view, err := store.ParseView(fs.Arg(0))
	if err != nil {
		return a.fail("ls", err)
	}
	sortBy, err := store.ParseSortKey(f.sortBy)
	if err != nil {
		return a.fail("ls", err)
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("ls", err)
	}

	pageSize := f.pageSize
	if !fs.Changed("page-size") && view == store.ViewAll {
		pageSize = a.cfg.Display.PageSize
	}
	p := a.tasks.Query(store.Query{
		View:          view,
		Search:        f.search,
		Filter:        f.filter,
		SortBy:        sortBy,
		PriorityFirst: f.priorityFirst,
		Page:          f.page,
		PageSize:      pageSize,
	})

	switch {
	case a.gf.JSON:
		return a.writeJSON(map[string]any{
			"view":       view,
			"page":       p.Page,
			"pageSize":   p.PageSize,
			"total":      p.Total,
			"totalPages": p.TotalPages,
			"tags":       p.Tags,
			"tasks":      nonNil(p.Items),
		})
	case a.gf.Plain:
		a.writePlain(p.Items)
		return ExitOK
	}

	if len(p.Items) == 0 {
		if f.search != "" || !f.filter.IsZero() {
			fmt.Fprintln(a.stdout, "No tasks match your filters.")
		} else {
			fmt.Fprintln(a.stdout, "No tasks.")
		}
		return ExitOK
	}
	a.writeTable(p.Items)
	if p.TotalPages > 1 {
		fmt.Fprintln(a.stdout, a.theme.Muted(fmt.Sprintf("Page %d/%d (%d tasks)", p.Page, p.TotalPages, p.Total)))
	}
	return ExitOK
}

func nonNil(tasks []store.Task) []store.Task {
	if tasks == nil {
		return []store.Task{}
	}
	return tasks
}

// writeTable renders tasks in aligned columns. The badge goes last so its
// escape codes do not skew the tabwriter widths.
func (a *app) writeTable(tasks []store.Task) {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKET\tRANK\tTODO\tASKED\tUPDATED\tTAGS\tSTATUS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.TicketNumber,
			orDash(t.Rank),
			orDash(t.Todo),
			askedLabel(t),
			orDash(t.LastUpdated.Display(a.loc)),
			orDash(strings.Join(t.Tags, ",")),
			a.theme.Badge(theme.StatusLabel(t.StatusInternal, t.StatusExternal)),
		)
	}
	_ = tw.Flush()
}

// writePlain renders one TSV row per task, without a header.
func (a *app) writePlain(tasks []store.Task) {
	for _, t := range tasks {
		fmt.Fprintf(a.stdout, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.TicketNumber,
			t.StatusInternal,
			t.StatusExternal,
			t.Rank,
			t.Todo,
			t.AskedTo,
			t.AskedToStatus,
			t.LastUpdated.Display(a.loc),
			strings.Join(t.Tags, ","),
		)
	}
}

func (a *app) cmdAskedTo(args []string) int {
	var status string
	fs := a.flagSet("asked-to")
	fs.StringVar(&status, "status", store.AskedPending, "pending|response-received|done|all")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		return a.usage("asked-to [--status pending|response-received|done|all]")
	}
	switch status {
	case "all":
		status = ""
	case store.AskedPending, store.AskedResponseReceived, store.AskedDone:
	default:
		fmt.Fprintf(a.stderr, "asked-to: unknown status %q\n", status)
		return ExitUsage
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("asked-to", err)
	}
	groups := a.tasks.AskedToGroups(status)

	if a.gf.JSON {
		type group struct {
			Person string       `json:"person"`
			Count  int          `json:"count"`
			Tasks  []store.Task `json:"tasks"`
		}
		out := make([]group, 0, len(groups))
		for _, g := range groups {
			out = append(out, group{Person: g.Person, Count: len(g.Tasks), Tasks: g.Tasks})
		}
		return a.writeJSON(out)
	}
	if a.gf.Plain {
		for _, g := range groups {
			for _, t := range g.Tasks {
				fmt.Fprintf(a.stdout, "%s\t%s\t%s\t%s\n", g.Person, t.TicketNumber, t.AskedToStatus, t.StatusInternal)
			}
		}
		return ExitOK
	}
	if len(groups) == 0 {
		fmt.Fprintln(a.stdout, "Nobody is holding up a ticket.")
		return ExitOK
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(a.stdout)
		}
		fmt.Fprintf(a.stdout, "%s %s\n", a.theme.Heading(g.Person), a.theme.Muted(fmt.Sprintf("(%d)", len(g.Tasks))))
		a.writeTable(g.Tasks)
	}
	return ExitOK
}

func (a *app) cmdTags(args []string) int {
	fs := a.flagSet("tags")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 1 {
		return a.usage("tags [view]")
	}
	view := store.ViewAll
	if fs.NArg() == 1 {
		v, err := store.ParseView(fs.Arg(0))
		if err != nil {
			return a.fail("tags", err)
		}
		view = v
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("tags", err)
	}
	tags := a.tasks.Query(store.Query{View: view}).Tags
	if a.gf.JSON {
		if tags == nil {
			tags = []string{}
		}
		return a.writeJSON(tags)
	}
	for _, tag := range tags {
		fmt.Fprintln(a.stdout, tag)
	}
	return ExitOK
}
