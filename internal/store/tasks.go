package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amirbrooks/ticket-tracker/internal/csvio"
	"github.com/amirbrooks/ticket-tracker/internal/kv"
)

// SettingsSource supplies the configuration the task store derives
// fields from. *Settings implements it.
type SettingsSource interface {
	StatusMapping() map[string]string
	PrefixText() string
}

// Tasks owns the task collection. Every mutation is written through to
// storage as one JSON array under TasksKey. Not safe for concurrent use.
type Tasks struct {
	kv       kv.Store
	settings SettingsSource
	opt      options

	tasks []Task
	dirty bool
}

func NewTasks(storage kv.Store, settings SettingsSource, opts ...Option) *Tasks {
	return &Tasks{kv: storage, settings: settings, opt: buildOptions(opts)}
}

// Load fills the collection from storage, else from the bundled CSV,
// else from the built-in sample data. A bundled or sample load is
// written back to storage; a failure to do so is returned as a
// *StorageError alongside the source, with the collection still loaded.
// A stored blob that does not decode counts as absent. A failed read
// returns a *StorageError with an empty source and writes nothing.
func (s *Tasks) Load(ctx context.Context) (LoadSource, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	log := s.opt.logger

	stored, err := s.loadStored()
	switch {
	case errors.Is(err, ErrStorage):
		// Unreadable is not absent: leave storage alone.
		log.Warn("stored tasks unreadable", "key", TasksKey, "error", err)
		return "", err
	case err != nil:
		log.Warn("stored tasks corrupt, falling back", "key", TasksKey, "error", err)
	}
	if len(stored) > 0 {
		s.tasks = stored
		log.Debug("tasks loaded", "source", SourceStorage, "count", len(stored))
		return SourceStorage, nil
	}

	source := SourceSample
	tasks, err := s.loadBundled()
	switch {
	case err != nil:
		log.Warn("bundled tasks unavailable", "path", s.opt.bundledCSV, "error", err)
	case len(tasks) > 0:
		source = SourceBundled
	}
	if source == SourceSample {
		if tasks, err = sampleTasks(s.opt.now(), s.settings.StatusMapping()); err != nil {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.tasks = tasks
	log.Debug("tasks loaded", "source", source, "count", len(tasks))
	return source, s.persist()
}

func (s *Tasks) loadStored() ([]Task, error) {
	raw, ok, err := s.kv.Get(TasksKey)
	if err != nil {
		return nil, &StorageError{Key: TasksKey, Err: err}
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, &ParseError{Source: TasksKey, Err: err}
	}
	for i := range tasks {
		tasks[i].Tags = NormalizeTags(tasks[i].Tags)
	}
	return tasks, nil
}

func (s *Tasks) loadBundled() ([]Task, error) {
	if s.opt.bundledCSV == "" {
		return nil, nil
	}
	f, err := os.Open(s.opt.bundledCSV)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := csvio.ReadTasks(f)
	if err != nil {
		return nil, err
	}
	tasks := s.fromRecords(recs)
	s.stamp(tasks)
	return tasks, nil
}

func (s *Tasks) Len() int { return len(s.tasks) }

// Dirty reports whether the last write to storage failed.
func (s *Tasks) Dirty() bool { return s.dirty }

// Get returns a copy of the task with the given id.
func (s *Tasks) Get(id string) (Task, error) {
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].clone(), nil
	}
	return Task{}, &NotFoundError{ID: id}
}

// Find looks a task up by ticket number, ignoring case and surrounding
// space.
func (s *Tasks) Find(ticketNumber string) (Task, error) {
	if i := s.indexOfNumber(ticketNumber, ""); i >= 0 {
		return s.tasks[i].clone(), nil
	}
	return Task{}, &NotFoundError{ID: ticketNumber}
}

// Create validates in, derives the external status, and appends a new
// task. On a *StorageError the task is still created and returned.
func (s *Tasks) Create(in TaskInput) (Task, error) {
	if err := s.checkTicketNumber(in.TicketNumber, ""); err != nil {
		return Task{}, err
	}
	now := s.opt.now()
	t := Task{
		ID:             newTaskID(now),
		TicketNumber:   in.TicketNumber,
		StatusInternal: in.StatusInternal,
		StatusExternal: ExternalStatus(in.StatusInternal, s.settings.StatusMapping()),
		Todo:           in.Todo,
		Rank:           in.Rank,
		AskedTo:        in.AskedTo,
		AskedToStatus:  in.AskedToStatus,
		Notes:          in.Notes,
		Tags:           NormalizeTags(in.Tags),
		LastUpdated:    NewTimestamp(now),
	}
	if t.AskedToStatus == "" {
		t.AskedToStatus = AskedPending
	}
	s.tasks = append(s.tasks, t)
	s.opt.notify(fmt.Sprintf("Ticket %q created successfully!", t.TicketNumber))
	return t.clone(), s.persist()
}

// Update applies patch to the task with the given id and refreshes its
// lastUpdated time. Validation failures leave the task untouched.
func (s *Tasks) Update(id string, patch TaskPatch) (Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, &NotFoundError{ID: id}
	}
	if patch.TicketNumber != nil {
		if err := s.checkTicketNumber(*patch.TicketNumber, id); err != nil {
			return Task{}, err
		}
	}

	t := s.tasks[i].clone()
	if patch.TicketNumber != nil {
		t.TicketNumber = *patch.TicketNumber
	}
	if patch.StatusInternal != nil {
		t.StatusInternal = *patch.StatusInternal
		t.StatusExternal = ExternalStatus(t.StatusInternal, s.settings.StatusMapping())
	}
	if patch.Todo != nil {
		t.Todo = *patch.Todo
	}
	if patch.Rank != nil {
		t.Rank = *patch.Rank
	}
	if patch.AskedTo != nil {
		t.AskedTo = *patch.AskedTo
	}
	if patch.AskedToStatus != nil {
		t.AskedToStatus = *patch.AskedToStatus
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.Tags != nil {
		t.Tags = NormalizeTags(*patch.Tags)
	}
	t.LastUpdated = NewTimestamp(s.opt.now())

	s.tasks[i] = t
	s.opt.notify(fmt.Sprintf("Ticket %q updated successfully!", t.TicketNumber))
	return t.clone(), s.persist()
}

// Delete removes the task with the given id. An unknown id is a no-op.
func (s *Tasks) Delete(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.opt.notify(fmt.Sprintf("Ticket %q deleted successfully!", removed.TicketNumber))
	return s.persist()
}

// ImportAll replaces the whole collection. Missing ids and timestamps are
// filled in, tags normalized and external statuses recomputed. Rows are
// not checked for blank or duplicate ticket numbers.
func (s *Tasks) ImportAll(tasks []Task) error {
	next := cloneTasks(tasks)
	mapping := s.settings.StatusMapping()
	for i := range next {
		next[i].Tags = NormalizeTags(next[i].Tags)
		next[i].StatusExternal = ExternalStatus(next[i].StatusInternal, mapping)
	}
	s.stamp(next)
	s.tasks = next
	s.opt.logger.Debug("tasks imported", "count", len(next))
	return s.persist()
}

// ImportCSV parses r in full and then replaces the collection with its
// rows. Any read or parse failure leaves the collection unchanged.
func (s *Tasks) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	recs, err := csvio.ReadTasks(r)
	if err != nil {
		return 0, &ParseError{Source: "tasks csv", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tasks := s.fromRecords(recs)
	return len(tasks), s.ImportAll(tasks)
}

// ExportAll returns a copy of the collection in storage order.
func (s *Tasks) ExportAll() []Task {
	return cloneTasks(s.tasks)
}

// ExportCSV writes the collection as a task CSV, header included.
func (s *Tasks) ExportCSV(w io.Writer) error {
	recs := make([]csvio.TaskRecord, 0, len(s.tasks))
	for _, t := range s.tasks {
		recs = append(recs, csvio.TaskRecord{
			TicketNumber:   t.TicketNumber,
			StatusInternal: t.StatusInternal,
			StatusExternal: t.StatusExternal,
			Todo:           t.Todo,
			Rank:           t.Rank,
			Notes:          t.Notes,
			AskedTo:        t.AskedTo,
			AskedToStatus:  t.AskedToStatus,
			LastUpdated:    t.LastUpdated.Display(s.opt.loc),
			Tags:           csvio.JoinTags(t.Tags),
		})
	}
	return csvio.WriteTasks(w, recs)
}

// Query runs one list view over the collection.
func (s *Tasks) Query(q Query) Page {
	return RunQuery(s.tasks, q)
}

// AskedToGroups backs the asked-to page. See GroupAskedTo.
func (s *Tasks) AskedToGroups(status string) []AskedToGroup {
	return GroupAskedTo(s.tasks, status)
}

// Digest lists tasks updated in the 24 hours up to now.
func (s *Tasks) Digest(now time.Time) Digest {
	return BuildDigest(s.tasks, now, s.settings.StatusMapping(), s.settings.PrefixText())
}

// RecomputeExternalStatuses re-derives every external status from the
// current mapping and reports how many changed. lastUpdated is left
// alone. Storage is written only when something changed.
func (s *Tasks) RecomputeExternalStatuses() (int, error) {
	mapping := s.settings.StatusMapping()
	changed := 0
	for i := range s.tasks {
		ext := ExternalStatus(s.tasks[i].StatusInternal, mapping)
		if ext != s.tasks[i].StatusExternal {
			s.tasks[i].StatusExternal = ext
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	s.opt.logger.Debug("external statuses recomputed", "changed", changed)
	return changed, s.persist()
}

// Flush rewrites the collection to storage. Use it to retry after a
// *StorageError.
func (s *Tasks) Flush() error {
	return s.persist()
}

func (s *Tasks) persist() error {
	tasks := s.tasks
	if tasks == nil {
		tasks = []Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := s.kv.Set(TasksKey, string(b)); err != nil {
		s.dirty = true
		serr := &StorageError{Key: TasksKey, Quota: errors.Is(err, kv.ErrQuotaExceeded), Err: err}
		s.opt.logger.Warn("tasks not saved", "key", TasksKey, "quota", serr.Quota, "error", err)
		return serr
	}
	s.dirty = false
	s.opt.logger.Debug("tasks saved", "key", TasksKey, "count", len(tasks), "bytes", len(b))
	return nil
}

func (s *Tasks) checkTicketNumber(number, selfID string) error {
	if normalizeTicketNumber(number) == "" {
		return &ValidationError{Field: "ticketNumber", Msg: "ticket number required"}
	}
	if s.indexOfNumber(number, selfID) >= 0 {
		return &DuplicateError{TicketNumber: number}
	}
	return nil
}

func (s *Tasks) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Tasks) indexOfNumber(number, excludeID string) int {
	want := normalizeTicketNumber(number)
	for i, t := range s.tasks {
		if t.ID != excludeID && normalizeTicketNumber(t.TicketNumber) == want {
			return i
		}
	}
	return -1
}

// fromRecords converts CSV rows. External statuses are recomputed here so
// bundled loads match the current mapping; unreadable lastUpdated cells
// are left zero for stamp to fill.
func (s *Tasks) fromRecords(recs []csvio.TaskRecord) []Task {
	mapping := s.settings.StatusMapping()
	tasks := make([]Task, 0, len(recs))
	for _, r := range recs {
		ts, err := ParseTimestamp(r.LastUpdated, s.opt.loc)
		if err != nil {
			s.opt.logger.Debug("csv timestamp ignored", "line", r.Line, "value", r.LastUpdated)
		}
		tasks = append(tasks, Task{
			ID:             r.ID,
			TicketNumber:   r.TicketNumber,
			StatusInternal: r.StatusInternal,
			StatusExternal: ExternalStatus(r.StatusInternal, mapping),
			Todo:           r.Todo,
			Rank:           r.Rank,
			AskedTo:        r.AskedTo,
			AskedToStatus:  r.AskedToStatus,
			Notes:          r.Notes,
			Tags:           NormalizeTags(r.Tags),
			LastUpdated:    ts,
		})
	}
	return tasks
}

// stamp assigns ids and timestamps to tasks missing them.
func (s *Tasks) stamp(tasks []Task) {
	now := s.opt.now()
	for i := range tasks {
		if tasks[i].ID == "" {
			tasks[i].ID = newTaskID(now)
		}
		if tasks[i].LastUpdated.IsZero() {
			tasks[i].LastUpdated = NewTimestamp(now)
		}
	}
}
