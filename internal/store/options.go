package store

import (
	"log/slog"
	"time"
)

// Storage keys shared by the task and settings stores.
const (
	TasksKey    = "ticket_tasks"
	SettingsKey = "ticket_settings"
)

// LoadSource reports where a store's initial state came from.
type LoadSource string

const (
	SourceStorage  LoadSource = "storage"
	SourceBundled  LoadSource = "bundled"
	SourceSample   LoadSource = "sample"
	SourceDefaults LoadSource = "defaults"
)

type options struct {
	logger     *slog.Logger
	now        func() time.Time
	loc        *time.Location
	notify     func(string)
	bundledCSV string
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithLocation sets the zone used to read and display DD/MM/YYYY times.
func WithLocation(loc *time.Location) Option { return func(o *options) { o.loc = loc } }

// WithNotifier receives a user-facing message after each create, update
// and delete.
func WithNotifier(fn func(string)) Option { return func(o *options) { o.notify = fn } }

// WithBundledCSV names the CSV file read on first load when storage is
// empty.
func WithBundledCSV(path string) Option { return func(o *options) { o.bundledCSV = path } }

func buildOptions(opts []Option) options {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.loc == nil {
		o.loc = time.Local
	}
	if o.notify == nil {
		o.notify = func(string) {}
	}
	return o
}
