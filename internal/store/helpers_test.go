package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amirbrooks/ticket-tracker/internal/kv"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeSettings struct {
	mapping map[string]string
	prefix  string
}

func (f *fakeSettings) StatusMapping() map[string]string { return f.mapping }
func (f *fakeSettings) PrefixText() string               { return f.prefix }

// unreadable wraps a memory store; Get fails while err is set.
type unreadable struct {
	*kv.Memory
	err error
}

func (u *unreadable) Get(key string) (string, bool, error) {
	if u.err != nil {
		return "", false, u.err
	}
	return u.Memory.Get(key)
}

func defaultMapping() map[string]string { return DefaultSettings().StatusMapping }

func newTestTasks(t *testing.T, storage kv.Store, opts ...Option) (*Tasks, *fakeClock, *[]string) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
	var notes []string
	all := append([]Option{
		WithClock(clock.Now),
		WithLocation(time.UTC),
		WithNotifier(func(msg string) { notes = append(notes, msg) }),
	}, opts...)
	s := NewTasks(storage, &fakeSettings{mapping: defaultMapping()}, all...)
	return s, clock, &notes
}

func mustCreate(t *testing.T, s *Tasks, in TaskInput) Task {
	t.Helper()
	task, err := s.Create(in)
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T { return &v }

func ts(s string) Timestamp {
	t, err := ParseTimestamp(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

var bg = context.Background()
