package kv

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/amirbrooks/ticket-tracker/internal/fsutil"
)

const fileSuffix = ".kv"

// FileOptions configures OpenFile.
type FileOptions struct {
	// Limit is the byte quota over all keys and values. Zero disables it.
	Limit int64
	// Logger receives debug output for writes. Nil discards.
	Logger *slog.Logger
}

// File stores each key as <dir>/<key>.kv. Writes are atomic (temp file and
// rename) and serialized across processes with an advisory lock on
// <dir>/.lock. There is no conflict detection: the last writer wins.
type File struct {
	dir    string
	limit  int64
	lock   *flock.Flock
	logger *slog.Logger
}

// OpenFile creates dir if needed and returns a Store rooted there.
func OpenFile(dir string, opts FileOptions) (*File, error) {
	dir = fsutil.ExpandHome(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kv: create %s: %w", dir, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &File{
		dir:    dir,
		limit:  opts.Limit,
		lock:   flock.New(filepath.Join(dir, ".lock")),
		logger: logger,
	}, nil
}

// Dir returns the directory holding the values.
func (f *File) Dir() string { return f.dir }

func (f *File) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: read %s: %w", key, err)
	}
	return string(b), true, nil
}

func (f *File) Set(key, value string) (err error) {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("kv: lock %s: %w", f.dir, err)
	}
	defer func() {
		if uerr := f.lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("kv: unlock %s: %w", f.dir, uerr)
		}
	}()

	if f.limit > 0 {
		used, oldLen, err := f.usage(key)
		if err != nil {
			return err
		}
		if err := quotaCheck(f.limit, used, oldLen, int64(len(key)+len(value))); err != nil {
			return err
		}
	}
	if err := fsutil.AtomicWriteFile(f.path(key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("kv: write %s: %w", key, err)
	}
	f.logger.Debug("kv value written", "backend", "file", "key", key, "bytes", len(value))
	return nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+fileSuffix)
}

// usage sums key+value bytes over the directory and reports the bytes
// currently held by key.
func (f *File) usage(key string) (used, current int64, err error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("kv: scan %s: %w", f.dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		k := strings.TrimSuffix(name, fileSuffix)
		n := int64(len(k)) + info.Size()
		used += n
		if k == key {
			current = n
		}
	}
	return used, current, nil
}
