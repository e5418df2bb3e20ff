package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/amirbrooks/ticket-tracker/internal/csvio"
	"github.com/amirbrooks/ticket-tracker/internal/fsutil"
	"github.com/amirbrooks/ticket-tracker/internal/store"
)

// readInput reads path, or stdin for "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(fsutil.ExpandHome(path))
}

// writeOutput writes b to path atomically, or to stdout when path is
// empty or "-". It reports whether a file was written.
func (a *app) writeOutput(path string, b []byte) (bool, error) {
	if path == "" || path == "-" {
		_, err := a.stdout.Write(b)
		return false, err
	}
	return true, fsutil.AtomicWriteFile(fsutil.ExpandHome(path), b, 0o644)
}

func (a *app) cmdImport(args []string) int {
	var yes bool
	fs := a.flagSet("import")
	fs.BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return a.usage("import <file.csv> [--yes]")
	}
	path := fs.Arg(0)
	if path == "-" && !yes {
		fmt.Fprintln(a.stderr, "import: reading from stdin requires --yes")
		return ExitUsage
	}
	b, err := a.readInput(path)
	if err != nil {
		return a.fail("import", err)
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("import", err)
	}

	recs, err := csvio.ReadTasks(bytes.NewReader(b))
	if errors.Is(err, csvio.ErrNoRows) || errors.Is(err, csvio.ErrEmptyFile) {
		fmt.Fprintln(a.stderr, "Error: No valid tasks found in CSV file.")
		return ExitParse
	}
	if err != nil {
		fmt.Fprintln(a.stderr, "Error: Failed to parse CSV file. Please check the format.")
		return a.fail("import", &store.ParseError{Source: path, Err: err})
	}
	if existing := a.tasks.Len(); existing > 0 {
		prompt := fmt.Sprintf("This will replace all %d existing tasks with %d tasks from the CSV file. Continue?", existing, len(recs))
		if !a.confirm(prompt, yes) {
			fmt.Fprintln(a.stderr, "Import cancelled.")
			return ExitCancelled
		}
	}

	n, err := a.tasks.ImportCSV(ctx, bytes.NewReader(b))
	if err != nil {
		return a.fail("import", err)
	}
	if a.gf.JSON {
		return a.writeJSON(map[string]any{"imported": n})
	}
	a.info("Successfully imported %d tasks!", n)
	return ExitOK
}

func (a *app) cmdExport(args []string) int {
	fs := a.flagSet("export")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 1 {
		return a.usage("export [file.csv]")
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("export", err)
	}
	n := a.tasks.Len()
	if n == 0 {
		fmt.Fprintln(a.stderr, "No tasks to export.")
		return ExitOK
	}
	var buf bytes.Buffer
	if err := a.tasks.ExportCSV(&buf); err != nil {
		return a.fail("export", err)
	}
	toFile, err := a.writeOutput(fs.Arg(0), buf.Bytes())
	if err != nil {
		return a.fail("export", err)
	}
	if toFile {
		a.info("Exported %d tasks successfully!", n)
	}
	return ExitOK
}

func (a *app) cmdDigest(args []string) int {
	fs := a.flagSet("digest")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		return a.usage("digest")
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("digest", err)
	}
	d := a.tasks.Digest(a.now())
	if a.gf.JSON {
		return a.writeJSON(map[string]any{"lines": d.Lines, "count": len(d.Lines), "total": d.Total})
	}
	switch {
	case d.Total == 0:
		fmt.Fprintln(a.stderr, "No tasks to copy.")
	case d.Empty():
		fmt.Fprintln(a.stderr, "No tickets updated in the last 24 hours.")
	default:
		fmt.Fprintln(a.stdout, d.String())
	}
	return ExitOK
}

func (a *app) cmdRecompute(args []string) int {
	fs := a.flagSet("recompute")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		return a.usage("recompute")
	}
	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("recompute", err)
	}
	n, err := a.tasks.RecomputeExternalStatuses()
	if err != nil {
		return a.fail("recompute", err)
	}
	if a.gf.JSON {
		return a.writeJSON(map[string]any{"changed": n})
	}
	a.info("Recomputed %d external statuses.", n)
	return ExitOK
}
