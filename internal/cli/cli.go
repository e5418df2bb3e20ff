package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/amirbrooks/ticket-tracker/internal/config"
	"github.com/amirbrooks/ticket-tracker/internal/fsutil"
	"github.com/amirbrooks/ticket-tracker/internal/kv"
	"github.com/amirbrooks/ticket-tracker/internal/store"
	"github.com/amirbrooks/ticket-tracker/internal/theme"
)

// Exit codes
const (
	ExitOK        = 0
	ExitCancelled = 1
	ExitUsage     = 2
	ExitNotFound  = 3
	ExitConflict  = 4
	ExitInvalid   = 5
	ExitStorage   = 6
	ExitParse     = 7
	ExitInternal  = 10
)

type GlobalFlags struct {
	Root    string
	JSON    bool
	Plain   bool
	Color   string
	Quiet   bool
	Verbose bool
}

// app is one CLI invocation. Stores are opened lazily by open so that
// help and usage errors never touch disk.
type app struct {
	gf      GlobalFlags
	globals *pflag.FlagSet

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time

	root      string
	cfg       config.Config
	cfgExists bool
	loc       *time.Location
	logger    *slog.Logger
	closeKV   func() error
	settings  *store.Settings
	tasks     *store.Tasks
	theme     *theme.Theme
}

func Run(args []string) int {
	return RunIO(args, os.Stdin, os.Stdout, os.Stderr)
}

// RunIO is Run with explicit streams.
func RunIO(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return newApp(stdin, stdout, stderr).run(args)
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, now: time.Now}
}

func (a *app) run(args []string) int {
	stderr := a.stderr
	a.globals = a.globalFlagSet()
	if err := a.globals.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			a.printHelp()
			return ExitOK
		}
		fmt.Fprintln(stderr, err.Error())
		return ExitUsage
	}
	rest := a.globals.Args()
	if len(rest) == 0 {
		a.printHelp()
		return ExitUsage
	}
	defer a.close()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "help", "--help", "-h":
		a.printHelp()
		return ExitOK
	case "init":
		return a.cmdInit(cmdArgs)
	case "config", "cfg":
		return a.cmdConfig(cmdArgs)
	case "add", "new":
		return a.cmdAdd(cmdArgs)
	case "edit", "update":
		return a.cmdEdit(cmdArgs)
	case "rm", "delete":
		return a.cmdRemove(cmdArgs)
	case "show":
		return a.cmdShow(cmdArgs)
	case "ls", "list":
		return a.cmdList(cmdArgs)
	case "asked-to", "asked":
		return a.cmdAskedTo(cmdArgs)
	case "tags":
		return a.cmdTags(cmdArgs)
	case "import":
		return a.cmdImport(cmdArgs)
	case "export":
		return a.cmdExport(cmdArgs)
	case "digest", "copy":
		return a.cmdDigest(cmdArgs)
	case "recompute":
		return a.cmdRecompute(cmdArgs)
	case "settings":
		return a.cmdSettings(cmdArgs)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		a.printHelp()
		return ExitUsage
	}
}

func (a *app) printHelp() {
	fmt.Fprint(a.stdout, `tickets: personal ticket tracker

Usage:
  tickets [global flags] <command> [args]

Global flags:
  --root <path>    Store root (default: ~/.tickets or TICKETS_ROOT)
  --json           JSON output
  --plain          TSV output
  --color <mode>   auto|always|never (default from config)
  --quiet          Suppress confirmations
  --verbose        Debug logging

Commands:
  init [--backend file|sqlite|memory] [--tasks-csv <file>] [--settings-csv <file>]
  config show
  add <ticket> [--status s] [--todo t] [--rank r] [--asked-to who] [--asked-status s] [--notes n] [--tag t...]
  edit <ticket-or-id> [--ticket new] [--status s] [--todo t] [--rank r] [--asked-to who] [--asked-status s] [--notes n] [--tag t...] [--clear-tags]
  rm <ticket-or-id>
  show <ticket-or-id>
  ls [dashboard|waiting|resolved|all|asked-to] [--search q] [--rank r] [--todo t] [--status s] [--tag t]
     [--asked-to who] [--asked-status empty|pending|response-received|done]
     [--sort rank|lastUpdated] [--priority-first] [--page N] [--page-size N]
  asked-to [--status pending|response-received|done|all]
  tags [view]
  import <file.csv> [--yes]
  export [file.csv]
  digest
  recompute
  settings show
  settings enum <field> [values...] [--add v] [--remove v]
  settings mapping [set <internal> <external> | rm <internal>]
  settings prefix [text]
  settings dark [on|off|toggle]
  settings reset [--yes]
  settings import <file.csv> [--yes]
  settings export [file.csv]

Views:
  dashboard  validating or in progress (default)
  waiting    waiting on someone
  resolved   resolved
  all        everything, paginated
  asked-to   waiting on a named person
`)
}

func (a *app) globalFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tickets", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.SetInterspersed(false)
	fs.Usage = func() {}
	fs.StringVar(&a.gf.Root, "root", config.DefaultRoot(), "Store root")
	fs.BoolVar(&a.gf.JSON, "json", false, "JSON output")
	fs.BoolVar(&a.gf.Plain, "plain", false, "TSV output")
	fs.StringVar(&a.gf.Color, "color", "", "auto|always|never")
	fs.BoolVar(&a.gf.Quiet, "quiet", false, "Suppress confirmations")
	fs.BoolVar(&a.gf.Verbose, "verbose", false, "Debug logging")
	return fs
}

// flagSet returns a per-command flag set that also accepts the global
// flags, so they may follow the command name.
func (a *app) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.AddFlagSet(a.globals)
	return fs
}

// parse runs fs over args and reports a usage exit code on failure.
func (a *app) parse(fs *pflag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK, false
		}
		return ExitUsage, false
	}
	if a.gf.JSON && a.gf.Plain {
		fmt.Fprintln(a.stderr, "--json and --plain are mutually exclusive")
		return ExitUsage, false
	}
	return ExitOK, true
}

func (a *app) usage(text string) int {
	fmt.Fprintln(a.stderr, "Usage: tickets "+text)
	return ExitUsage
}

// open loads config and both stores.
func (a *app) open(ctx context.Context) error {
	if a.tasks != nil {
		return nil
	}
	if err := a.loadConfig(); err != nil {
		return err
	}
	storage, closer, err := a.openStorage()
	if err != nil {
		return err
	}
	a.closeKV = closer

	log := a.logger
	a.settings = store.NewSettings(storage,
		store.WithLogger(log.With("store", "settings")),
		store.WithClock(a.now),
		store.WithBundledCSV(a.cfg.BundledSettings(a.root)))
	if src, err := a.settings.Load(ctx); err != nil {
		var warning *store.LoadWarning
		switch {
		case src == "":
			return err
		case errors.As(err, &warning) && a.cfg.Bundled.SettingsCSV == "" && !errors.Is(err, store.ErrStorage):
			log.Debug("built-in settings in use")
		case errors.As(err, &warning), errors.Is(err, store.ErrStorage):
			log.Warn("settings", "error", err)
		default:
			return err
		}
	}

	a.tasks = store.NewTasks(storage, a.settings,
		store.WithLogger(log.With("store", "tasks")),
		store.WithClock(a.now),
		store.WithLocation(a.loc),
		store.WithBundledCSV(a.cfg.BundledTasks(a.root)),
		store.WithNotifier(a.notify))
	if src, err := a.tasks.Load(ctx); err != nil {
		// A source means the data loaded and only the write-back failed.
		if src == "" {
			return err
		}
		log.Warn("tasks", "error", err)
	}

	mode := a.cfg.Display.Color
	if a.gf.Color != "" {
		mode = a.gf.Color
	}
	if a.gf.JSON || a.gf.Plain {
		mode = config.ColorNever
	}
	a.theme = theme.New(a.stdout, mode, a.settings.DarkMode())
	return nil
}

func (a *app) loadConfig() error {
	a.root = fsutil.ExpandHome(a.gf.Root)
	cfg, exists, err := config.Load(a.root)
	if err != nil {
		return err
	}
	if a.gf.Color != "" {
		switch a.gf.Color {
		case config.ColorAuto, config.ColorAlways, config.ColorNever:
		default:
			return fmt.Errorf("%w: --color %q (want auto|always|never)", config.ErrInvalid, a.gf.Color)
		}
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a.cfg, a.cfgExists, a.loc = cfg, exists, loc
	a.logger = a.newLogger()
	return nil
}

func (a *app) newLogger() *slog.Logger {
	level, _ := a.cfg.LogLevel()
	if a.gf.Verbose {
		level = slog.LevelDebug
	} else if a.gf.Quiet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if a.cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(a.stderr, opts)
	} else {
		handler = slog.NewTextHandler(a.stderr, opts)
	}
	return slog.New(handler)
}

func (a *app) openStorage() (kv.Store, func() error, error) {
	path := a.cfg.StoragePath(a.root)
	quota := a.cfg.Storage.QuotaBytes
	log := a.logger.With("component", "kv")
	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		return kv.NewMemory(quota), nil, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		db, err := kv.OpenSQLite(path, kv.SQLiteOptions{Limit: quota, Logger: log})
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		f, err := kv.OpenFile(path, kv.FileOptions{Limit: quota, Logger: log})
		if err != nil {
			return nil, nil, err
		}
		return f, nil, nil
	}
}

func (a *app) close() {
	if a.closeKV != nil {
		if err := a.closeKV(); err != nil && a.logger != nil {
			a.logger.Warn("closing storage", "error", err)
		}
	}
}

func (a *app) notify(msg string) {
	if a.gf.Quiet || a.gf.JSON {
		return
	}
	fmt.Fprintln(a.stdout, msg)
}

// info prints a confirmation line unless --quiet or --json.
func (a *app) info(format string, args ...any) {
	if a.gf.Quiet || a.gf.JSON {
		return
	}
	fmt.Fprintf(a.stdout, format+"\n", args...)
}

func (a *app) writeJSON(v any) int {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(a.stderr, "json:", err)
		return ExitInternal
	}
	return ExitOK
}

// fail reports err for cmd and maps it to an exit code.
func (a *app) fail(cmd string, err error) int {
	fmt.Fprintf(a.stderr, "%s: %v\n", cmd, err)
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, store.ErrConflict):
		return ExitConflict
	case errors.Is(err, store.ErrInvalid), errors.Is(err, config.ErrInvalid):
		return ExitInvalid
	case errors.Is(err, store.ErrStorage):
		return ExitStorage
	case errors.Is(err, store.ErrParse):
		return ExitParse
	default:
		return ExitInternal
	}
}

// confirm asks question on stderr and reads a y/n answer from stdin. yes
// skips the question.
func (a *app) confirm(question string, yes bool) bool {
	if yes {
		return true
	}
	fmt.Fprintf(a.stderr, "%s [y/N] ", question)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(a.stderr)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// resolveTask accepts a task id or a ticket number.
func (a *app) resolveTask(ref string) (store.Task, error) {
	if t, err := a.tasks.Get(ref); err == nil {
		return t, nil
	}
	return a.tasks.Find(ref)
}
