package cli

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/ticket-tracker/internal/config"
	"github.com/amirbrooks/ticket-tracker/internal/fsutil"
	"github.com/amirbrooks/ticket-tracker/internal/store"
)

func (a *app) cmdInit(args []string) int {
	var backend, tasksCSV, settingsCSV string
	fs := a.flagSet("init")
	fs.StringVar(&backend, "backend", config.BackendFile, "file|sqlite|memory")
	fs.StringVar(&tasksCSV, "tasks-csv", "", "Bundled tasks CSV read when storage is empty")
	fs.StringVar(&settingsCSV, "settings-csv", "", "Bundled settings CSV read when storage is empty")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		return a.usage("init [--backend file|sqlite|memory] [--tasks-csv <file>] [--settings-csv <file>]")
	}
	root := fsutil.ExpandHome(a.gf.Root)
	_, exists, err := config.Load(root)
	if err != nil {
		return a.fail("init", err)
	}
	if !exists {
		cfg := config.Default()
		cfg.Storage.Backend = backend
		cfg.Bundled.TasksCSV = tasksCSV
		cfg.Bundled.SettingsCSV = settingsCSV
		if err := cfg.Validate(); err != nil {
			return a.fail("init", err)
		}
		if err := config.Save(root, cfg); err != nil {
			return a.fail("init", err)
		}
	} else if fs.Changed("backend") || fs.Changed("tasks-csv") || fs.Changed("settings-csv") {
		fmt.Fprintf(a.stderr, "init: %s already exists; edit it to change settings\n", config.Path(root))
	}

	ctx := context.Background()
	if err := a.open(ctx); err != nil {
		return a.fail("init", err)
	}
	if a.gf.JSON {
		return a.writeJSON(map[string]any{
			"root":    a.root,
			"config":  config.Path(a.root),
			"backend": a.cfg.Storage.Backend,
			"tasks":   a.tasks.Len(),
		})
	}
	if exists {
		a.info("Already initialized: %s", a.root)
	} else {
		a.info("Initialized ticket store at: %s", a.root)
	}
	a.info("Backend: %s (%s)", a.cfg.Storage.Backend, a.cfg.StoragePath(a.root))
	a.info("Tasks: %d", a.tasks.Len())
	return ExitOK
}

func (a *app) cmdConfig(args []string) int {
	fs := a.flagSet("config")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() > 1 || (fs.NArg() == 1 && fs.Arg(0) != "show") {
		return a.usage("config show")
	}
	if err := a.loadConfig(); err != nil {
		return a.fail("config", err)
	}
	if a.gf.JSON {
		return a.writeJSON(map[string]any{
			"root":   a.root,
			"path":   config.Path(a.root),
			"exists": a.cfgExists,
			"config": a.cfg,
		})
	}
	b, err := yaml.Marshal(a.cfg)
	if err != nil {
		return a.fail("config", err)
	}
	fmt.Fprintf(a.stdout, "# %s", config.Path(a.root))
	if !a.cfgExists {
		fmt.Fprint(a.stdout, " (not written yet; defaults shown)")
	}
	fmt.Fprintln(a.stdout)
	_, _ = a.stdout.Write(b)
	return ExitOK
}

func (a *app) cmdSettings(args []string) int {
	if len(args) == 0 {
		return a.settingsShow(nil)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "show":
		return a.settingsShow(rest)
	case "enum":
		return a.settingsEnum(rest)
	case "mapping":
		return a.settingsMapping(rest)
	case "prefix":
		return a.settingsPrefix(rest)
	case "dark":
		return a.settingsDark(rest)
	case "reset":
		return a.settingsReset(rest)
	case "import":
		return a.settingsImport(rest)
	case "export":
		return a.settingsExport(rest)
	default:
		fmt.Fprintf(a.stderr, "Unknown settings command: %s\n", sub)
		return ExitUsage
	}
}

// start opens the stores once flags parsed cleanly. It returns the exit
// code to stop with, or -1 to carry on.
func (a *app) start(name string, ok bool, code int) int {
	if !ok {
		return code
	}
	if err := a.open(context.Background()); err != nil {
		return a.fail(name, err)
	}
	return -1
}

func (a *app) settingsShow(args []string) int {
	fs := a.flagSet("settings show")
	code, ok := a.parse(fs, args)
	if code := a.start("settings", ok, code); code >= 0 {
		return code
	}
	st := a.settings.Snapshot()
	switch {
	case a.gf.JSON:
		return a.writeJSON(st)
	case a.gf.Plain:
		fmt.Fprintf(a.stdout, "darkMode\t%t\n", st.DarkMode)
		fmt.Fprintf(a.stdout, "prefixText\t%s\n", st.PrefixText)
		for _, field := range store.EnumFields {
			fmt.Fprintf(a.stdout, "%s\t%s\n", field, strings.Join(st.Enums[field], ","))
		}
		for _, k := range slices.Sorted(maps.Keys(st.StatusMapping)) {
			fmt.Fprintf(a.stdout, "statusMapping\t%s\t%s\n", k, st.StatusMapping[k])
		}
		return ExitOK
	}

	w := a.stdout
	fmt.Fprintf(w, "%s %s\n", a.theme.Heading("Dark mode:"), onOff(st.DarkMode))
	fmt.Fprintf(w, "%s %q\n", a.theme.Heading("Prefix:"), st.PrefixText)
	fmt.Fprintln(w)
	fmt.Fprintln(w, a.theme.Heading("Vocabularies"))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, field := range store.EnumFields {
		fmt.Fprintf(tw, "  %s\t%s\n", field, orDash(strings.Join(st.Enums[field], ", ")))
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, a.theme.Heading("Status mapping"))
	a.writeMapping(st.StatusMapping)
	return ExitOK
}

func (a *app) writeMapping(m map[string]string) {
	if len(m) == 0 {
		fmt.Fprintln(a.stdout, "  (none)")
		return
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, k := range slices.Sorted(maps.Keys(m)) {
		fmt.Fprintf(tw, "  %s\t-> %s\n", k, m[k])
	}
	_ = tw.Flush()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (a *app) settingsEnum(args []string) int {
	var add, remove []string
	fs := a.flagSet("settings enum")
	fs.StringSliceVar(&add, "add", nil, "Append values")
	fs.StringSliceVar(&remove, "remove", nil, "Remove values")
	code, ok := a.parse(fs, args)
	if ok && fs.NArg() < 1 {
		return a.usage("settings enum <" + strings.Join(store.EnumFields, "|") + "> [values...] [--add v] [--remove v]")
	}
	if code := a.start("settings enum", ok, code); code >= 0 {
		return code
	}
	field, values := fs.Arg(0), fs.Args()[1:]
	if !slices.Contains(store.EnumFields, field) {
		return a.fail("settings enum", &store.ValidationError{Field: "field", Msg: fmt.Sprintf("unknown enum field %q", field)})
	}
	if len(values) == 0 && len(add) == 0 && len(remove) == 0 {
		cur := a.settings.Enum(field)
		if a.gf.JSON {
			return a.writeJSON(cur)
		}
		for _, v := range cur {
			fmt.Fprintln(a.stdout, v)
		}
		return ExitOK
	}

	next := values
	if len(next) == 0 {
		next = a.settings.Enum(field)
	}
	for _, v := range add {
		if !slices.Contains(next, v) {
			next = append(next, v)
		}
	}
	next = slices.DeleteFunc(next, func(v string) bool { return slices.Contains(remove, v) })
	if err := a.settings.UpdateEnum(field, next); err != nil {
		return a.fail("settings enum", err)
	}
	if a.gf.JSON {
		return a.writeJSON(a.settings.Enum(field))
	}
	a.info("%s: %s", field, strings.Join(next, ", "))
	return ExitOK
}

func (a *app) settingsMapping(args []string) int {
	fs := a.flagSet("settings mapping")
	code, ok := a.parse(fs, args)
	if code := a.start("settings mapping", ok, code); code >= 0 {
		return code
	}
	m := a.settings.StatusMapping()
	rest := fs.Args()
	switch {
	case len(rest) == 0:
		if a.gf.JSON {
			return a.writeJSON(m)
		}
		a.writeMapping(m)
		return ExitOK
	case rest[0] == "set" && len(rest) == 3:
		m[rest[1]] = rest[2]
	case rest[0] == "rm" && len(rest) == 2:
		if _, found := m[rest[1]]; !found {
			return a.fail("settings mapping", fmt.Errorf("%w: no mapping for %q", store.ErrNotFound, rest[1]))
		}
		delete(m, rest[1])
	default:
		return a.usage("settings mapping [set <internal> <external> | rm <internal>]")
	}
	if err := a.settings.UpdateStatusMapping(m); err != nil {
		return a.fail("settings mapping", err)
	}
	if a.gf.JSON {
		return a.writeJSON(a.settings.StatusMapping())
	}
	a.info("Status mapping updated. Run `tickets recompute` to refresh existing tickets.")
	return ExitOK
}

func (a *app) settingsPrefix(args []string) int {
	fs := a.flagSet("settings prefix")
	code, ok := a.parse(fs, args)
	if ok && fs.NArg() > 1 {
		return a.usage("settings prefix [text]")
	}
	if code := a.start("settings prefix", ok, code); code >= 0 {
		return code
	}
	if fs.NArg() == 0 {
		if a.gf.JSON {
			return a.writeJSON(map[string]string{"prefixText": a.settings.PrefixText()})
		}
		fmt.Fprintln(a.stdout, a.settings.PrefixText())
		return ExitOK
	}
	if err := a.settings.UpdatePrefixText(fs.Arg(0)); err != nil {
		return a.fail("settings prefix", err)
	}
	a.info("Prefix set to %q.", fs.Arg(0))
	return ExitOK
}

func (a *app) settingsDark(args []string) int {
	fs := a.flagSet("settings dark")
	code, ok := a.parse(fs, args)
	if ok && fs.NArg() > 1 {
		return a.usage("settings dark [on|off|toggle]")
	}
	if code := a.start("settings dark", ok, code); code >= 0 {
		return code
	}
	cur := a.settings.DarkMode()
	want := !cur
	switch fs.Arg(0) {
	case "", "toggle":
	case "on":
		want = true
	case "off":
		want = false
	default:
		return a.usage("settings dark [on|off|toggle]")
	}
	if want != cur {
		if _, err := a.settings.ToggleDarkMode(); err != nil {
			return a.fail("settings dark", err)
		}
	}
	if a.gf.JSON {
		return a.writeJSON(map[string]bool{"darkMode": a.settings.DarkMode()})
	}
	a.info("Dark mode %s.", onOff(a.settings.DarkMode()))
	return ExitOK
}

func (a *app) settingsReset(args []string) int {
	var yes bool
	fs := a.flagSet("settings reset")
	fs.BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	code, ok := a.parse(fs, args)
	if code := a.start("settings reset", ok, code); code >= 0 {
		return code
	}
	if !a.confirm("Are you sure you want to reset all settings to defaults?", yes) {
		fmt.Fprintln(a.stderr, "Reset cancelled.")
		return ExitCancelled
	}
	if err := a.settings.ResetToDefaults(); err != nil {
		return a.fail("settings reset", err)
	}
	a.info("Settings reset to defaults.")
	return ExitOK
}

func (a *app) settingsImport(args []string) int {
	var yes bool
	fs := a.flagSet("settings import")
	fs.BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	code, ok := a.parse(fs, args)
	if ok && fs.NArg() != 1 {
		return a.usage("settings import <file.csv> [--yes]")
	}
	if ok && fs.Arg(0) == "-" && !yes {
		fmt.Fprintln(a.stderr, "settings import: reading from stdin requires --yes")
		return ExitUsage
	}
	if code := a.start("settings import", ok, code); code >= 0 {
		return code
	}
	b, err := a.readInput(fs.Arg(0))
	if err != nil {
		return a.fail("settings import", err)
	}
	if !a.confirm("This will replace all your current settings. Continue?", yes) {
		fmt.Fprintln(a.stderr, "Import cancelled.")
		return ExitCancelled
	}
	if err := a.settings.ImportCSV(context.Background(), bytes.NewReader(b)); err != nil {
		fmt.Fprintln(a.stderr, "Error: Failed to parse settings CSV file.")
		return a.fail("settings import", err)
	}
	a.info("Settings imported successfully!")
	return ExitOK
}

func (a *app) settingsExport(args []string) int {
	fs := a.flagSet("settings export")
	code, ok := a.parse(fs, args)
	if ok && fs.NArg() > 1 {
		return a.usage("settings export [file.csv]")
	}
	if code := a.start("settings export", ok, code); code >= 0 {
		return code
	}
	var buf bytes.Buffer
	if err := a.settings.ExportCSV(&buf); err != nil {
		return a.fail("settings export", err)
	}
	toFile, err := a.writeOutput(fs.Arg(0), buf.Bytes())
	if err != nil {
		return a.fail("settings export", err)
	}
	if toFile {
		a.info("Settings exported successfully!")
	}
	return ExitOK
}
