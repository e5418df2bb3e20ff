package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/tidwall/jsonc"

	"github.com/amirbrooks/ticket-tracker/internal/csvio"
	"github.com/amirbrooks/ticket-tracker/internal/kv"
)

// EnumFields are the vocabularies the settings page edits.
var EnumFields = csvio.EnumFields

// SettingsState is the persisted settings document.
type SettingsState struct {
	Enums         map[string][]string `json:"enums"`
	StatusMapping map[string]string   `json:"statusMapping"`
	PrefixText    string              `json:"prefixText"`
	DarkMode      bool                `json:"darkMode"`
}

func (st SettingsState) clone() SettingsState {
	c := SettingsState{
		Enums:         make(map[string][]string, len(st.Enums)),
		StatusMapping: maps.Clone(st.StatusMapping),
		PrefixText:    st.PrefixText,
		DarkMode:      st.DarkMode,
	}
	for k, v := range st.Enums {
		c.Enums[k] = slices.Clone(v)
	}
	if c.StatusMapping == nil {
		c.StatusMapping = map[string]string{}
	}
	return c
}

// DefaultSettings returns the baseline vocabulary and mapping.
func DefaultSettings() SettingsState {
	return SettingsState{
		Enums: map[string][]string{
			"statusInternal": {
				"new", "validating", "waiting-external", "waiting-internal",
				"resolved", "resolved-wfc", "someone else is handling",
			},
			"todo":    {"yes-priority", "yes", "no"},
			"rank":    {"normal", "high"},
			"askedTo": {"John Doe", "Client Team", "Dev Team", "QA Team", "Product Team"},
			"tags": {
				"backend", "api", "client", "feedback", "deployment",
				"bugfix", "testing", "review", "feature", "enhancement",
			},
		},
		StatusMapping: map[string]string{
			"new":                      "new",
			"validating":               "In validation",
			"waiting-external":         "WFC",
			"waiting-internal":         "In progress",
			"resolved":                 "Resolved",
			"resolved-wfc":             "WFC",
			"someone else is handling": "WFC",
		},
	}
}

// LoadWarning is returned by Settings.Load when neither storage nor the
// bundled file supplied settings and the baseline is in use. It is not
// fatal.
type LoadWarning struct {
	Err error
}

func (w *LoadWarning) Error() string {
	if w.Err == nil {
		return "using built-in settings"
	}
	return "using built-in settings: " + w.Err.Error()
}

func (w *LoadWarning) Unwrap() error { return w.Err }

var errNoBundledSettings = errors.New("no bundled settings file configured")

// Settings owns the settings document. Not safe for concurrent use.
type Settings struct {
	kv    kv.Store
	opt   options
	state SettingsState
	dirty bool
}

func NewSettings(storage kv.Store, opts ...Option) *Settings {
	return &Settings{kv: storage, opt: buildOptions(opts), state: DefaultSettings()}
}

// Load reads settings from storage, else the bundled CSV, else the
// baseline. Stored documents may be partial; missing parts keep their
// baseline values. Bundled and baseline results are written back. A
// failed read returns a *StorageError with an empty source and leaves
// storage untouched.
func (s *Settings) Load(ctx context.Context) (LoadSource, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	log := s.opt.logger

	state, ok, err := s.loadStored()
	switch {
	case errors.Is(err, ErrStorage):
		log.Warn("stored settings unreadable", "key", SettingsKey, "error", err)
		return "", err
	case err != nil:
		log.Warn("stored settings corrupt, falling back", "key", SettingsKey, "error", err)
	}
	if ok {
		s.state = state
		log.Debug("settings loaded", "source", SourceStorage)
		return SourceStorage, nil
	}

	rec, err := s.loadBundled()
	if err != nil {
		s.state = DefaultSettings()
		if errors.Is(err, errNoBundledSettings) {
			log.Debug("settings fallback to defaults")
		} else {
			log.Warn("settings fallback to defaults", "path", s.opt.bundledCSV, "error", err)
		}
		warning := &LoadWarning{Err: err}
		if perr := s.persist(); perr != nil {
			return SourceDefaults, errors.Join(warning, perr)
		}
		return SourceDefaults, warning
	}
	s.state = fromSettingsRecord(rec)
	log.Debug("settings loaded", "source", SourceBundled, "path", s.opt.bundledCSV)
	return SourceBundled, s.persist()
}

type storedSettings struct {
	Enums         map[string][]string `json:"enums"`
	StatusMapping map[string]string   `json:"statusMapping"`
	PrefixText    *string             `json:"prefixText"`
	DarkMode      *bool               `json:"darkMode"`
}

func (s *Settings) loadStored() (SettingsState, bool, error) {
	raw, ok, err := s.kv.Get(SettingsKey)
	if err != nil {
		return SettingsState{}, false, &StorageError{Key: SettingsKey, Err: err}
	}
	if !ok || raw == "" {
		return SettingsState{}, false, nil
	}
	var doc *storedSettings
	if err := json.Unmarshal(jsonc.ToJSON([]byte(raw)), &doc); err != nil {
		return SettingsState{}, false, &ParseError{Source: SettingsKey, Err: err}
	}
	if doc == nil {
		return SettingsState{}, false, nil
	}
	state := DefaultSettings()
	for field, values := range doc.Enums {
		if values != nil {
			state.Enums[field] = values
		}
	}
	if doc.StatusMapping != nil {
		state.StatusMapping = doc.StatusMapping
	}
	if doc.PrefixText != nil {
		state.PrefixText = *doc.PrefixText
	}
	if doc.DarkMode != nil {
		state.DarkMode = *doc.DarkMode
	}
	return state, true, nil
}

func (s *Settings) loadBundled() (csvio.SettingsRecord, error) {
	if s.opt.bundledCSV == "" {
		return csvio.SettingsRecord{}, errNoBundledSettings
	}
	f, err := os.Open(s.opt.bundledCSV)
	if err != nil {
		return csvio.SettingsRecord{}, err
	}
	defer f.Close()
	return csvio.ReadSettings(f)
}

func fromSettingsRecord(rec csvio.SettingsRecord) SettingsState {
	return SettingsState{
		Enums:         rec.Enums,
		StatusMapping: rec.StatusMapping,
		PrefixText:    rec.PrefixText,
		DarkMode:      rec.DarkMode,
	}.clone()
}

// Snapshot returns a copy of the current settings.
func (s *Settings) Snapshot() SettingsState { return s.state.clone() }

func (s *Settings) StatusMapping() map[string]string { return maps.Clone(s.state.StatusMapping) }

func (s *Settings) PrefixText() string { return s.state.PrefixText }

func (s *Settings) DarkMode() bool { return s.state.DarkMode }

// Enum returns the values offered for field.
func (s *Settings) Enum(field string) []string { return slices.Clone(s.state.Enums[field]) }

func (s *Settings) Dirty() bool { return s.dirty }

// UpdateEnum replaces the vocabulary for one of EnumFields.
func (s *Settings) UpdateEnum(field string, values []string) error {
	if !slices.Contains(EnumFields, field) {
		return &ValidationError{Field: "field", Msg: fmt.Sprintf("unknown enum field %q", field)}
	}
	if values == nil {
		values = []string{}
	}
	s.state.Enums[field] = slices.Clone(values)
	return s.persist()
}

// ToggleDarkMode flips the dark mode flag and returns the new value.
func (s *Settings) ToggleDarkMode() (bool, error) {
	s.state.DarkMode = !s.state.DarkMode
	return s.state.DarkMode, s.persist()
}

// UpdateStatusMapping replaces the whole mapping. Existing tasks keep
// their external status until edited or recomputed.
func (s *Settings) UpdateStatusMapping(m map[string]string) error {
	m = maps.Clone(m)
	if m == nil {
		m = map[string]string{}
	}
	s.state.StatusMapping = m
	return s.persist()
}

func (s *Settings) UpdatePrefixText(text string) error {
	s.state.PrefixText = text
	return s.persist()
}

func (s *Settings) ResetToDefaults() error {
	s.state = DefaultSettings()
	return s.persist()
}

// ImportCSV replaces every setting with the row in r. A parse failure
// changes nothing.
func (s *Settings) ImportCSV(ctx context.Context, r io.Reader) error {
	rec, err := csvio.ReadSettings(r)
	if err != nil {
		return &ParseError{Source: "settings csv", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = fromSettingsRecord(rec)
	s.opt.logger.Debug("settings imported")
	return s.persist()
}

func (s *Settings) ExportCSV(w io.Writer) error {
	st := s.state.clone()
	return csvio.WriteSettings(w, csvio.SettingsRecord{
		DarkMode:      st.DarkMode,
		PrefixText:    st.PrefixText,
		Enums:         st.Enums,
		StatusMapping: st.StatusMapping,
	})
}

// Flush rewrites settings to storage.
func (s *Settings) Flush() error { return s.persist() }

func (s *Settings) persist() error {
	b, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.kv.Set(SettingsKey, string(b)); err != nil {
		s.dirty = true
		serr := &StorageError{Key: SettingsKey, Quota: errors.Is(err, kv.ErrQuotaExceeded), Err: err}
		s.opt.logger.Warn("settings not saved", "key", SettingsKey, "quota", serr.Quota, "error", err)
		return serr
	}
	s.dirty = false
	s.opt.logger.Debug("settings saved", "key", SettingsKey, "bytes", len(b))
	return nil
}
