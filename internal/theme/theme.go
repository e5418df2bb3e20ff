// Package theme styles terminal output: status badges colored by status
// family, with separate light and dark palettes.
package theme

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Class is a status color family.
type Class string

const (
	ClassValidating Class = "validating"
	ClassInProgress Class = "in progress"
	ClassResolved   Class = "resolved"
	ClassWaiting    Class = "waiting"
	ClassDefault    Class = "default"
)

// Checked in order; the first substring hit wins.
var classOrder = []Class{ClassValidating, ClassInProgress, ClassResolved, ClassWaiting}

// StatusClass picks the color family for a status by case-insensitive
// substring match.
func StatusClass(status string) Class {
	s := strings.ToLower(status)
	if s == "" {
		return ClassDefault
	}
	for _, c := range classOrder {
		if strings.Contains(s, string(c)) {
			return c
		}
	}
	return ClassDefault
}

type swatch struct {
	bg, fg lipgloss.Color
}

var lightPalette = map[Class]swatch{
	ClassValidating: {"#BFDBFE", "#1E3A8A"},
	ClassInProgress: {"#FEF08A", "#713F12"},
	ClassResolved:   {"#BBF7D0", "#14532D"},
	ClassWaiting:    {"#FED7AA", "#7C2D12"},
	ClassDefault:    {"#E5E7EB", "#111827"},
}

var darkPalette = map[Class]swatch{
	ClassValidating: {"#1D4ED8", "#DBEAFE"},
	ClassInProgress: {"#A16207", "#FEF9C3"},
	ClassResolved:   {"#15803D", "#DCFCE7"},
	ClassWaiting:    {"#C2410C", "#FFFFFF"},
	ClassDefault:    {"#4B5563", "#F3F4F6"},
}

// Theme renders styled strings for one output stream.
type Theme struct {
	r       *lipgloss.Renderer
	dark    bool
	enabled bool
}

// New builds a theme for w. mode is auto, always or never; auto colors
// only when w is a terminal. dark selects the dark palette.
func New(w io.Writer, mode string, dark bool) *Theme {
	r := lipgloss.NewRenderer(w)
	enabled := false
	switch mode {
	case "always":
		r.SetColorProfile(termenv.TrueColor)
		enabled = true
	case "never":
		r.SetColorProfile(termenv.Ascii)
	default:
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			enabled = r.ColorProfile() != termenv.Ascii
		} else {
			r.SetColorProfile(termenv.Ascii)
		}
	}
	return &Theme{r: r, dark: dark, enabled: enabled}
}

func (t *Theme) Enabled() bool { return t.enabled }

// StatusLabel is the text shown on a badge: the internal status, else
// the external one, else N/A.
func StatusLabel(internal, external string) string {
	switch {
	case internal != "":
		return internal
	case external != "":
		return external
	default:
		return "N/A"
	}
}

// Badge renders label in the colors of its status family.
func (t *Theme) Badge(label string) string {
	if !t.enabled {
		return label
	}
	palette := lightPalette
	if t.dark {
		palette = darkPalette
	}
	sw := palette[StatusClass(label)]
	return t.r.NewStyle().Background(sw.bg).Foreground(sw.fg).Padding(0, 1).Render(label)
}

func (t *Theme) Heading(s string) string {
	if !t.enabled {
		return s
	}
	return t.r.NewStyle().Bold(true).Render(s)
}

func (t *Theme) Muted(s string) string {
	if !t.enabled {
		return s
	}
	fg := lipgloss.Color("#6B7280")
	if t.dark {
		fg = lipgloss.Color("#9CA3AF")
	}
	return t.r.NewStyle().Foreground(fg).Render(s)
}
