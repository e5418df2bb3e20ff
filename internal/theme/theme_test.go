package theme

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	tests := map[string]Class{
		"validating":               ClassValidating,
		"In validation":            ClassDefault,
		"In progress":              ClassInProgress,
		"resolved":                 ClassResolved,
		"resolved-wfc":             ClassResolved,
		"waiting-external":         ClassWaiting,
		"WAITING-internal":         ClassWaiting,
		"someone else is handling": ClassDefault,
		"":                         ClassDefault,
	}
	for status, want := range tests {
		assert.Equal(t, want, StatusClass(status), status)
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "new", StatusLabel("new", "New"))
	assert.Equal(t, "WFC", StatusLabel("", "WFC"))
	assert.Equal(t, "N/A", StatusLabel("", ""))
}

func TestColorModes(t *testing.T) {
	var buf bytes.Buffer

	plain := New(&buf, "never", false)
	assert.False(t, plain.Enabled())
	assert.Equal(t, "validating", plain.Badge("validating"))
	assert.Equal(t, "x", plain.Heading("x"))

	// A buffer is never a terminal.
	auto := New(&buf, "auto", false)
	assert.False(t, auto.Enabled())
	assert.Equal(t, "resolved", auto.Badge("resolved"))

	light := New(&buf, "always", false)
	dark := New(&buf, "always", true)
	assert.True(t, light.Enabled())
	l, d := light.Badge("resolved"), dark.Badge("resolved")
	assert.True(t, strings.Contains(l, "\x1b["), "expected ANSI escapes in %q", l)
	assert.Contains(t, l, "resolved")
	assert.NotEqual(t, l, d)
}
