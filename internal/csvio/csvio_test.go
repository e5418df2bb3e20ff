package csvio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTasksEmptyAndNoRows(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"no bytes", "", ErrEmptyFile},
		{"whitespace", " \n\t\n", ErrEmptyFile},
		{"bom only", "\ufeff\n", ErrEmptyFile},
		{"header only", "ticketNumber,rank\n", ErrNoRows},
		{"header and blank rows", "ticketNumber,rank\n,\n\n", ErrNoRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTasks(strings.NewReader(tt.input))
			require.ErrorIs(t, err, tt.want)
			assert.False(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestReadTasksMalformed(t *testing.T) {
	_, err := ReadTasks(strings.NewReader("ticketNumber,notes\nA-1,\"unterminated\n"))
	require.ErrorIs(t, err, ErrMalformed)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)

	_, err = ReadTasks(strings.NewReader("foo,bar\n1,2\n"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestReadTasksDefaultsAndIgnoredColumns(t *testing.T) {
	input := "\ufeffTicketNumber,rank,extra,tags\nA-1,high,zzz,\"api, backend\"\nB-2,,,\n"
	recs, err := ReadTasks(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "A-1", recs[0].TicketNumber)
	assert.Equal(t, "high", recs[0].Rank)
	assert.Equal(t, "api, backend", recs[0].Tags)
	assert.Equal(t, DefaultAskedToStatus, recs[0].AskedToStatus)
	assert.Equal(t, 2, recs[0].Line)
	assert.Equal(t, 3, recs[1].Line)
	assert.Empty(t, recs[1].ID)
}

func TestTasksRoundTrip(t *testing.T) {
	in := []TaskRecord{
		{TicketNumber: "T-1", StatusInternal: "new", StatusExternal: "new", Todo: "yes", Rank: "high",
			Notes: "line one\nline, two", AskedTo: "Dev Team", AskedToStatus: "done",
			LastUpdated: "01/01/2024, 10:00", Tags: JoinTags([]string{"api", "backend"})},
		{TicketNumber: "T-2", Rank: "normal", LastUpdated: "02/01/2024, 11:30"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTasks(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(TaskColumns, ",")+"\n"))

	out, err := ReadTasks(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i := range in {
		want := in[i]
		if want.AskedToStatus == "" {
			want.AskedToStatus = DefaultAskedToStatus
		}
		want.Line = out[i].Line
		assert.Equal(t, want, out[i])
	}
}

func TestWriteTasksEmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTasks(&buf, nil))
	assert.Equal(t, strings.Join(TaskColumns, ",")+"\n", buf.String())
}

func TestSettingsRoundTrip(t *testing.T) {
	in := SettingsRecord{
		DarkMode:   true,
		PrefixText: "Ticket ",
		Enums: map[string][]string{
			"statusInternal": {"new", "resolved"},
			"todo":           {"yes", "no"},
			"rank":           {"normal", "high"},
			"askedTo":        {"Dev Team"},
			"tags":           {},
		},
		StatusMapping: map[string]string{"new": "new", "resolved": "Resolved"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSettings(&buf, in))

	out, err := ReadSettings(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadSettingsLenientCells(t *testing.T) {
	input := "darkMode,prefixText,rank,statusMapping\n" +
		"false,,\"[\"\"normal\"\", /* top */ \"\"high\"\",]\",\n"
	out, err := ReadSettings(strings.NewReader(input))
	require.NoError(t, err)
	assert.False(t, out.DarkMode)
	assert.Equal(t, []string{"normal", "high"}, out.Enums["rank"])
	assert.Equal(t, []string{}, out.Enums["todo"])
	assert.Equal(t, map[string]string{}, out.StatusMapping)
}

func TestReadSettingsBadJSONCell(t *testing.T) {
	input := "darkMode,todo\ntrue,not json\n"
	_, err := ReadSettings(strings.NewReader(input))
	require.ErrorIs(t, err, ErrMalformed)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, 2, pe.Column)
}
