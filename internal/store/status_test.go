package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExternalStatus(t *testing.T) {
	mapping := defaultMapping()
	tests := []struct {
		internal string
		want     string
	}{
		{"validating", "In validation"},
		{"waiting-internal", "In progress"},
		{"someone else is handling", "WFC"},
		{"unknown", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExternalStatus(tt.internal, mapping), tt.internal)
	}
	assert.Equal(t, "", ExternalStatus("new", nil))
}

func TestRankValue(t *testing.T) {
	assert.Equal(t, 2, RankValue("high"))
	assert.Equal(t, 1, RankValue("normal"))
	assert.Equal(t, 0, RankValue(""))
	assert.Equal(t, 0, RankValue("HIGH"))
}
