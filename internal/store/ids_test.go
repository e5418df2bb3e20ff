package store

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTaskIDMonotonicWithinMillisecond(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = newTaskID(now)
	}
	assert.True(t, sort.StringsAreSorted(ids))
	for i := 1; i < len(ids); i++ {
		assert.NotEqual(t, ids[i-1], ids[i])
	}
	assert.True(t, strings.HasPrefix(ids[0], idPrefix))
}
