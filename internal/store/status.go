package store

import "strings"

// ExternalStatus returns the outward-facing status for an internal one.
// Unmapped and empty statuses map to "".
func ExternalStatus(internal string, mapping map[string]string) string {
	if internal == "" {
		return ""
	}
	return mapping[internal]
}

// Rank order: high before normal before anything else.
var rankOrder = map[string]int{
	"high":   2,
	"normal": 1,
}

func RankValue(rank string) int {
	return rankOrder[rank]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
