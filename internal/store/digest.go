package store

import (
	"strings"
	"time"
)

// DigestWindow is how far back Digest looks.
const DigestWindow = 24 * time.Hour

// Digest is the plain-text summary of recently updated tickets, one
// "<prefix><ticket> <external status>" line per task.
type Digest struct {
	Lines []string
	// Total is the size of the whole collection, so callers can tell
	// "no tasks at all" from "nothing recent".
	Total int
}

func (d Digest) Empty() bool { return len(d.Lines) == 0 }

func (d Digest) String() string { return strings.Join(d.Lines, "\n") }

// BuildDigest selects tasks whose lastUpdated lies in [now-24h, now]. The
// external status is derived from mapping rather than read from the task.
func BuildDigest(tasks []Task, now time.Time, mapping map[string]string, prefix string) Digest {
	d := Digest{Lines: []string{}, Total: len(tasks)}
	from := now.Add(-DigestWindow)
	for _, t := range tasks {
		ts := t.LastUpdated
		if ts.IsZero() || ts.Before(from) || ts.After(now) {
			continue
		}
		d.Lines = append(d.Lines, prefix+t.TicketNumber+" "+ExternalStatus(t.StatusInternal, mapping))
	}
	return d
}
