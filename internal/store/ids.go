package store

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

const idPrefix = "tkt_"

// One monotonic source, so ids minted in the same millisecond still sort
// in creation order.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(randReader{}, 0)
)

func newTaskID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return idPrefix + ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
