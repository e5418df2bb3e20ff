// Package kv is the key-value persistence layer behind the ticket and
// settings stores. Values are opaque strings; callers own the encoding.
//
// Three backends are provided: an in-memory map (tests, --storage memory),
// a directory of one file per key, and a single SQLite table. Each can be
// given a byte quota so quota exhaustion can be exercised the same way on
// every backend.
package kv

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrQuotaExceeded is returned by Set when storing the value would take
// the backend over its configured byte limit. The previous value is kept.
var ErrQuotaExceeded = errors.New("kv: quota exceeded")

// ErrInvalidKey is returned for keys a backend cannot store.
var ErrInvalidKey = errors.New("kv: invalid key")

// Store is the minimal get/set contract. Get reports ok=false for a key
// that was never set.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// quotaCheck reports ErrQuotaExceeded when replacing oldLen bytes with
// newLen bytes would push used over limit. limit <= 0 means unlimited.
func quotaCheck(limit, used, oldLen, newLen int64) error {
	if limit <= 0 {
		return nil
	}
	if used-oldLen+newLen > limit {
		return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, used-oldLen+newLen, limit)
	}
	return nil
}
