package kv

// Memory is a map-backed Store. Not safe for concurrent use.
type Memory struct {
	limit  int64
	values map[string]string

	// FailWith, when non-nil, is returned by every Set. Tests use it to
	// simulate a broken backend.
	FailWith error
}

// NewMemory returns an empty store. Usage is counted as the sum of
// len(key)+len(value) over all entries; limit <= 0 disables the quota.
func NewMemory(limit int64) *Memory {
	return &Memory{limit: limit, values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	if err := validateKey(key); err != nil {
		return err
	}
	var oldLen int64
	if old, ok := m.values[key]; ok {
		oldLen = int64(len(key) + len(old))
	}
	if err := quotaCheck(m.limit, m.used(), oldLen, int64(len(key)+len(value))); err != nil {
		return err
	}
	m.values[key] = value
	return nil
}

// SetLimit changes the quota. Existing entries are never evicted.
func (m *Memory) SetLimit(limit int64) { m.limit = limit }

func (m *Memory) used() int64 {
	var n int64
	for k, v := range m.values {
		n += int64(len(k) + len(v))
	}
	return n
}
