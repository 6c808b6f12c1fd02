// Package schedule flattens the upstream station-list and schedule XML
// documents into plain field maps.
package schedule

// Fields maps a schedule entry's keys to their text. A nil value means the
// element was present but had no text.
type Fields map[string]*string

// Get returns the text for key and whether it was present with a value.
func (f Fields) Get(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Lookup returns the raw value for key, nil if absent or empty.
func (f Fields) Lookup(key string) *string {
	return f[key]
}

// Set stores a present value.
func (f Fields) Set(key, value string) {
	f[key] = &value
}
