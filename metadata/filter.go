package metadata

import (
	"errors"
	"strings"
)

// Filter is an exact key/value match over a record's metadata.
// The zero Filter is empty and matches everything.
type Filter struct {
	Key   string
	Value string
}

// IsEmpty reports whether the filter has no key.
func (f Filter) IsEmpty() bool {
	return f.Key == ""
}

// Matches checks if the provided metadata matches this filter.
func (f Filter) Matches(m Metadata) bool {
	if f.IsEmpty() {
		return true
	}
	v, ok := m[f.Key]
	return ok && v == f.Value
}

// ParseFilter parses a "key=value" filter expression.
func ParseFilter(s string) (Filter, error) {
	pos := strings.IndexByte(s, '=')
	if pos <= 0 || pos+1 >= len(s) {
		return Filter{}, errors.New("filter must be in form key=value")
	}
	return Filter{Key: s[:pos], Value: s[pos+1:]}, nil
}
