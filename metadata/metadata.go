// Package metadata defines the per-record metadata map, its boundary codec,
// and the inverted index used to accelerate filtered scans.
package metadata

import (
	"errors"
	"sort"
	"strings"
)

// Metadata is the string-to-string attribute map attached to a record.
// A nil map is equivalent to an empty one.
type Metadata map[string]string

// ErrTrailingEscape is returned when an encoded line ends mid-escape.
var ErrTrailingEscape = errors.New("metadata: trailing escape")

// Clone returns a copy of m. Nil stays nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func escapeToken(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == ';' || c == '=' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
}

// Encode serializes m as "k=v;k2=v2" with '\', ';' and '=' escaped by a
// leading backslash. Keys are sorted so the output is canonical.
// An empty map encodes to the empty string.
func Encode(m Metadata) string {
	if len(m) == 0 {
		return ""
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		escapeToken(&sb, k)
		sb.WriteByte('=')
		escapeToken(&sb, m[k])
	}
	return sb.String()
}

// Decode parses a line produced by Encode. The empty string decodes to an
// empty map. A dangling escape at end of line is an error.
func Decode(line string) (Metadata, error) {
	out := Metadata{}
	if line == "" {
		return out, nil
	}

	var key, val strings.Builder
	inKey := true
	esc := false

	flush := func() {
		if k := key.String(); k != "" {
			out[k] = val.String()
		}
		key.Reset()
		val.Reset()
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		if esc {
			if inKey {
				key.WriteByte(c)
			} else {
				val.WriteByte(c)
			}
			esc = false
			continue
		}
		switch {
		case c == '\\':
			esc = true
		case inKey && c == '=':
			inKey = false
		case !inKey && c == ';':
			flush()
			inKey = true
		default:
			if inKey {
				key.WriteByte(c)
			} else {
				val.WriteByte(c)
			}
		}
	}

	if esc {
		return nil, ErrTrailingEscape
	}
	if key.Len() > 0 || val.Len() > 0 {
		flush()
	}
	return out, nil
}
