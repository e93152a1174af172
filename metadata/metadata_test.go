package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCanonical(t *testing.T) {
	m := Metadata{"lang": "en", "author": "smith"}
	// Keys sorted: author before lang.
	assert.Equal(t, "author=smith;lang=en", Encode(m))
	assert.Equal(t, "", Encode(nil))
	assert.Equal(t, "", Encode(Metadata{}))
}

func TestEncodeEscaping(t *testing.T) {
	m := Metadata{`a=b`: `c;d\e`}
	enc := Encode(m)
	assert.Equal(t, `a\=b=c\;d\\e`, enc)

	dec, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, m, dec)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Metadata
	}{
		{"Empty", "", Metadata{}},
		{"Single", "k=v", Metadata{"k": "v"}},
		{"Multi", "a=1;b=2", Metadata{"a": "1", "b": "2"}},
		{"EmptyValue", "k=", Metadata{"k": ""}},
		{"EmptyKeySkipped", "=v", Metadata{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTrailingEscape(t *testing.T) {
	_, err := Decode(`k=v\`)
	require.ErrorIs(t, err, ErrTrailingEscape)
}

func TestRoundTrip(t *testing.T) {
	m := Metadata{"lang": "en", "year": "2024", "path": `c:\tmp;x=y`}
	dec, err := Decode(Encode(m))
	require.NoError(t, err)
	assert.Equal(t, m, dec)
}

func TestFilterMatches(t *testing.T) {
	m := Metadata{"lang": "en"}

	assert.True(t, Filter{}.Matches(m))
	assert.True(t, Filter{Key: "lang", Value: "en"}.Matches(m))
	assert.False(t, Filter{Key: "lang", Value: "fr"}.Matches(m))
	assert.False(t, Filter{Key: "author", Value: "en"}.Matches(m))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("lang=en")
	require.NoError(t, err)
	assert.Equal(t, Filter{Key: "lang", Value: "en"}, f)

	for _, bad := range []string{"", "lang", "=en", "lang="} {
		_, err := ParseFilter(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestInvertedIndex(t *testing.T) {
	ix := NewInvertedIndex()
	ix.Add(0, Metadata{"lang": "en"})
	ix.Add(1, Metadata{"lang": "en"})
	ix.Add(2, Metadata{"lang": "fr"})

	en := ix.Lookup(Filter{Key: "lang", Value: "en"})
	require.NotNil(t, en)
	assert.Equal(t, uint64(2), en.GetCardinality())
	assert.True(t, en.Contains(0))
	assert.True(t, en.Contains(1))

	assert.Nil(t, ix.Lookup(Filter{Key: "lang", Value: "de"}))

	ix.Remove(1, Metadata{"lang": "en"})
	en = ix.Lookup(Filter{Key: "lang", Value: "en"})
	require.NotNil(t, en)
	assert.False(t, en.Contains(1))

	ix.Replace(2, Metadata{"lang": "fr"}, Metadata{"lang": "en"})
	assert.Nil(t, ix.Lookup(Filter{Key: "lang", Value: "fr"}))
	assert.True(t, ix.Lookup(Filter{Key: "lang", Value: "en"}).Contains(2))
}
