package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLinePlainVector(t *testing.T) {
	row, err := ParseLine("0.1,0.2,0.3", 3, Options{})
	require.NoError(t, err)
	assert.False(t, row.HasID)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, row.Vec)
}

func TestParseLineForcedID(t *testing.T) {
	row, err := ParseLine("42,0.1,0.2", 2, Options{HasID: true})
	require.NoError(t, err)
	assert.True(t, row.HasID)
	assert.Equal(t, "42", row.ID)
	assert.Equal(t, []float32{0.1, 0.2}, row.Vec)
}

func TestParseLineInferredID(t *testing.T) {
	// First token is not a float: treated as id.
	row, err := ParseLine("doc1,0.1,0.2", 2, Options{InferID: true})
	require.NoError(t, err)
	assert.True(t, row.HasID)
	assert.Equal(t, "doc1", row.ID)

	// First token parses as a float: no id.
	row, err = ParseLine("0.5,0.1", 2, Options{InferID: true})
	require.NoError(t, err)
	assert.False(t, row.HasID)
	assert.Equal(t, []float32{0.5, 0.1}, row.Vec)
}

func TestParseLineMetadata(t *testing.T) {
	row, err := ParseLine("doc1,0.1,0.2,lang=en", 2, Options{HasID: true, AllowMetadata: true})
	require.NoError(t, err)
	assert.True(t, row.HasMetadata)
	assert.Equal(t, "lang=en", row.MetadataRaw)
	assert.Equal(t, []float32{0.1, 0.2}, row.Vec)

	// Without the option the extra column is a dimension error.
	_, err = ParseLine("doc1,0.1,0.2,lang=en", 2, Options{HasID: true})
	require.Error(t, err)

	// Two extra columns are rejected even with the option.
	_, err = ParseLine("doc1,0.1,0.2,lang=en,x=y", 2, Options{HasID: true, AllowMetadata: true})
	require.Error(t, err)
}

func TestParseLineQuotedFields(t *testing.T) {
	row, err := ParseLine(`"doc, one",0.1,0.2`, 2, Options{HasID: true})
	require.NoError(t, err)
	assert.Equal(t, "doc, one", row.ID)

	row, err = ParseLine(`"say ""hi""",1.0,2.0`, 2, Options{HasID: true})
	require.NoError(t, err)
	assert.Equal(t, `say "hi"`, row.ID)
}

func TestParseLineErrors(t *testing.T) {
	_, err := ParseLine("0.1,notafloat", 2, Options{})
	require.Error(t, err)

	_, err = ParseLine("0.1,0.2,0.3", 2, Options{})
	require.Error(t, err)

	_, err = ParseLine("doc1", 2, Options{HasID: true})
	require.Error(t, err)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestForEachRow(t *testing.T) {
	path := writeTemp(t, "vectors.csv", "\xef\xbb\xbfid,f1,f2\n# comment\n\ndoc1,0.1,0.2\ndoc2,0.3,0.4\n")

	var rows []Row
	err := ForEachRow(path, 2, Options{HasHeader: true, HasID: true}, func(r Row) (bool, error) {
		rows = append(rows, r)
		return true, nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "doc1", rows[0].ID)
	assert.Equal(t, "doc2", rows[1].ID)
}

func TestForEachRowEarlyStop(t *testing.T) {
	path := writeTemp(t, "vectors.csv", "a,1,2\nb,3,4\nc,5,6\n")

	count := 0
	err := ForEachRow(path, 2, Options{HasID: true}, func(r Row) (bool, error) {
		count++
		return count < 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestForEachRowParseErrorCarriesLine(t *testing.T) {
	path := writeTemp(t, "vectors.csv", "a,1,2\nb,bad,4\n")

	err := ForEachRow(path, 2, Options{HasID: true}, func(r Row) (bool, error) {
		return true, nil
	})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
}

func TestForEachRowGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("doc1,0.1,0.2\ndoc2,0.3,0.4\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	var ids []string
	err = ForEachRow(path, 2, Options{HasID: true}, func(r Row) (bool, error) {
		ids = append(ids, r.ID)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1", "doc2"}, ids)
}
