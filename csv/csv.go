// Package csv parses the vector CSV boundary format: an optional leading id
// column, exactly dim float columns, and an optional trailing metadata
// token. It is an adapter onto the core API and carries line numbers in its
// errors.
//
// Files ending in ".gz" are decompressed transparently.
package csv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Options control how rows are interpreted.
type Options struct {
	HasHeader     bool // skip the first data row
	HasID         bool // first column is always the id, even if numeric
	InferID       bool // treat the first column as id when it isn't a float
	AllowMetadata bool // accept one trailing metadata column
}

// Row is one parsed CSV record.
type Row struct {
	HasID       bool
	ID          string
	Vec         []float32
	HasMetadata bool
	MetadataRaw string
}

// ParseError decorates a parse failure with its source line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv: parse error at line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// splitQuoted splits a CSV line honoring double-quoted fields with doubled
// quotes as escapes. Fields come back trimmed.
func splitQuoted(line string) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		if inQuotes {
			if ch == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					cur.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				cur.WriteByte(ch)
			}
			continue
		}
		switch ch {
		case '"':
			inQuotes = true
		case ',':
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	parts = append(parts, strings.TrimSpace(cur.String()))
	return parts
}

func parseFloat(s string) (float32, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}

// ParseLine parses a single CSV line. dimExpected 0 disables the dimension
// check (and metadata detection, which needs a known width).
func ParseLine(line string, dimExpected int, opts Options) (Row, error) {
	var row Row

	parts := splitQuoted(line)
	if len(parts) == 0 {
		return row, fmt.Errorf("empty csv line")
	}

	start := 0
	switch {
	case opts.HasID:
		row.HasID = true
		row.ID = parts[0]
		start = 1
	case opts.InferID:
		if _, isFloat := parseFloat(parts[0]); !isFloat {
			row.HasID = true
			row.ID = parts[0]
			start = 1
		}
	}

	if start >= len(parts) {
		return row, fmt.Errorf("no vector values found")
	}

	remaining := len(parts) - start
	hasMeta := false
	if opts.AllowMetadata && dimExpected > 0 {
		switch {
		case remaining == dimExpected+1:
			hasMeta = true
		case remaining > dimExpected+1:
			return row, fmt.Errorf("too many columns (metadata expects exactly one extra column)")
		}
	}

	vecCount := remaining
	if hasMeta {
		vecCount--
	}
	if dimExpected > 0 && vecCount != dimExpected {
		return row, fmt.Errorf("dimension mismatch: expected dim=%d got dim=%d", dimExpected, vecCount)
	}

	row.Vec = make([]float32, 0, vecCount)
	for i := start; i < start+vecCount; i++ {
		v, ok := parseFloat(parts[i])
		if !ok {
			return row, fmt.Errorf("failed to parse float at column %d: %q", i+1, parts[i])
		}
		row.Vec = append(row.Vec, v)
	}

	if hasMeta {
		row.HasMetadata = true
		row.MetadataRaw = parts[start+vecCount]
	}

	return row, nil
}

// open returns a reader over path, decompressing ".gz" files.
func open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &gzipReadCloser{zr: zr, f: f}, nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// ForEachRow streams rows from path to the callback. Blank lines and lines
// starting with '#' are skipped, a UTF-8 BOM on the first line is stripped,
// and a header row is skipped when configured. The callback returns false to
// stop early without error. Parse failures abort with a ParseError carrying
// the line number.
func ForEachRow(path string, dimExpected int, opts Options, fn func(Row) (bool, error)) error {
	r, err := open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	headerSkipped := false
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' {
			continue
		}
		if opts.HasHeader && !headerSkipped {
			headerSkipped = true
			continue
		}

		row, err := ParseLine(line, dimExpected, opts)
		if err != nil {
			return &ParseError{Line: lineNo, Err: err}
		}

		cont, err := fn(row)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return sc.Err()
}
