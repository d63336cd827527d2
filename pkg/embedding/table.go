package embedding

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Table is an in-memory word embedding table.
type Table struct {
	dim     int
	vectors map[string][]float32
}

// Load reads a word2vec/GloVe text table from path. Gzip input is detected
// from its magic bytes.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load embeddings %s: %w", path, err)
	}
	return t, nil
}

// Read parses a text table: an optional "<count> <dim>" header, then one
// "word v1 v2 ... vD" line per word. Every row must have the same dimension.
func Read(r io.Reader) (*Table, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	if magic, err := br.Peek(2); err == nil && bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		br = bufio.NewReaderSize(gz, 1<<16)
	}

	t := &Table{vectors: make(map[string][]float32)}
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<24)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				dim, err := strconv.Atoi(fields[1])
				if err != nil || dim <= 0 {
					return nil, fmt.Errorf("line 1: invalid header %q", sc.Text())
				}
				t.dim = dim
				continue
			}
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: no vector", line)
		}
		if t.dim == 0 {
			t.dim = len(fields) - 1
		}
		if len(fields)-1 != t.dim {
			return nil, fmt.Errorf("line %d: dimension %d, want %d", line, len(fields)-1, t.dim)
		}
		vec := make([]float32, t.dim)
		for i, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vec[i] = float32(v)
		}
		// First occurrence wins, as in the usual frequency-sorted tables.
		if _, ok := t.vectors[fields[0]]; !ok {
			t.vectors[fields[0]] = vec
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(t.vectors) == 0 {
		return nil, fmt.Errorf("empty embedding table")
	}
	return t, nil
}

// FromMap builds a table from vectors of equal length.
func FromMap(vectors map[string][]float32) (*Table, error) {
	t := &Table{vectors: make(map[string][]float32, len(vectors))}
	for w, v := range vectors {
		if t.dim == 0 {
			t.dim = len(v)
		}
		if len(v) != t.dim || t.dim == 0 {
			return nil, fmt.Errorf("vector for %q has dimension %d, want %d", w, len(v), t.dim)
		}
		t.vectors[w] = v
	}
	return t, nil
}

// Dim is the vector length. A nil table has dimension 0.
func (t *Table) Dim() int {
	if t == nil {
		return 0
	}
	return t.dim
}

// Len is the number of words.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.vectors)
}

// Lookup returns the vector for word, trying the exact form then lower case.
func (t *Table) Lookup(word string) ([]float32, bool) {
	if t == nil {
		return nil, false
	}
	if v, ok := t.vectors[word]; ok {
		return v, true
	}
	v, ok := t.vectors[strings.ToLower(word)]
	return v, ok
}

// Vector returns the vector for word, or a zero vector when it is unknown.
func (t *Table) Vector(word string) []float32 {
	if v, ok := t.Lookup(word); ok {
		return v
	}
	return make([]float32, t.Dim())
}
