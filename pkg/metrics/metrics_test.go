package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ListingDone(etymology.Latin, true)
		m.Page(PageEmpty)
		m.BatchCommitted(3)
		m.Cleaned("duplicates", 2)
		m.Query("edit", QueryMatched, 0.5)
	})
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ListingDone(etymology.Latin, true)
	m.ListingDone(etymology.Latin, false)
	m.Page(PageExtracted)
	m.Page(PageExtracted)
	m.Page(PageFailed)
	m.BatchCommitted(4)
	m.Cleaned("empty", 0)
	m.Query("edit", QueryMatched, 0.83)
	m.Query("edit", QueryNoMatch, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.listings.WithLabelValues("Latin", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.pages.WithLabelValues(PageExtracted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.entries))
	assert.Equal(t, 0, testutil.CollectAndCount(m.cleaned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("edit", QueryNoMatch)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.similarity))
}

type fakeCounter struct {
	counts map[etymology.Language]int64
	err    error
}

func (f fakeCounter) CountByLanguage(context.Context) (map[etymology.Language]int64, error) {
	return f.counts, f.err
}

func TestCorpusCollector(t *testing.T) {
	c := NewCorpusCollector(fakeCounter{counts: map[etymology.Language]int64{etymology.French: 3}})
	expected := `
# HELP etymoagent_corpus_words Corpus rows by origin language
# TYPE etymoagent_corpus_words gauge
etymoagent_corpus_words{language="French"} 3
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))

	failing := NewCorpusCollector(fakeCounter{err: errors.New("db down")})
	assert.Equal(t, 0, testutil.CollectAndCount(failing))
}
