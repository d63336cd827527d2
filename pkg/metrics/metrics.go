package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

const namespace = "etymoagent"

// Page outcomes.
const (
	PageExtracted = "extracted"
	PageEmpty     = "empty"
	PageFailed    = "failed"
	PageOffLetter = "off_letter"
)

// Query outcomes.
const (
	QueryMatched = "matched"
	QueryNoMatch = "no_match"
	QueryInvalid = "invalid"
)

// Metrics holds the application's collectors. A nil *Metrics records nothing.
type Metrics struct {
	listings   *prometheus.CounterVec
	pages      *prometheus.CounterVec
	batches    prometheus.Counter
	entries    prometheus.Counter
	cleaned    *prometheus.CounterVec
	queries    *prometheus.CounterVec
	similarity prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		listings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_total",
			Help:      "Listing pages processed by outcome.",
		}, []string{"language", "outcome"}),
		pages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Entry pages fetched by outcome.",
		}, []string{"outcome"}),
		batches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_committed_total",
			Help:      "Batches committed to the corpus store.",
		}),
		entries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_committed_total",
			Help:      "Corpus entries committed to the store.",
		}),
		cleaned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleaned_rows_total",
			Help:      "Rows changed by cleaning, by step.",
		}, []string{"step"}),
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Origin queries by outcome.",
		}, []string{"strategy", "outcome"}),
		similarity: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_similarity",
			Help:      "Similarity score of matched queries.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
}

// ListingDone counts a processed listing page.
func (m *Metrics) ListingDone(lang etymology.Language, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.listings.WithLabelValues(string(lang), outcome).Inc()
}

// Page counts a fetched entry page.
func (m *Metrics) Page(outcome string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(outcome).Inc()
}

// BatchCommitted counts a committed batch of n entries.
func (m *Metrics) BatchCommitted(n int) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.entries.Add(float64(n))
}

// Cleaned records the rows changed by one cleaning step.
func (m *Metrics) Cleaned(step string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.cleaned.WithLabelValues(step).Add(float64(n))
}

// Query records an origin query outcome and, when matched, its similarity.
func (m *Metrics) Query(strategy, outcome string, similarity float64) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(strategy, outcome).Inc()
	if outcome == QueryMatched {
		m.similarity.Observe(similarity)
	}
}

// LanguageCounter reports corpus size per origin language.
type LanguageCounter interface {
	CountByLanguage(ctx context.Context) (map[etymology.Language]int64, error)
}

var corpusWordsDesc = prometheus.NewDesc(
	namespace+"_corpus_words",
	"Corpus rows by origin language",
	[]string{"language"},
	nil,
)

// CorpusCollector reads corpus counts from the store on each scrape.
type CorpusCollector struct {
	store   LanguageCounter
	timeout time.Duration
}

// NewCorpusCollector builds a collector over store.
func NewCorpusCollector(store LanguageCounter) *CorpusCollector {
	return &CorpusCollector{store: store, timeout: 5 * time.Second}
}

// Describe sends the metric descriptor to the channel.
func (c *CorpusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- corpusWordsDesc
}

// Collect queries the store and emits one gauge per language.
func (c *CorpusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	counts, err := c.store.CountByLanguage(ctx)
	if err != nil {
		slog.Error("failed to collect corpus metrics", "error", err)
		return
	}
	for lang, n := range counts {
		ch <- prometheus.MustNewConstMetric(corpusWordsDesc, prometheus.GaugeValue, float64(n), string(lang))
	}
}
