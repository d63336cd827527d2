package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/japaniel/etymoagent/pkg/etymology"
	"github.com/japaniel/etymoagent/pkg/metrics"
)

// DefaultListingURL is the category listing template; {lang} and {letter} are substituted.
const DefaultListingURL = "https://en.wiktionary.org/w/index.php?title=Category:English_terms_derived_from_{lang}&from={letter}"

// DefaultWorkers is the per-listing fetch concurrency.
const DefaultWorkers = 10

// PageFetcher discovers entry links and extracts entry pages.
// Fetch returns (nil, nil) when a page yields nothing to persist.
type PageFetcher interface {
	Listing(ctx context.Context, listingURL, letter string) ([]string, error)
	Fetch(ctx context.Context, pageURL string) (*etymology.ExtractionResult, error)
}

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Report summarizes an ingestion run.
type Report struct {
	Listings       int
	ListingsFailed int
	Pages          int
	PagesEmpty     int
	PagesFailed    int
	PagesOffLetter int
	Batches        int
	Entries        int
}

// Coordinator drives ingestion over (language, letter) listing pages.
type Coordinator struct {
	fetcher    PageFetcher
	store      Committer
	listingURL string
	workers    int
	log        *slog.Logger
	metrics    *metrics.Metrics

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
	// OnProgress is called after each listing page with the running report.
	OnProgress func(lang etymology.Language, letter string, r Report)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithListingURL overrides DefaultListingURL.
func WithListingURL(tmpl string) Option {
	return func(c *Coordinator) { c.listingURL = tmpl }
}

// WithWorkers sets the per-listing fetch concurrency.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records ingestion metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(fetcher PageFetcher, store Committer, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher:    fetcher,
		store:      store,
		listingURL: DefaultListingURL,
		workers:    DefaultWorkers,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListingURL expands the listing template for one language and letter.
func ListingURL(tmpl string, lang etymology.Language, letter string) string {
	return strings.NewReplacer(
		"{lang}", url.QueryEscape(string(lang)),
		"{letter}", url.QueryEscape(letter),
	).Replace(tmpl)
}

// pageResult is the outcome of one entry page fetch.
type pageResult struct {
	done     bool
	headword string
	entries  []etymology.Entry
	err      error
}

// Ingest crawls every (language, letter) listing in order. Each listing page
// becomes at most one batch, committed in link discovery order. Listing and
// page failures are logged and skipped; a store failure or cancellation stops
// the run and is returned.
func (c *Coordinator) Ingest(ctx context.Context, langs []etymology.Language, letters []string) (Report, error) {
	var report Report
	var batches, entries int64

	bw := NewBatchWriter(c.store, 1)
	bw.OnCommit = func(n int) {
		atomic.AddInt64(&batches, 1)
		atomic.AddInt64(&entries, int64(n))
		c.metrics.BatchCommitted(n)
	}
	bw.OnError = func(err error) {
		c.log.Error("batch commit failed", "error", err)
	}

	runErr := c.run(ctx, bw, langs, letters, &report)
	if runErr != nil {
		bw.Abort()
	}
	closeErr := bw.Close()

	report.Batches = int(atomic.LoadInt64(&batches))
	report.Entries = int(atomic.LoadInt64(&entries))

	if closeErr != nil {
		return report, fmt.Errorf("ingest: %w", closeErr)
	}
	return report, runErr
}

func (c *Coordinator) run(ctx context.Context, bw *BatchWriter, langs []etymology.Language, letters []string, report *Report) error {
	for _, lang := range langs {
		for _, letter := range letters {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := bw.Err(); err != nil {
				return err
			}

			listing := ListingURL(c.listingURL, lang, letter)
			log := c.log.With("language", string(lang), "letter", letter)

			links, err := c.fetcher.Listing(ctx, listing, letter)
			report.Listings++
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				report.ListingsFailed++
				c.metrics.ListingDone(lang, false)
				log.Warn("listing fetch failed", "url", listing, "error", err)
				continue
			}
			c.metrics.ListingDone(lang, true)

			batch, err := c.processListing(ctx, links, letter, report, log)
			if err != nil {
				return err
			}
			if len(batch) > 0 {
				if err := bw.Submit(batch); err != nil {
					return err
				}
			}
			log.Info("listing processed", "links", len(links), "entries", len(batch))

			if c.OnProgress != nil {
				c.OnProgress(lang, letter, *report)
			}
		}
	}
	return nil
}

// processListing fetches every link through a worker pool and returns the
// entries of all non-empty pages ordered by link index. A page whose headword
// does not start with the listing letter is dropped.
func (c *Coordinator) processListing(ctx context.Context, links []string, letter string, report *Report, log *slog.Logger) ([]etymology.Entry, error) {
	if len(links) == 0 {
		return nil, nil
	}

	var wp WorkerPoolInterface
	if c.PoolFactory != nil {
		wp = c.PoolFactory(c.workers, len(links))
	} else {
		wp = NewWorkerPool(c.workers, len(links))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Each job owns its slot, so no locking is needed.
	results := make([]pageResult, len(links))
	wp.Start(ctx)

	var submitErr error
	for i, link := range links {
		idx, pageURL := i, link
		job := func(ctx context.Context) error {
			res, err := c.fetcher.Fetch(ctx, pageURL)
			r := pageResult{done: true, entries: res.Entries(), err: err}
			if res != nil {
				r.headword = res.Headword
			}
			results[idx] = r
			return err
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			submitErr = err
			cancel()
			break
		}
	}
	wp.Close()

	if err := ctx.Err(); err != nil && submitErr == nil {
		return nil, err
	}
	if submitErr != nil {
		if errors.Is(submitErr, context.Canceled) || errors.Is(submitErr, context.DeadlineExceeded) {
			return nil, submitErr
		}
		return nil, fmt.Errorf("submit fetch job: %w", submitErr)
	}

	var batch []etymology.Entry
	for i, r := range results {
		report.Pages++
		switch {
		case !r.done:
			report.PagesFailed++
			c.metrics.Page(metrics.PageFailed)
		case r.err != nil:
			report.PagesFailed++
			c.metrics.Page(metrics.PageFailed)
			log.Warn("page fetch failed", "url", links[i], "error", r.err)
		case len(r.entries) == 0:
			report.PagesEmpty++
			c.metrics.Page(metrics.PageEmpty)
		case !underLetter(r.headword, letter):
			report.PagesOffLetter++
			c.metrics.Page(metrics.PageOffLetter)
			log.Debug("headword outside listing letter", "url", links[i], "headword", r.headword)
		default:
			c.metrics.Page(metrics.PageExtracted)
			batch = append(batch, r.entries...)
		}
	}
	return batch, nil
}

// underLetter reports whether headword starts with letter, ignoring case.
// An unknown headword is accepted.
func underLetter(headword, letter string) bool {
	headword = strings.TrimSpace(headword)
	if headword == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(headword), strings.ToLower(letter))
}
