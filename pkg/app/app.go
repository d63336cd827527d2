// Package app wires configuration, the corpus store, ingestion, inference and
// the HTTP server into the operations the CLI exposes.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/etymoagent/pkg/agent"
	"github.com/japaniel/etymoagent/pkg/config"
	"github.com/japaniel/etymoagent/pkg/db"
	"github.com/japaniel/etymoagent/pkg/etymology"
	"github.com/japaniel/etymoagent/pkg/fetch"
	"github.com/japaniel/etymoagent/pkg/infer"
	"github.com/japaniel/etymoagent/pkg/ingest"
	"github.com/japaniel/etymoagent/pkg/metrics"
	"github.com/japaniel/etymoagent/pkg/server"
)

// App holds the long-lived components built from one Config.
type App struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *db.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// New opens the corpus store and registers the metric collectors.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	store, err := db.Open(ctx, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewCorpusCollector(store),
	)

	log.Debug("store ready", "path", cfg.Store.Path)
	return &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		registry: reg,
		metrics:  metrics.New(reg),
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}

// Store exposes the corpus store.
func (a *App) Store() *db.Store { return a.store }

// Registry exposes the metrics registry.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// Ingest crawls langs x letters into the store. Empty arguments fall back to
// the configured crawl languages and letters.
func (a *App) Ingest(ctx context.Context, langs []etymology.Language, letters []string) (ingest.Report, error) {
	known, err := etymology.ParseLanguages(a.cfg.Crawl.Languages)
	if err != nil {
		return ingest.Report{}, err
	}
	if len(langs) == 0 {
		langs = known
	}
	if len(letters) == 0 {
		if letters, err = config.ParseLetters(a.cfg.Crawl.Letters); err != nil {
			return ingest.Report{}, err
		}
	}

	release, err := lockStore(ctx, a.cfg.Store.Path, a.cfg.Store.LockTimeout)
	if err != nil {
		return ingest.Report{}, err
	}
	defer release()

	log := a.log.With("run_id", uuid.NewString())
	// Pages are mined for every configured language, whichever listing
	// they were discovered on.
	fetcher, err := fetch.New(a.cfg.Crawl, union(known, langs), log)
	if err != nil {
		return ingest.Report{}, err
	}

	coord := ingest.NewCoordinator(fetcher, a.store,
		ingest.WithListingURL(a.cfg.Crawl.ListingTemplate()),
		ingest.WithWorkers(a.cfg.Crawl.Workers),
		ingest.WithLogger(log),
		ingest.WithMetrics(a.metrics),
	)
	coord.OnProgress = func(lang etymology.Language, letter string, r ingest.Report) {
		log.Debug("listing done", "language", lang, "letter", letter, "entries", r.Entries)
	}

	start := time.Now()
	log.Info("ingestion started", "languages", len(langs), "letters", len(letters), "workers", a.cfg.Crawl.Workers)
	report, err := coord.Ingest(ctx, langs, letters)
	log.Info("ingestion finished",
		"duration", time.Since(start),
		"listings", report.Listings,
		"listings_failed", report.ListingsFailed,
		"pages", report.Pages,
		"pages_failed", report.PagesFailed,
		"pages_off_letter", report.PagesOffLetter,
		"batches", report.Batches,
		"entries", report.Entries,
	)
	return report, err
}

func union(a, b []etymology.Language) []etymology.Language {
	seen := make(map[etymology.Language]bool, len(a)+len(b))
	out := make([]etymology.Language, 0, len(a)+len(b))
	for _, l := range append(append([]etymology.Language{}, a...), b...) {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// Clean deduplicates the corpus and drops unusable meanings.
func (a *App) Clean(ctx context.Context) (db.CleanReport, error) {
	release, err := lockStore(ctx, a.cfg.Store.Path, a.cfg.Store.LockTimeout)
	if err != nil {
		return db.CleanReport{}, err
	}
	defer release()

	report, err := a.store.CleanAndDedup(ctx, a.cfg.Clean.MaxMeaningLength)
	if err != nil {
		return report, fmt.Errorf("clean: %w", err)
	}
	a.metrics.Cleaned("duplicates", report.DuplicatesRemoved)
	a.metrics.Cleaned("meanings", report.MeaningsNulled)
	a.metrics.Cleaned("empty", report.EmptyRemoved)
	a.log.Info("corpus cleaned",
		"duplicates_removed", report.DuplicatesRemoved,
		"meanings_nulled", report.MeaningsNulled,
		"empty_removed", report.EmptyRemoved,
		"remaining", report.Remaining,
	)
	return report, nil
}

// Train fits a classifier on the current corpus and writes it to out, or to
// the configured model path when out is empty.
func (a *App) Train(ctx context.Context, out string) (*infer.Model, infer.Evaluation, error) {
	if out == "" {
		out = a.cfg.Inference.ModelPath
	}
	corpus, err := a.store.QueryAll(ctx)
	if err != nil {
		return nil, infer.Evaluation{}, err
	}
	vectors, err := infer.LoadVectors(ctx, a.cfg.Inference)
	if err != nil {
		a.log.Warn("embedding table unavailable, training on n-grams only", "error", err)
		vectors = nil
	}

	ic := a.cfg.Inference
	model, eval, err := infer.Train(corpus, vectors, infer.TrainOptions{
		Epochs:       ic.Epochs,
		LearningRate: ic.LearningRate,
		L2:           ic.L2,
		TestFraction: ic.TestFraction,
		Seed:         ic.Seed,
	})
	if err != nil {
		return nil, eval, fmt.Errorf("train: %w", err)
	}
	if err := model.Save(out); err != nil {
		return nil, eval, err
	}
	a.log.Info("model trained", "model_id", model.ID, "path", out,
		"labels", len(model.Labels), "vocabulary", len(model.Vocabulary), "evaluation", eval.String())
	return model, eval, nil
}

// Strategy builds the configured inference strategy.
func (a *App) Strategy(ctx context.Context) infer.Strategy {
	return infer.NewStrategy(ctx, a.cfg.Inference, a.log)
}

// Evaluate reports the held-out accuracy of the configured strategy.
func (a *App) Evaluate(ctx context.Context) (infer.Evaluation, error) {
	corpus, err := a.store.QueryAll(ctx)
	if err != nil {
		return infer.Evaluation{}, err
	}
	s := a.Strategy(ctx)
	eval, err := infer.Evaluate(s, corpus, a.cfg.Inference.TestFraction, a.cfg.Inference.Seed)
	if err != nil {
		return eval, fmt.Errorf("evaluate: %w", err)
	}
	a.log.Info("strategy evaluated", "strategy", s.Name(), "evaluation", eval.String())
	return eval, nil
}

// Service loads a corpus snapshot and returns a query service over it.
func (a *App) Service(ctx context.Context) (*agent.Service, error) {
	opts := []agent.Option{agent.WithMetrics(a.metrics), agent.WithLogger(a.log)}
	if path := a.cfg.Server.WordListPath; path != "" {
		wl, err := agent.LoadWordList(path)
		if err != nil {
			return nil, err
		}
		a.log.Info("word list loaded", "path", path, "words", wl.Len())
		opts = append(opts, agent.WithValidator(wl))
	}

	svc := agent.NewService(a.Strategy(ctx), nil, opts...)
	if err := svc.Refresh(ctx, a.store); err != nil {
		return nil, err
	}
	return svc, nil
}

// Query answers a single word.
func (a *App) Query(ctx context.Context, word string) (agent.Response, error) {
	svc, err := a.Service(ctx)
	if err != nil {
		return agent.Response{}, err
	}
	return svc.Query(ctx, word), nil
}

// Serve runs the HTTP server until ctx is done. Unless the snapshot is
// static, the corpus is reloaded whenever the store file changes.
func (a *App) Serve(ctx context.Context) error {
	svc, err := a.Service(ctx)
	if err != nil {
		return err
	}
	srv := server.New(svc, a.cfg.Server, a.registry, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if !a.cfg.Server.StaticSnapshot && a.cfg.Store.Path != ":memory:" {
		g.Go(func() error {
			return watchStore(gctx, a.cfg.Store.Path, a.cfg.Server.ReloadDebounce, func(ctx context.Context) error {
				return svc.Refresh(ctx, a.store)
			}, a.log)
		})
	}
	return g.Wait()
}

// Export writes the corpus debug dump to w.
func (a *App) Export(ctx context.Context, w io.Writer) (int, error) {
	n, err := a.store.Export(ctx, w)
	if err != nil {
		return n, fmt.Errorf("export: %w", err)
	}
	a.log.Info("corpus exported", "rows", n)
	return n, nil
}

// RunReport summarizes a full pipeline run.
type RunReport struct {
	Ingest     ingest.Report
	Clean      db.CleanReport
	Trained    bool
	Evaluation infer.Evaluation
}

// Run ingests, cleans and, when train is set, trains a model.
func (a *App) Run(ctx context.Context, train bool) (RunReport, error) {
	var rr RunReport
	var err error
	if rr.Ingest, err = a.Ingest(ctx, nil, nil); err != nil {
		return rr, err
	}
	if rr.Clean, err = a.Clean(ctx); err != nil {
		return rr, err
	}
	if !train {
		return rr, nil
	}
	if _, rr.Evaluation, err = a.Train(ctx, ""); err != nil {
		return rr, err
	}
	rr.Trained = true
	return rr, nil
}
