// Package agent answers origin queries against an in-memory corpus snapshot.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/japaniel/etymoagent/pkg/etymology"
	"github.com/japaniel/etymoagent/pkg/infer"
	"github.com/japaniel/etymoagent/pkg/metrics"
)

var (
	// ErrInvalidWord is returned for queries the validator rejects.
	ErrInvalidWord = errors.New("word not recognized as valid English")
	// ErrNoMatch is returned when no corpus word qualifies.
	ErrNoMatch = errors.New("no match found")
)

// Response is the query payload. A failed query carries only Error.
type Response struct {
	MostSimilarWord string  `json:"most_similar_word"`
	SimilarityScore float64 `json:"similarity_score"`
	OriginLanguage  string  `json:"origin_language"`
	NounMeaning     *string `json:"noun_meaning"`
	AdjMeaning      *string `json:"adj_meaning"`
	VerbMeaning     *string `json:"verb_meaning"`
	Error           string  `json:"error,omitempty"`
}

// MarshalJSON renders failures as {"error": ...} and successes without the
// error key.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	type payload Response
	return json.Marshal(payload(r))
}

// OK reports whether the response is a match.
func (r Response) OK() bool { return r.Error == "" }

func errorResponse(err error) Response {
	return Response{Error: err.Error()}
}

func fromResult(res infer.Result) Response {
	meaning := func(p etymology.PartOfSpeech) *string {
		if m, ok := res.Meanings[p]; ok {
			return &m
		}
		return nil
	}
	return Response{
		MostSimilarWord: res.Word,
		SimilarityScore: res.Similarity,
		OriginLanguage:  string(res.Language),
		NounMeaning:     meaning(etymology.Noun),
		AdjMeaning:      meaning(etymology.Adjective),
		VerbMeaning:     meaning(etymology.Verb),
	}
}

// CorpusSource supplies a fresh corpus snapshot.
type CorpusSource interface {
	QueryAll(ctx context.Context) ([]etymology.Entry, error)
}

// Option configures a Service.
type Option func(*Service)

// WithValidator replaces the default alphabetic check.
func WithValidator(v Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithMetrics records query outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// Service runs queries with one strategy over a read-only snapshot. The
// snapshot can be swapped while queries are in flight.
type Service struct {
	strategy  infer.Strategy
	validator Validator
	metrics   *metrics.Metrics
	log       *slog.Logger

	mu     sync.RWMutex
	corpus []etymology.Entry
}

// NewService builds a Service over corpus.
func NewService(strategy infer.Strategy, corpus []etymology.Entry, opts ...Option) *Service {
	s := &Service{
		strategy:  strategy,
		validator: Alphabetic(),
		log:       slog.Default(),
		corpus:    corpus,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Strategy returns the active strategy name.
func (s *Service) Strategy() string { return s.strategy.Name() }

// Size returns the number of entries in the current snapshot.
func (s *Service) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.corpus)
}

// Replace swaps the snapshot.
func (s *Service) Replace(corpus []etymology.Entry) {
	s.mu.Lock()
	s.corpus = corpus
	s.mu.Unlock()
}

// Refresh reloads the snapshot from src.
func (s *Service) Refresh(ctx context.Context, src CorpusSource) error {
	corpus, err := src.QueryAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh corpus: %w", err)
	}
	s.Replace(corpus)
	s.log.Info("corpus snapshot refreshed", "entries", len(corpus))
	return nil
}

func (s *Service) snapshot() []etymology.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corpus
}

// Lookup normalizes and validates word, then predicts against the snapshot.
// It returns ErrInvalidWord or ErrNoMatch when the query cannot be answered.
func (s *Service) Lookup(ctx context.Context, word string) (infer.Result, error) {
	if err := ctx.Err(); err != nil {
		return infer.Result{}, err
	}
	q := etymology.NormalizeWord(word)
	if !s.validator.Valid(q) {
		return infer.Result{}, ErrInvalidWord
	}
	res := s.strategy.Predict(q, s.snapshot())
	if !res.Matched {
		return res, ErrNoMatch
	}
	return res, nil
}

// Query answers a single word. It never panics; every failure is reported
// in the payload.
func (s *Service) Query(ctx context.Context, word string) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("query panicked", "word", word, "panic", r)
			resp = errorResponse(errors.New("internal error"))
		}
	}()

	res, err := s.Lookup(ctx, word)
	switch {
	case errors.Is(err, ErrInvalidWord):
		s.metrics.Query(s.strategy.Name(), metrics.QueryInvalid, 0)
		return errorResponse(err)
	case errors.Is(err, ErrNoMatch):
		s.metrics.Query(s.strategy.Name(), metrics.QueryNoMatch, 0)
		return errorResponse(err)
	case err != nil:
		return errorResponse(err)
	}

	s.metrics.Query(s.strategy.Name(), metrics.QueryMatched, res.Similarity)
	s.log.Debug("query matched", "word", word, "match", res.Word,
		"similarity", res.Similarity, "language", res.Language)
	return fromResult(res)
}
