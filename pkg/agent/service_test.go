package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/etymoagent/pkg/etymology"
	"github.com/japaniel/etymoagent/pkg/infer"
	"github.com/japaniel/etymoagent/pkg/metrics"
)

func corpus() []etymology.Entry {
	return []etymology.Entry{
		{ID: 1, Word: "chaise", Language: etymology.French, Meanings: map[etymology.PartOfSpeech]string{
			etymology.Noun: "a seat",
		}},
		{ID: 2, Word: "kitten", Language: etymology.German, Meanings: map[etymology.PartOfSpeech]string{
			etymology.Noun: "young cat",
			etymology.Verb: "to give birth",
		}},
	}
}

type panicStrategy struct{}

func (panicStrategy) Name() string { return "panic" }
func (panicStrategy) Predict(string, []etymology.Entry) infer.Result {
	panic("boom")
}

type staticSource struct {
	entries []etymology.Entry
	err     error
}

func (s staticSource) QueryAll(context.Context) ([]etymology.Entry, error) {
	return s.entries, s.err
}

func TestQueryMatch(t *testing.T) {
	svc := NewService(infer.EditDistance{}, corpus())
	resp := svc.Query(context.Background(), "  Mitten ")
	require.True(t, resp.OK(), resp.Error)
	assert.Equal(t, "kitten", resp.MostSimilarWord)
	assert.InDelta(t, 1-1.0/6, resp.SimilarityScore, 1e-9)
	assert.Equal(t, "German", resp.OriginLanguage)
	require.NotNil(t, resp.NounMeaning)
	assert.Equal(t, "young cat", *resp.NounMeaning)
	assert.Nil(t, resp.AdjMeaning)
	require.NotNil(t, resp.VerbMeaning)
}

func TestQueryPayloadShape(t *testing.T) {
	svc := NewService(infer.EditDistance{}, corpus())

	raw, err := json.Marshal(svc.Query(context.Background(), "chaise"))
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "chaise", got["most_similar_word"])
	assert.Equal(t, 1.0, got["similarity_score"])
	assert.Equal(t, "French", got["origin_language"])
	assert.Equal(t, "a seat", got["noun_meaning"])
	assert.Contains(t, got, "adj_meaning")
	assert.Nil(t, got["adj_meaning"])
	assert.NotContains(t, got, "error")

	raw, err = json.Marshal(svc.Query(context.Background(), "x1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"word not recognized as valid English"}`, string(raw))
}

func TestQueryInvalidWord(t *testing.T) {
	svc := NewService(infer.EditDistance{}, corpus())
	for _, w := range []string{"", "   ", "chaise2", "two words", "café"} {
		resp := svc.Query(context.Background(), w)
		assert.Equal(t, ErrInvalidWord.Error(), resp.Error, "word %q", w)
	}
}

func TestQueryNoMatch(t *testing.T) {
	svc := NewService(infer.EditDistance{}, nil)
	resp := svc.Query(context.Background(), "chair")
	assert.Equal(t, ErrNoMatch.Error(), resp.Error)

	svc = NewService(infer.EditDistance{Floor: 0.99}, corpus())
	_, err := svc.Lookup(context.Background(), "chair")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestQueryRecoversFromPanic(t *testing.T) {
	svc := NewService(panicStrategy{}, corpus())
	var resp Response
	require.NotPanics(t, func() { resp = svc.Query(context.Background(), "chair") })
	assert.Equal(t, "internal error", resp.Error)
}

func TestQueryCancelledContext(t *testing.T) {
	svc := NewService(infer.EditDistance{}, corpus())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := svc.Query(ctx, "chair")
	assert.Equal(t, context.Canceled.Error(), resp.Error)
}

func TestQueryCustomValidator(t *testing.T) {
	wl, err := ReadWordList(strings.NewReader("Chair\n\nkitten\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, wl.Len())

	svc := NewService(infer.EditDistance{}, corpus(), WithValidator(wl))
	assert.True(t, svc.Query(context.Background(), "CHAIR").OK())
	assert.Equal(t, ErrInvalidWord.Error(), svc.Query(context.Background(), "chairs").Error)
}

func TestQueryRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := NewService(infer.EditDistance{}, corpus(), WithMetrics(m))

	svc.Query(context.Background(), "chaise")
	svc.Query(context.Background(), "chaise")
	svc.Query(context.Background(), "42")

	n, err := testutil.GatherAndCount(reg, "etymoagent_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = testutil.GatherAndCount(reg, "etymoagent_match_similarity")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRefreshAndReplace(t *testing.T) {
	svc := NewService(infer.EditDistance{}, nil)
	assert.Zero(t, svc.Size())

	require.NoError(t, svc.Refresh(context.Background(), staticSource{entries: corpus()}))
	assert.Equal(t, 2, svc.Size())
	assert.True(t, svc.Query(context.Background(), "chaise").OK())

	err := svc.Refresh(context.Background(), staticSource{err: errors.New("locked")})
	require.Error(t, err)
	assert.Equal(t, 2, svc.Size())

	svc.Replace(nil)
	assert.Equal(t, ErrNoMatch.Error(), svc.Query(context.Background(), "chaise").Error)
	assert.Equal(t, infer.NameEdit, svc.Strategy())
}
