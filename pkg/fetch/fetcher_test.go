package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/etymoagent/pkg/config"
	"github.com/japaniel/etymoagent/pkg/etymology"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	chair, err := os.ReadFile("testdata/chair.html")
	require.NoError(t, err)
	listing, err := os.ReadFile("testdata/listing.html")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/chair", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(chair)
	})
	mux.HandleFunc("/wiki/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h3 id="Etymology">Etymology</h3><p>Of unknown origin.</p>
<h3 id="Noun">Noun</h3><ol><li>A thing.</li></ol></body></html>`))
	})
	mux.HandleFunc("/wiki/nomeaning", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h3 id="Etymology">Etymology</h3><p>From Latin sella.</p></body></html>`))
	})
	mux.HandleFunc("/wiki/notitle", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h3 id="Etymology">Etymology</h3><p>From German Brot.</p>
<h3 id="Noun">Noun</h3><ol><li>Bread.</li></ol></body></html>`))
	})
	mux.HandleFunc("/wiki/bread", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Brot</title></head><body><h3 id="Etymology">Etymology</h3><p>From German Brot.</p>
<h3 id="Noun">Noun</h3><ol><li>Bread.</li></ol></body></html>`))
	})
	mux.HandleFunc("/wiki/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/wiki/huge", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 2048)))
	})
	mux.HandleFunc("/cat", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write(listing)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher(t *testing.T, mutate func(*config.CrawlConfig)) *Fetcher {
	t.Helper()
	cfg := config.CrawlConfig{UserAgent: "test-agent", FetchTimeout: time.Second, MaxBodyBytes: 1 << 20}
	if mutate != nil {
		mutate(&cfg)
	}
	f, err := New(cfg, nil, nil)
	require.NoError(t, err)
	return f
}

func TestFetchExtractsEntry(t *testing.T) {
	srv := newSite(t)
	f := newFetcher(t, nil)

	res, err := f.Fetch(context.Background(), srv.URL+"/wiki/chair")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "chair", res.Headword)
	assert.Equal(t, []etymology.Pair{
		{Language: etymology.French, Word: "chaiere"},
		{Language: etymology.Latin, Word: "cathedra"},
		{Language: etymology.Greek, Word: "καθέδρα."},
	}, res.Pairs)
	assert.Equal(t, "An item of furniture used to sit on. The presiding officer of a meeting.", res.Meanings[etymology.Noun])
	assert.Equal(t, "", res.Meanings[etymology.Verb])

	entries := res.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "καθέδρα", entries[2].Word)
}

func TestFetchEmptyPages(t *testing.T) {
	srv := newSite(t)
	f := newFetcher(t, nil)

	for _, p := range []string{"/wiki/plain", "/wiki/nomeaning"} {
		res, err := f.Fetch(context.Background(), srv.URL+p)
		require.NoError(t, err, p)
		assert.Nil(t, res, p)
	}
}

func TestFetchHeadwordFallsBackToPath(t *testing.T) {
	srv := newSite(t)
	f := newFetcher(t, nil)

	res, err := f.Fetch(context.Background(), srv.URL+"/wiki/notitle")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Headword)
	assert.Equal(t, []etymology.Pair{{Language: etymology.German, Word: "Brot."}}, res.Pairs)
}

func TestFetchHeadwordFromDocumentTitle(t *testing.T) {
	srv := newSite(t)
	f := newFetcher(t, nil)

	res, err := f.Fetch(context.Background(), srv.URL+"/wiki/bread")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Brot", res.Headword)
}

func TestFetchStatusError(t *testing.T) {
	srv := newSite(t)
	f := newFetcher(t, nil)

	res, err := f.Fetch(context.Background(), srv.URL+"/wiki/missing")
	assert.Nil(t, res)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestFetchTimeout(t *testing.T) {
	srv := newSite(t)
	f := newFetcher(t, func(c *config.CrawlConfig) { c.FetchTimeout = 50 * time.Millisecond })

	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL+"/wiki/slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetchBodyLimit(t *testing.T) {
	srv := newSite(t)
	f := newFetcher(t, func(c *config.CrawlConfig) { c.MaxBodyBytes = 1024 })

	_, err := f.Fetch(context.Background(), srv.URL+"/wiki/huge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestListing(t *testing.T) {
	srv := newSite(t)
	f := newFetcher(t, nil)

	links, err := f.Listing(context.Background(), srv.URL+"/cat?from=C", "C")
	require.NoError(t, err)
	assert.Equal(t, []string{
		srv.URL + "/wiki/chair",
		srv.URL + "/wiki/Chablis",
		srv.URL + "/wiki/chaise",
	}, links)
}

func TestListingStatusError(t *testing.T) {
	srv := newSite(t)
	f := newFetcher(t, nil)

	_, err := f.Listing(context.Background(), srv.URL+"/nope", "A")
	var se *StatusError
	assert.True(t, errors.As(err, &se))
}

func TestStripReferences(t *testing.T) {
	in := []byte(`<p>Latin cathedra<sup id="cite_ref-1" class="reference"><a href="#c">[1]</a></sup>, x<sup>2</sup></p>`)
	assert.Equal(t, `<p>Latin cathedra, x<sup>2</sup></p>`, string(StripReferences(in)))
}
