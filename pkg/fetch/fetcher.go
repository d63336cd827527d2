package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/japaniel/etymoagent/pkg/config"
	"github.com/japaniel/etymoagent/pkg/etymology"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 10 * 1024 * 1024
	defaultUserAgent    = "EtymoAgent/1.0"
)

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

// Fetcher retrieves listing and entry pages from the lexical site.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	timeout   time.Duration
	pairs     *etymology.PairExtractor
	parts     []etymology.PartOfSpeech
	log       *slog.Logger
}

// New builds a Fetcher recognizing langs (DefaultLanguages when empty).
func New(cfg config.CrawlConfig, langs []etymology.Language, log *slog.Logger) (*Fetcher, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(langs) == 0 {
		langs = etymology.DefaultLanguages
	}
	f := &Fetcher{
		client:    &http.Client{},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		timeout:   cfg.FetchTimeout,
		pairs:     etymology.NewPairExtractor(langs),
		parts:     etymology.PartsOfSpeech,
		log:       log,
	}
	if f.userAgent == "" {
		f.userAgent = defaultUserAgent
	}
	if f.maxBody <= 0 {
		f.maxBody = defaultMaxBodyBytes
	}
	if f.timeout <= 0 {
		f.timeout = defaultTimeout
	}
	return f, nil
}

// Fetch downloads one entry page and extracts its pairs and meanings.
// A page with no recognized pair, or with every meaning empty, yields (nil, nil).
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*etymology.ExtractionResult, error) {
	body, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	body = StripReferences(body)

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	pairs := f.pairs.Extract(etymology.ExtractEtymology(doc))
	if len(pairs) == 0 {
		f.log.Debug("no recognized etymology", "url", pageURL)
		return nil, nil
	}

	meanings := etymology.ExtractMeanings(doc, f.parts)
	if !anyMeaning(meanings) {
		f.log.Debug("no meanings", "url", pageURL)
		return nil, nil
	}

	return &etymology.ExtractionResult{
		URL:      pageURL,
		Headword: headword(doc, body, pageURL),
		Pairs:    pairs,
		Meanings: meanings,
	}, nil
}

func anyMeaning(m map[etymology.PartOfSpeech]string) bool {
	for _, v := range m {
		if v != "" {
			return true
		}
	}
	return false
}

var firstHeadingSel = cascadia.MustCompile("#firstHeading")

// headword names the page: its first heading, the readability title, or the
// last path segment of the URL.
func headword(doc *html.Node, body []byte, pageURL string) string {
	if h := cascadia.Query(doc, firstHeadingSel); h != nil {
		if t := strings.TrimSpace(etymology.TextOf(h)); t != "" {
			return t
		}
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	if article, err := readability.FromReader(bytes.NewReader(body), u); err == nil && article.Title != "" {
		return strings.TrimSpace(article.Title)
	}
	if p, err := url.PathUnescape(path.Base(u.Path)); err == nil {
		return p
	}
	return path.Base(u.Path)
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}
	if resp.ContentLength > f.maxBody {
		return nil, fmt.Errorf("fetch %s: content-length %d exceeds limit of %d bytes", target, resp.ContentLength, f.maxBody)
	}

	// Read one byte past the limit to tell a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("fetch %s: body exceeds limit of %d bytes", target, f.maxBody)
	}
	return body, nil
}

var reReference = regexp.MustCompile(`(?si)<sup\b[^>]*\bclass="[^"]*\breference\b[^"]*"[^>]*>.*?</sup>`)

// StripReferences removes citation markers (<sup class="reference">) from page
// HTML. A marker glued to a word would otherwise end up in the extracted
// source word ("cathedra[1]").
func StripReferences(content []byte) []byte {
	return reReference.ReplaceAll(content, nil)
}
