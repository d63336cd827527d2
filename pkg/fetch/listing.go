package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

var (
	pagesSel = cascadia.MustCompile("#mw-pages")
	linkSel  = cascadia.MustCompile("a[href]")
)

// Listing fetches a category page and returns the absolute entry links whose
// title starts with letter, in page order without duplicates. Namespaced
// pages (Category:, Special:, ...) and links to other hosts are excluded.
func (f *Fetcher) Listing(ctx context.Context, listingURL, letter string) ([]string, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}
	body, err := f.get(ctx, listingURL)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", listingURL, err)
	}

	root := cascadia.Query(doc, pagesSel)
	if root == nil {
		root = doc
	}

	upper := "/wiki/" + strings.ToUpper(letter)
	lower := "/wiki/" + strings.ToLower(letter)

	var links []string
	seen := make(map[string]bool)
	for _, a := range cascadia.QueryAll(root, linkSel) {
		ref, err := url.Parse(etymology.Attr(a, "href"))
		if err != nil {
			continue
		}
		u := base.ResolveReference(ref)
		u.Fragment = ""
		if u.Host != base.Host {
			continue
		}
		if !strings.HasPrefix(u.Path, upper) && !strings.HasPrefix(u.Path, lower) {
			continue
		}
		if strings.Contains(strings.TrimPrefix(u.Path, "/wiki/"), ":") {
			continue
		}
		s := u.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		links = append(links, s)
	}

	f.log.Debug("listing discovered", "url", listingURL, "links", len(links))
	return links, nil
}
