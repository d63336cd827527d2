package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path must be set")
	}
	if err := c.Crawl.validate(); err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	if c.Clean.MaxMeaningLength <= 0 {
		return fmt.Errorf("clean.max_meaning_length must be > 0 (got %d)", c.Clean.MaxMeaningLength)
	}
	if err := c.Inference.validate(); err != nil {
		return fmt.Errorf("inference: %w", err)
	}
	return nil
}

func (c *CrawlConfig) validate() error {
	langs, err := etymology.ParseLanguages(c.Languages)
	if err != nil {
		return fmt.Errorf("languages: %w", err)
	}
	if len(langs) == 0 {
		return fmt.Errorf("languages must not be empty")
	}
	if _, err := ParseLetters(c.Letters); err != nil {
		return fmt.Errorf("letters: %w", err)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0 (got %d)", c.Workers)
	}
	if !strings.Contains(c.ListingURL, "{lang}") {
		return fmt.Errorf("listing_url must contain {lang}")
	}
	u, err := url.Parse(c.ListingTemplate())
	if err != nil {
		return fmt.Errorf("listing_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("listing_url %q must be absolute or relative to an http(s) base_url", c.ListingURL)
	}
	return nil
}

func (c *InferenceConfig) validate() error {
	switch c.Strategy {
	case StrategyEdit, StrategyEnhanced:
	default:
		return fmt.Errorf("strategy must be %q or %q (got %q)", StrategyEdit, StrategyEnhanced, c.Strategy)
	}
	switch c.Match {
	case MatchEdit, MatchCosine:
	default:
		return fmt.Errorf("match must be %q or %q (got %q)", MatchEdit, MatchCosine, c.Match)
	}
	if c.SimilarityFloor < 0 || c.SimilarityFloor > 1 {
		return fmt.Errorf("similarity_floor must be within [0,1] (got %v)", c.SimilarityFloor)
	}
	if c.TestFraction < 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be within [0,1) (got %v)", c.TestFraction)
	}
	return nil
}

// Strategy and match names.
const (
	StrategyEdit     = "edit"
	StrategyEnhanced = "enhanced"
	MatchEdit        = "edit"
	MatchCosine      = "cosine"
)

// ParseLetters expands "A-Z" style ranges and comma lists ("A,B,Q") into
// upper-case single letters. Duplicates are dropped.
func ParseLetters(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("no letters given")
	}

	var out []string
	seen := make(map[byte]bool)
	add := func(b byte) {
		if !seen[b] {
			seen[b] = true
			out = append(out, string(b))
		}
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch {
		case len(part) == 1 && isLetter(part[0]):
			add(part[0])
		case len(part) == 3 && part[1] == '-' && isLetter(part[0]) && isLetter(part[2]) && part[0] <= part[2]:
			for b := part[0]; b <= part[2]; b++ {
				add(b)
			}
		default:
			return nil, fmt.Errorf("invalid letter range %q", part)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no letters given")
	}
	return out, nil
}

func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }
