// Package scrape extracts live-match state from the match-listing page.
// The page structure is not stable; every strategy here degrades to
// "found nothing" instead of failing.
package scrape

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Source is the document the scraper reads. The production source is a
// headless browser tab (BrowserPage); tests use StaticPage.
type Source interface {
	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)
	// Reload re-fetches the document from scratch.
	Reload(ctx context.Context) error
	// Location returns the page path, reported in heartbeats.
	Location() string
}

// ParseDocument parses rendered HTML into a queryable document.
func ParseDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// StaticPage is a fixed-content Source for tests and offline runs.
type StaticPage struct {
	Content string
	Path    string

	mu      sync.Mutex
	reloads int
}

func (s *StaticPage) HTML(ctx context.Context) (string, error) { return s.Content, nil }

func (s *StaticPage) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloads++
	return nil
}

// ReloadCount reports how many times the page was reloaded.
func (s *StaticPage) ReloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloads
}

func (s *StaticPage) Location() string { return s.Path }
