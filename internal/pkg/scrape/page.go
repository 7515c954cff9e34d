package scrape

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/livescout/matchrelay/internal/pkg/config"
)

const defaultLoadTimeout = 30 * time.Second

// BrowserPage keeps the match-listing page open in a headless browser
// tab and serves its rendered HTML. One tab per process.
type BrowserPage struct {
	pageURL     string
	path        string
	loadTimeout time.Duration

	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
}

// NewBrowserPage starts the browser and performs the initial load.
func NewBrowserPage(cfg *config.ScrapeConfig) (*BrowserPage, error) {
	u, err := url.Parse(cfg.PageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page_url: %w", err)
	}

	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.HeadlessMode()),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	p := &BrowserPage{
		pageURL:     cfg.PageURL,
		path:        u.Path,
		loadTimeout: timeout,
		tab:         tab,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}

	if err := p.Reload(context.Background()); err != nil {
		p.Close()
		return nil, fmt.Errorf("initial page load: %w", err)
	}
	return p, nil
}

func (p *BrowserPage) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := context.WithTimeout(p.tab, p.loadTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

func (p *BrowserPage) Reload(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(p.tab, p.loadTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx,
		chromedp.Navigate(p.pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("reload page: %w", err)
	}
	return nil
}

func (p *BrowserPage) Location() string { return p.path }

func (p *BrowserPage) Close() {
	p.tabCancel()
	p.allocCancel()
}
