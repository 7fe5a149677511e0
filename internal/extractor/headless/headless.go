// Package headless implements the extraction contract with chromedp and
// headless Chrome, for pages that only render their catalog content via
// JavaScript.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
	"github.com/shelfscan/catalog-crawler/internal/extractor"
)

// Config controls the behavior of the headless extractor.
type Config struct {
	UserAgent   string
	MaxParallel int
}

// Extractor renders pages with a shared Chrome allocator and parses the
// resulting DOM.
type Extractor struct {
	cfg         Config
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New creates a headless extractor backed by chromedp.
func New(cfg Config) (*Extractor, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Extractor{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context.
func (e *Extractor) Close() {
	e.allocCancel()
}

// Navigation renders the page and extracts navigation menu entries.
func (e *Extractor) Navigation(ctx context.Context, url string, opts catalog.FetchOptions) (catalog.NavigationResult, error) {
	html, err := e.render(ctx, url, opts)
	if err != nil {
		return catalog.NavigationResult{}, err
	}
	items, err := extractor.ParseNavigationPage(html, url)
	if err != nil {
		return catalog.NavigationResult{}, err
	}
	return catalog.NavigationResult{Items: items, HTML: html}, nil
}

// Categories renders the page and extracts category links.
func (e *Extractor) Categories(ctx context.Context, url string, opts catalog.FetchOptions) (catalog.CategoryResult, error) {
	html, err := e.render(ctx, url, opts)
	if err != nil {
		return catalog.CategoryResult{}, err
	}
	items, err := extractor.ParseCategoryPage(html, url)
	if err != nil {
		return catalog.CategoryResult{}, err
	}
	return catalog.CategoryResult{Items: items, HTML: html}, nil
}

// Products renders the page and extracts product cards.
func (e *Extractor) Products(ctx context.Context, url string, opts catalog.FetchOptions) (catalog.ProductResult, error) {
	html, err := e.render(ctx, url, opts)
	if err != nil {
		return catalog.ProductResult{}, err
	}
	items, err := extractor.ParseProductPage(html, url)
	if err != nil {
		return catalog.ProductResult{}, err
	}
	return catalog.ProductResult{Items: items, HTML: html}, nil
}

// Detail renders the page and extracts the product detail content.
func (e *Extractor) Detail(ctx context.Context, url string, opts catalog.FetchOptions) (catalog.DetailResult, error) {
	html, err := e.render(ctx, url, opts)
	if err != nil {
		return catalog.DetailResult{}, err
	}
	page, err := extractor.ParseDetailPage(html, url)
	if err != nil {
		return catalog.DetailResult{}, err
	}
	return catalog.DetailResult{Page: page, HTML: html}, nil
}

func (e *Extractor) render(ctx context.Context, url string, opts catalog.FetchOptions) ([]byte, error) {
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.release()

	var html string
	err := extractor.Retry(ctx, opts.MaxRetries, func(ctx context.Context) error {
		taskCtx, taskCancel := chromedp.NewContext(e.allocator)
		defer taskCancel()

		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		taskCtx, cancel := context.WithTimeout(taskCtx, timeout)
		defer cancel()

		actions := []chromedp.Action{
			e.networkSetupAction(),
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(500 * time.Millisecond),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		}
		if err := chromedp.Run(taskCtx, actions...); err != nil {
			return fmt.Errorf("chromedp run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

func (e *Extractor) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if e.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(e.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func (e *Extractor) acquire(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	select {
	case e.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (e *Extractor) release() {
	if e.limiter == nil {
		return
	}
	select {
	case <-e.limiter:
	default:
	}
}
