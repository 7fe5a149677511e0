// Package static implements the extraction contract with plain HTTP fetches
// via colly, for pages that serve their catalog content server-side.
package static

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/shelfscan/catalog-crawler/internal/catalog"
	"github.com/shelfscan/catalog-crawler/internal/extractor"
)

// Config controls the behavior of the static extractor.
type Config struct {
	UserAgent   string
	MaxParallel int
}

// Extractor fetches pages with a colly collector and parses the returned
// HTML.
type Extractor struct {
	base   *colly.Collector
	logger *zap.Logger
}

// New constructs a configured colly-based extractor.
func New(cfg Config, logger *zap.Logger) (*Extractor, error) {
	parallel := cfg.MaxParallel
	if parallel <= 0 {
		parallel = 1
	}

	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        128,
		MaxIdleConnsPerHost: 32,
		MaxConnsPerHost:     parallel * 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	})
	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallel,
	}); err != nil {
		return nil, err
	}

	return &Extractor{base: base, logger: logger}, nil
}

// Navigation fetches the page and extracts navigation menu entries.
func (e *Extractor) Navigation(ctx context.Context, url string, opts catalog.FetchOptions) (catalog.NavigationResult, error) {
	html, err := e.fetch(ctx, url, opts)
	if err != nil {
		return catalog.NavigationResult{}, err
	}
	items, err := extractor.ParseNavigationPage(html, url)
	if err != nil {
		return catalog.NavigationResult{}, err
	}
	return catalog.NavigationResult{Items: items, HTML: html}, nil
}

// Categories fetches the page and extracts category links.
func (e *Extractor) Categories(ctx context.Context, url string, opts catalog.FetchOptions) (catalog.CategoryResult, error) {
	html, err := e.fetch(ctx, url, opts)
	if err != nil {
		return catalog.CategoryResult{}, err
	}
	items, err := extractor.ParseCategoryPage(html, url)
	if err != nil {
		return catalog.CategoryResult{}, err
	}
	return catalog.CategoryResult{Items: items, HTML: html}, nil
}

// Products fetches the page and extracts product cards.
func (e *Extractor) Products(ctx context.Context, url string, opts catalog.FetchOptions) (catalog.ProductResult, error) {
	html, err := e.fetch(ctx, url, opts)
	if err != nil {
		return catalog.ProductResult{}, err
	}
	items, err := extractor.ParseProductPage(html, url)
	if err != nil {
		return catalog.ProductResult{}, err
	}
	return catalog.ProductResult{Items: items, HTML: html}, nil
}

// Detail fetches the page and extracts the product detail content.
func (e *Extractor) Detail(ctx context.Context, url string, opts catalog.FetchOptions) (catalog.DetailResult, error) {
	html, err := e.fetch(ctx, url, opts)
	if err != nil {
		return catalog.DetailResult{}, err
	}
	page, err := extractor.ParseDetailPage(html, url)
	if err != nil {
		return catalog.DetailResult{}, err
	}
	return catalog.DetailResult{Page: page, HTML: html}, nil
}

func (e *Extractor) fetch(ctx context.Context, rawURL string, opts catalog.FetchOptions) ([]byte, error) {
	var body []byte
	err := extractor.Retry(ctx, opts.MaxRetries, func(ctx context.Context) error {
		collector := e.base.Clone()
		if opts.Timeout > 0 {
			collector.SetRequestTimeout(opts.Timeout)
		}

		resultCh := make(chan fetchResult, 1)
		var once sync.Once
		send := func(res fetchResult) {
			once.Do(func() {
				resultCh <- res
			})
		}

		collector.OnResponse(func(r *colly.Response) {
			send(fetchResult{body: append([]byte{}, r.Body...)})
		})
		collector.OnError(func(_ *colly.Response, err error) {
			if err == nil {
				err = errors.New("unknown colly error")
			}
			send(fetchResult{err: err})
		})

		if err := collector.Visit(rawURL); err != nil {
			return err
		}
		collector.Wait()

		select {
		case res := <-resultCh:
			if err := ctx.Err(); err != nil {
				return err
			}
			if res.err != nil {
				return res.err
			}
			body = res.body
			return nil
		default:
			return fmt.Errorf("fetch %s produced no result", rawURL)
		}
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

type fetchResult struct {
	body []byte
	err  error
}
