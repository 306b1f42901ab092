// Package scrape fetches per-fund holdings snapshots from Zerodha Coin.
//
// Two scrapers are provided: CoinAPIScraper reads the static-assets JSON
// API and CoinPageScraper parses the public fund page. Both produce the
// same FundDocument shape.
package scrape

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/model"
)

// Scraper fetches one fund's holdings snapshot.
type Scraper interface {
	// FetchFund fetches the document for a single fund source. Failures are
	// reported as *FetchError so coordinators can treat them as skips.
	FetchFund(ctx context.Context, source string, maxHoldings int) (*model.FundDocument, error)
}

// FetchError wraps a per-fund scrape failure. It is non-fatal by contract:
// coordinators log it, skip the fund, and continue with the next source.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func fetchErr(source string, format string, args ...any) *FetchError {
	return &FetchError{Source: source, Err: fmt.Errorf(format, args...)}
}

// New returns the scraper named by kind (config.ScraperAPI or
// config.ScraperPage). An empty kind selects the API scraper.
func New(kind string, cfg config.Scraping) (Scraper, error) {
	switch kind {
	case "", config.ScraperAPI:
		return NewCoinAPIScraper(cfg), nil
	case config.ScraperPage:
		return NewCoinPageScraper(cfg), nil
	default:
		return nil, fmt.Errorf("unknown scraper kind %q", kind)
	}
}

// newHTTPClient builds the shared HTTP client: request timeout, bounded
// redirects, explicit or environment proxy.
func newHTTPClient(cfg config.Scraping) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout(),
		Transport: &http.Transport{
			Proxy: proxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}
}
