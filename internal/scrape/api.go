package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/model"
	"github.com/fundlens/fundlens/internal/worker"
)

// Endpoints for Zerodha Coin static assets.
const (
	portfolioAPIBase = "https://staticassets.zerodha.com/coin/scheme-portfolio"
	navAPIBase       = "https://staticassets.zerodha.com/coin/historical-nav"
)

// Positions inside one holdings row of the portfolio API response, which is
// an array of positional arrays.
const (
	holdingNameIdx      = 1
	holdingSectorIdx    = 2
	holdingAssetTypeIdx = 3
	holdingPercentIdx   = 5
	minHoldingFields    = 8
)

const equityAssetType = "Equity"

const (
	maxFetchAttempts = 3
	retryBackoff     = 500 * time.Millisecond
)

var (
	fundIDRe   = regexp.MustCompile(`/fund/([A-Z0-9]+)`)
	fundSlugRe = regexp.MustCompile(`/fund/[A-Z0-9]+/([^/?#]+)`)
	directGrRe = regexp.MustCompile(`(?i)\s*Direct\s*Growth\s*$`)
)

// CoinAPIScraper fetches fund holdings from the Coin static-assets API.
// It is the default scraper: faster and far more stable than parsing the
// fund page markup.
type CoinAPIScraper struct {
	httpClient *http.Client
	limiter    *worker.Limiter
	robots     *RobotsChecker
	docs       *cache.DocumentCache
	cfg        config.Scraping

	// Overridable in tests.
	portfolioBase string
	navBase       string
}

// NewCoinAPIScraper creates the API scraper with rate limiting, robots
// checking and a layered document cache wired from config.
func NewCoinAPIScraper(cfg config.Scraping) *CoinAPIScraper {
	return &CoinAPIScraper{
		httpClient:    newHTTPClient(cfg),
		limiter:       worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		robots:        NewRobotsChecker(cfg.UserAgent, cfg.Timeout()),
		docs:          cache.NewDocumentCache(cfg.CacheDir, cfg.CacheTTL()),
		cfg:           cfg,
		portfolioBase: portfolioAPIBase,
		navBase:       navAPIBase,
	}
}

// FetchFund implements Scraper.
func (s *CoinAPIScraper) FetchFund(ctx context.Context, source string, maxHoldings int) (*model.FundDocument, error) {
	if doc, ok := s.docs.Get(source); ok {
		log.Debug().Str("source", source).Msg("fund document served from cache")
		return trimHoldings(doc, maxHoldings), nil
	}

	fundID, err := fundIDFromURL(source)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}

	if s.cfg.RespectRobots {
		if allowed, _, _ := s.robots.CanFetch(ctx, source); !allowed {
			return nil, fetchErr(source, "disallowed by robots.txt")
		}
	}

	rows, err := s.fetchPortfolio(ctx, source, fundID)
	if err != nil {
		return nil, err
	}

	// The cache keeps the full equity set; maxHoldings applies on the way
	// out only, so analyses with different caps can share one cache entry.
	holdings := holdingsFromRows(rows)

	meta := map[string]string{"fund_id": fundID}
	if nav, err := s.fetchCurrentNAV(ctx, source, fundID); err == nil && nav > 0 {
		meta["current_nav"] = strconv.FormatFloat(nav, 'f', 4, 64)
	} else if err != nil {
		// NAV is enrichment only; a failure never fails the fund.
		log.Warn().Str("fund_id", fundID).Err(err).Msg("NAV fetch failed")
	}

	doc := &model.FundDocument{
		SchemaVersion: model.SchemaVersion,
		SourceURL:     source,
		Provider:      config.ScraperAPI,
		FetchedAt:     time.Now().UTC(),
		FundName:      fundNameFromURL(source),
		FundMeta:      meta,
		Holdings:      holdings,
	}

	if err := s.docs.Put(source, doc); err != nil {
		log.Warn().Str("source", source).Err(err).Msg("document cache write failed")
	}

	log.Info().Str("fund", doc.FundName).Int("holdings", len(holdings)).Msg("scraped fund via API")
	return trimHoldings(doc, maxHoldings), nil
}

// portfolioResponse is the envelope of both static-assets endpoints.
type portfolioResponse struct {
	Status string            `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

func (s *CoinAPIScraper) fetchPortfolio(ctx context.Context, source, fundID string) ([][]any, error) {
	url := fmt.Sprintf("%s/%s.json", s.portfolioBase, fundID)

	body, err := s.getWithRetry(ctx, url)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}

	var resp portfolioResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fetchErr(source, "decode portfolio response: %w", err)
	}
	if resp.Status != "success" {
		return nil, fetchErr(source, "portfolio API returned status %q", resp.Status)
	}

	rows := make([][]any, 0, len(resp.Data))
	for _, raw := range resp.Data {
		var row []any
		if err := json.Unmarshal(raw, &row); err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *CoinAPIScraper) fetchCurrentNAV(ctx context.Context, source, fundID string) (float64, error) {
	url := fmt.Sprintf("%s/%s.json", s.navBase, fundID)

	body, err := s.getWithRetry(ctx, url)
	if err != nil {
		return 0, err
	}

	var resp portfolioResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode NAV response: %w", err)
	}
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("empty NAV series")
	}

	// Each row is [date, nav]; the series is chronological, take the last.
	var last []any
	if err := json.Unmarshal(resp.Data[len(resp.Data)-1], &last); err != nil {
		return 0, fmt.Errorf("decode NAV row: %w", err)
	}
	if len(last) < 2 {
		return 0, fmt.Errorf("short NAV row")
	}
	return asFloat(last[1])
}

// getWithRetry performs a rate-limited GET with bounded retries on network
// errors and 5xx responses.
func (s *CoinAPIScraper) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := retryBackoff

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if err := s.limiter.WaitWithDelay(ctx, url, s.cfg.Delay()); err != nil {
			return nil, err
		}

		body, retryable, err := s.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxFetchAttempts, lastErr)
}

func (s *CoinAPIScraper) get(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}

// holdingsFromRows keeps all equity rows, in API order.
func holdingsFromRows(rows [][]any) []model.Holding {
	holdings := make([]model.Holding, 0, len(rows))
	rank := 1

	for _, row := range rows {
		if len(row) < minHoldingFields {
			continue
		}
		assetType, _ := row[holdingAssetTypeIdx].(string)
		if assetType != equityAssetType {
			continue
		}
		name, _ := row[holdingNameIdx].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		pct, err := asFloat(row[holdingPercentIdx])
		if err != nil || pct <= 0 || pct > 100 {
			continue
		}

		holdings = append(holdings, model.Holding{
			CompanyName:          name,
			AllocationPercentage: pct,
			Rank:                 rank,
		})
		rank++
	}
	return holdings
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(n, "%")), 64)
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}

func fundIDFromURL(source string) (string, error) {
	m := fundIDRe.FindStringSubmatch(source)
	if m == nil {
		return "", fmt.Errorf("cannot extract fund ID from URL %s", source)
	}
	return m[1], nil
}

// fundNameFromURL derives a display name from the URL slug, e.g.
// "hdfc-large-cap-fund-direct-growth" becomes "HDFC Large Cap Fund".
func fundNameFromURL(source string) string {
	m := fundSlugRe.FindStringSubmatch(source)
	if m == nil {
		return "Unknown Fund"
	}
	words := strings.Split(strings.ReplaceAll(m[1], "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		if isAllUpperSlugWord(w) {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	name := strings.Join(words, " ")
	return strings.TrimSpace(directGrRe.ReplaceAllString(name, ""))
}

// Well-known fund-house acronyms that should stay upper-cased in names.
var upperSlugWords = map[string]struct{}{
	"hdfc": {}, "icici": {}, "sbi": {}, "uti": {}, "idfc": {},
	"lic": {}, "ppfas": {}, "dsp": {}, "absl": {},
}

func isAllUpperSlugWord(w string) bool {
	_, ok := upperSlugWords[strings.ToLower(w)]
	return ok
}

func trimHoldings(doc *model.FundDocument, maxHoldings int) *model.FundDocument {
	if maxHoldings <= 0 || len(doc.Holdings) <= maxHoldings {
		return doc
	}
	trimmed := *doc
	trimmed.Holdings = doc.Holdings[:maxHoldings]
	return &trimmed
}
