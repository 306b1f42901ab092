package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/model"
	"github.com/fundlens/fundlens/internal/worker"
)

var (
	percentRe = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)
	rupeesRe  = regexp.MustCompile(`(?i)(?:₹|Rs\.?)\s*[\d,]+(?:\.\d+)?\s*(?:Cr\.?|L|Lakhs?|Bn|Mn)?`)
	riskRe    = regexp.MustCompile(`(?i)(Very\s+High|High|Moderately\s+High|Moderate|Low|Very\s+Low)\s+Risk`)
	expenseRe = regexp.MustCompile(`(?i)expense\s*ratio\D{0,20}(\d{1,2}(?:\.\d+)?)\s*%`)
	aumRe     = regexp.MustCompile(`(?i)(?:AUM|assets?\s+under\s+management)\D{0,20}((?:₹|Rs\.?)\s*[\d,]+(?:\.\d+)?\s*(?:Cr\.?|L|Lakhs?|Bn|Mn)?)`)

	// Sector tiles and cash-like rows that show up next to real holdings in
	// non-table layouts.
	sectorLikeRe = regexp.MustCompile(`(?i)^(financials?|industrials?|materials|energy|utilities|health\s*care|consumer.*|it|information\s*technology|communication|treps|reverse\s*repo|cash.*|pharmaceuticals|staples)$`)
)

// CoinPageScraper parses the public fund page markup. It exists for fund
// sources the static-assets API does not cover; the table layout is less
// stable than the API, so the API scraper is preferred.
type CoinPageScraper struct {
	httpClient *http.Client
	limiter    *worker.Limiter
	robots     *RobotsChecker
	docs       *cache.DocumentCache
	cfg        config.Scraping
}

// NewCoinPageScraper creates the page scraper.
func NewCoinPageScraper(cfg config.Scraping) *CoinPageScraper {
	return &CoinPageScraper{
		httpClient: newHTTPClient(cfg),
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		robots:     NewRobotsChecker(cfg.UserAgent, cfg.Timeout()),
		docs:       cache.NewDocumentCache(cfg.CacheDir, cfg.CacheTTL()),
		cfg:        cfg,
	}
}

// FetchFund implements Scraper.
func (s *CoinPageScraper) FetchFund(ctx context.Context, source string, maxHoldings int) (*model.FundDocument, error) {
	if doc, ok := s.docs.Get(source); ok {
		log.Debug().Str("source", source).Msg("fund document served from cache")
		return trimHoldings(doc, maxHoldings), nil
	}

	if s.cfg.RespectRobots {
		if allowed, _, _ := s.robots.CanFetch(ctx, source); !allowed {
			return nil, fetchErr(source, "disallowed by robots.txt")
		}
	}
	if err := s.limiter.WaitWithDelay(ctx, source, s.cfg.Delay()); err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}

	page, err := s.fetchHTML(ctx, source)
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}

	// Parse and cache the full table; maxHoldings applies on the way out
	// only, so analyses with different caps can share one cache entry.
	holdings := parseHoldings(page)
	if len(holdings) == 0 {
		return nil, fetchErr(source, "no holdings found on page")
	}

	doc := &model.FundDocument{
		SchemaVersion: model.SchemaVersion,
		SourceURL:     source,
		Provider:      config.ScraperPage,
		FetchedAt:     time.Now().UTC(),
		FundName:      parseFundName(page, source),
		FundMeta:      parseMetaFields(page),
		Holdings:      holdings,
	}

	if err := s.docs.Put(source, doc); err != nil {
		log.Warn().Str("source", source).Err(err).Msg("document cache write failed")
	}

	log.Info().Str("fund", doc.FundName).Int("holdings", len(holdings)).Msg("scraped fund via page")
	return trimHoldings(doc, maxHoldings), nil
}

func (s *CoinPageScraper) fetchHTML(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	return goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.cfg.MaxBodyBytes))
}

// parseHoldings finds the holdings table and extracts (company, percent)
// rows. It first looks for a table whose header mentions holdings, then
// falls back to any table whose rows carry a trailing percentage.
func parseHoldings(page *goquery.Document) []model.Holding {
	var table *goquery.Selection

	page.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		header := strings.ToLower(t.Find("th").Text())
		if strings.Contains(header, "holding") || strings.Contains(header, "company") {
			table = t
			return false
		}
		return true
	})
	if table == nil {
		page.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
			if len(rowsFromTable(t)) > 0 {
				table = t
				return false
			}
			return true
		})
	}
	if table == nil {
		return nil
	}
	return rowsFromTable(table)
}

func rowsFromTable(table *goquery.Selection) []model.Holding {
	var holdings []model.Holding
	rank := 1

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return // header or spacer row
		}

		name := cleanCompanyCell(cells.First().Text())
		m := percentRe.FindStringSubmatch(cells.Last().Text())
		if name == "" || m == nil || sectorLikeRe.MatchString(name) {
			return
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil || pct <= 0 || pct > 100 {
			return
		}

		holdings = append(holdings, model.Holding{
			CompanyName:          name,
			AllocationPercentage: pct,
			Rank:                 rank,
		})
		rank++
	})
	return holdings
}

var leadingRankRe = regexp.MustCompile(`^\d+\.\s*`)

func cleanCompanyCell(text string) string {
	// Drop leading numbering like "1." from ranked lists.
	name := leadingRankRe.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.Join(strings.Fields(name), " ")
}

func parseFundName(page *goquery.Document, source string) string {
	if h1 := strings.TrimSpace(page.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return fundNameFromURL(source)
}

// parseMetaFields pulls labeled figures out of the page body. Everything
// here is opaque enrichment; missing fields are simply absent.
func parseMetaFields(page *goquery.Document) map[string]string {
	body := page.Find("body").Text()
	meta := make(map[string]string)

	if m := expenseRe.FindStringSubmatch(body); m != nil {
		meta["expense_ratio"] = m[1] + "%"
	}
	if m := aumRe.FindStringSubmatch(body); m != nil {
		meta["aum"] = strings.Join(strings.Fields(m[1]), " ")
	} else if m := rupeesRe.FindString(body); m != "" {
		meta["aum"] = strings.Join(strings.Fields(m), " ")
	}
	if m := riskRe.FindStringSubmatch(body); m != nil {
		meta["risk_level"] = m[1]
	}
	return meta
}
