package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/phuslu/log"

	"github.com/fundlens/fundlens/internal/model"
	"github.com/fundlens/fundlens/internal/scrape"
	"github.com/fundlens/fundlens/internal/worker"
)

// FetchedFund pairs a scraped document with the weight carried from a
// targeted requirement. Weight is zero for category fetches.
type FetchedFund struct {
	Doc    *model.FundDocument
	Weight float64
}

// Coordinator fulfills a DataRequirement by invoking the scraper once per
// fund source and returning the records keyed by group name. A per-fund
// failure is logged and skipped; it never aborts the group. The returned
// sequences preserve the order of the requirement even when fetches run
// concurrently.
type Coordinator interface {
	Fetch(ctx context.Context, req DataRequirement) (map[string][]FetchedFund, error)
}

// NewCoordinators builds the strategy registry. The registry is an explicit
// map populated here, at construction time; there is no dynamic discovery.
func NewCoordinators(s scrape.Scraper, concurrency int) map[Strategy]Coordinator {
	return map[Strategy]Coordinator{
		StrategyByCategory: &CategoryCoordinator{scraper: s, pool: worker.NewPool(concurrency)},
		StrategyTargeted:   &TargetedCoordinator{scraper: s, pool: worker.NewPool(concurrency)},
	}
}

// fetchJob fetches one fund source on a pool worker.
type fetchJob struct {
	scraper     scrape.Scraper
	source      string
	maxHoldings int
	weight      float64
}

type fetchResult struct {
	source string
	weight float64
	doc    *model.FundDocument
	err    error
}

func (r *fetchResult) GetError() error { return r.err }

func (j *fetchJob) Execute(ctx context.Context) worker.Result {
	doc, err := j.scraper.FetchFund(ctx, j.source, j.maxHoldings)
	return &fetchResult{source: j.source, weight: j.weight, doc: doc, err: err}
}

// CategoryCoordinator fulfills by_category requirements: every fund in each
// named group, groups processed in name order.
type CategoryCoordinator struct {
	scraper scrape.Scraper
	pool    *worker.Pool
}

// Fetch implements Coordinator.
func (c *CategoryCoordinator) Fetch(ctx context.Context, req DataRequirement) (map[string][]FetchedFund, error) {
	if req.Strategy != StrategyByCategory {
		return nil, fmt.Errorf("category coordinator got strategy %q", req.Strategy)
	}

	groups := make([]string, 0, len(req.Groups))
	for name := range req.Groups {
		groups = append(groups, name)
	}
	sort.Strings(groups)

	out := make(map[string][]FetchedFund, len(groups))
	for _, group := range groups {
		sources := req.Groups[group]
		jobs := make([]worker.Job, len(sources))
		for i, src := range sources {
			jobs[i] = &fetchJob{scraper: c.scraper, source: src, maxHoldings: req.MaxHoldingsPerFund}
		}
		log.Info().Str("group", group).Int("funds", len(sources)).Msg("fetching category")
		out[group] = collectFetched(ctx, c.pool, group, jobs)
	}
	return out, nil
}

// TargetedCoordinator fulfills targeted requirements: the whole target list
// becomes one implicit group named PortfolioGroup, each record carrying its
// target weight.
type TargetedCoordinator struct {
	scraper scrape.Scraper
	pool    *worker.Pool
}

// Fetch implements Coordinator.
func (c *TargetedCoordinator) Fetch(ctx context.Context, req DataRequirement) (map[string][]FetchedFund, error) {
	if req.Strategy != StrategyTargeted {
		return nil, fmt.Errorf("targeted coordinator got strategy %q", req.Strategy)
	}

	jobs := make([]worker.Job, len(req.Targets))
	for i, t := range req.Targets {
		jobs[i] = &fetchJob{
			scraper:     c.scraper,
			source:      t.Source,
			maxHoldings: req.MaxHoldingsPerFund,
			weight:      t.Weight,
		}
	}
	log.Info().Int("funds", len(jobs)).Msg("fetching targeted portfolio")

	return map[string][]FetchedFund{
		PortfolioGroup: collectFetched(ctx, c.pool, PortfolioGroup, jobs),
	}, nil
}

// collectFetched runs the jobs on the pool and keeps the successes in
// submission order. Failed fetches are logged as skips.
func collectFetched(ctx context.Context, pool *worker.Pool, group string, jobs []worker.Job) []FetchedFund {
	results := pool.RunOrdered(ctx, jobs)

	fetched := make([]FetchedFund, 0, len(results))
	for _, res := range results {
		fr, ok := res.(*fetchResult)
		if !ok {
			// Job never started, typically cancelled before submission.
			log.Warn().Str("group", group).Err(res.GetError()).Msg("fund skipped")
			continue
		}
		if fr.err != nil {
			log.Warn().Str("group", group).Str("source", fr.source).Err(fr.err).Msg("fund skipped")
			continue
		}
		fetched = append(fetched, FetchedFund{Doc: fr.doc, Weight: fr.weight})
	}
	log.Info().Str("group", group).Int("fetched", len(fetched)).Int("requested", len(jobs)).Msg("group fetch complete")
	return fetched
}
