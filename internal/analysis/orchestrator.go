package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/phuslu/log"

	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/model"
)

// GroupStatus records the outcome of one group in a run, for the final
// user-facing summary.
type GroupStatus struct {
	Group   string
	Fetched int
	Err     error
}

// RunOutcome is everything a run produced. Fetched carries the raw per-group
// records so the caller can persist them; the orchestrator itself performs no
// storage or network access beyond the delegated fetch.
type RunOutcome struct {
	AsOf    time.Time
	Results map[string]*model.AggregationResult
	Fetched map[string][]FetchedFund
	Groups  []GroupStatus
}

// Orchestrator wires resolver, coordinators and aggregator into a single
// run entry point.
type Orchestrator struct {
	resolver     *Resolver
	coordinators map[Strategy]Coordinator
	cfg          *config.Config
}

// NewOrchestrator builds an orchestrator over an explicit coordinator
// registry.
func NewOrchestrator(cfg *config.Config, coordinators map[Strategy]Coordinator) *Orchestrator {
	return &Orchestrator{
		resolver:     NewResolver(cfg),
		coordinators: coordinators,
		cfg:          cfg,
	}
}

// Run resolves the named analysis, fetches its records and aggregates each
// group. The as-of date stamps the outcome for the caller's persistence; it
// is not used for fetching. When groupFilter is non-empty only that group is
// aggregated. A group with zero fetched records is recorded as failed with a
// NoDataError but does not abort sibling groups; Run returns an error only
// when the analysis cannot be resolved, the filter matches nothing, or every
// group fails.
func (o *Orchestrator) Run(ctx context.Context, name string, asOf time.Time, groupFilter string) (*RunOutcome, error) {
	req, err := o.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}

	coord, ok := o.coordinators[req.Strategy]
	if !ok {
		return nil, &ConfigurationError{Analysis: name, Reason: fmt.Sprintf("no coordinator for strategy %q", req.Strategy)}
	}

	fetched, err := coord.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	def := o.cfg.Analyses[name]
	agg := NewAggregator(def.Exclude, def.MaxCompaniesInResults, def.MaxSampleFundsPerCompany)

	groups := make([]string, 0, len(fetched))
	for g := range fetched {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	if groupFilter != "" {
		if _, ok := fetched[groupFilter]; !ok {
			return nil, &ConfigurationError{Analysis: name, Reason: fmt.Sprintf("unknown group %q", groupFilter)}
		}
		groups = []string{groupFilter}
	}

	outcome := &RunOutcome{
		AsOf:    asOf,
		Results: make(map[string]*model.AggregationResult, len(groups)),
		Fetched: fetched,
	}

	failed := 0
	for _, g := range groups {
		records := fetched[g]
		if len(records) == 0 {
			err := &NoDataError{Group: g}
			log.Warn().Str("analysis", name).Str("group", g).Msg("group produced no records")
			outcome.Groups = append(outcome.Groups, GroupStatus{Group: g, Err: err})
			failed++
			continue
		}
		outcome.Results[g] = agg.Aggregate(records)
		outcome.Groups = append(outcome.Groups, GroupStatus{Group: g, Fetched: len(records)})
	}

	if len(groups) > 0 && failed == len(groups) {
		return outcome, &NoDataError{Group: groups[0]}
	}
	return outcome, nil
}
