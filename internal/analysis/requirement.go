// Package analysis implements the analysis-driven data pipeline: a
// DataRequirement describes what a named analysis needs, a strategy-matched
// coordinator fetches it, and the aggregator turns the per-fund records
// into ranked cross-fund statistics.
package analysis

import "fmt"

// Strategy selects how a DataRequirement is fulfilled.
type Strategy string

const (
	// StrategyByCategory fetches every fund in one or more named groups.
	StrategyByCategory Strategy = "by_category"
	// StrategyTargeted fetches an explicit list of fund+weight pairs,
	// treated as one implicit group named PortfolioGroup.
	StrategyTargeted Strategy = "targeted"
)

// PortfolioGroup is the sentinel group name for targeted requirements.
const PortfolioGroup = "portfolio"

// Target is one fund in a targeted requirement. Weight is the units held;
// it is carried alongside the fetched record untouched, and value
// computation belongs to a downstream consumer.
type Target struct {
	Source string
	Weight float64
}

// DataRequirement is the declarative fetch specification for one analysis.
// Exactly one of Groups or Targets is populated, per Strategy.
type DataRequirement struct {
	Strategy           Strategy
	Groups             map[string][]string
	Targets            []Target
	MaxHoldingsPerFund int
}

// Validate checks the structural invariants: at least one fund source, no
// duplicate source within a group, a sane holdings cap.
func (r DataRequirement) Validate() error {
	if r.MaxHoldingsPerFund < 1 {
		return fmt.Errorf("max holdings per fund must be >= 1, got %d", r.MaxHoldingsPerFund)
	}

	switch r.Strategy {
	case StrategyByCategory:
		if len(r.Groups) == 0 {
			return fmt.Errorf("by_category requirement has no groups")
		}
		for name, sources := range r.Groups {
			if len(sources) == 0 {
				return fmt.Errorf("group %q has no fund sources", name)
			}
			for i, src := range sources {
				if src == "" {
					return fmt.Errorf("group %q has an empty fund source at index %d", name, i)
				}
			}
			if dup := firstDuplicate(sources); dup != "" {
				return fmt.Errorf("group %q lists fund source %q twice", name, dup)
			}
		}
	case StrategyTargeted:
		if len(r.Targets) == 0 {
			return fmt.Errorf("targeted requirement has no targets")
		}
		sources := make([]string, len(r.Targets))
		for i, t := range r.Targets {
			if t.Source == "" {
				return fmt.Errorf("target %d has an empty fund source", i)
			}
			sources[i] = t.Source
		}
		if dup := firstDuplicate(sources); dup != "" {
			return fmt.Errorf("fund source %q targeted twice", dup)
		}
	default:
		return fmt.Errorf("unknown strategy %q", r.Strategy)
	}
	return nil
}

func firstDuplicate(values []string) string {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
}
