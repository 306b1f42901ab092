package analysis

import (
	"fmt"

	"github.com/fundlens/fundlens/internal/config"
)

// Resolver maps analysis names to validated DataRequirements. It has no
// side effects; all state comes from the configuration it was built with.
type Resolver struct {
	cfg *config.Config
}

// NewResolver creates a resolver over the given configuration.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns the DataRequirement for a named analysis. Unknown names
// yield ErrAnalysisNotFound; disabled or structurally invalid definitions
// yield *ConfigurationError.
func (r *Resolver) Resolve(name string) (DataRequirement, error) {
	a, ok := r.cfg.Analyses[name]
	if !ok {
		return DataRequirement{}, fmt.Errorf("%w: %q", ErrAnalysisNotFound, name)
	}
	if !a.Enabled {
		return DataRequirement{}, &ConfigurationError{Analysis: name, Reason: "disabled"}
	}

	req := DataRequirement{
		MaxHoldingsPerFund: a.MaxHoldings,
	}
	switch a.Strategy {
	case config.StrategyByCategory:
		req.Strategy = StrategyByCategory
		req.Groups = a.Categories
	case config.StrategyTargeted:
		req.Strategy = StrategyTargeted
		req.Targets = make([]Target, len(a.Targets))
		for i, t := range a.Targets {
			req.Targets[i] = Target{Source: t.Source, Weight: t.Weight}
		}
	default:
		return DataRequirement{}, &ConfigurationError{
			Analysis: name,
			Reason:   fmt.Sprintf("unknown strategy %q", a.Strategy),
		}
	}

	if err := req.Validate(); err != nil {
		return DataRequirement{}, &ConfigurationError{Analysis: name, Reason: err.Error()}
	}
	return req, nil
}
