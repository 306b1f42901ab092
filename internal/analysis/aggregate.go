package analysis

import (
	"sort"

	"github.com/phuslu/log"

	"github.com/fundlens/fundlens/internal/model"
)

// Aggregator folds per-fund holdings into cross-fund company statistics.
// One instance per group; accumulation is sequential over shared counters.
type Aggregator struct {
	exclude    map[string]struct{}
	maxResults int
	maxSamples int
}

// NewAggregator builds an aggregator. Excluded names are matched against
// normalized company names, case-insensitively.
func NewAggregator(excluded []string, maxResults, maxSamples int) *Aggregator {
	ex := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		ex[NormalizeCompany(name)] = struct{}{}
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxSamples < 1 {
		maxSamples = 1
	}
	return &Aggregator{exclude: ex, maxResults: maxResults, maxSamples: maxSamples}
}

// companyAcc is the per-company accumulator keyed by normalized name.
type companyAcc struct {
	display     string
	funds       map[string]struct{}
	totalWeight float64
	samples     []string
}

// Aggregate folds the records into an AggregationResult. Malformed records
// (nil document, empty fund name, or an out-of-range allocation) are skipped
// with a warning; they still count toward TotalSourceFiles. Zero records is not
// an error and yields an all-empty result.
func (a *Aggregator) Aggregate(records []FetchedFund) *model.AggregationResult {
	result := &model.AggregationResult{
		SchemaVersion:       model.SchemaVersion,
		TotalSourceFiles:    len(records),
		Funds:               []model.FundRef{},
		RankedByFundCount:   []model.CompanyStat{},
		RankedByTotalWeight: []model.CompanyStat{},
		CommonToAllFunds:    []model.CompanyStat{},
	}

	accs := make(map[string]*companyAcc)
	contributing := make(map[string]struct{})

	for _, rec := range records {
		doc := rec.Doc
		if !validRecord(doc) {
			log.Warn().Msg("malformed fund record skipped")
			continue
		}
		result.TotalFunds++
		result.Funds = append(result.Funds, model.FundRef{Name: doc.FundName, Meta: doc.FundMeta})

		fundKey := doc.SourceURL
		if fundKey == "" {
			fundKey = doc.FundName
		}

		for _, h := range doc.Holdings {
			key := NormalizeCompany(h.CompanyName)
			if key == "" {
				continue
			}
			if _, skip := a.exclude[key]; skip {
				continue
			}
			contributing[fundKey] = struct{}{}

			acc, ok := accs[key]
			if !ok {
				acc = &companyAcc{display: h.CompanyName, funds: make(map[string]struct{})}
				accs[key] = acc
			}
			if _, seen := acc.funds[fundKey]; !seen {
				acc.funds[fundKey] = struct{}{}
				if len(acc.samples) < a.maxSamples {
					acc.samples = append(acc.samples, doc.FundName)
				}
			}
			acc.totalWeight += h.AllocationPercentage
		}
	}

	result.UniqueCompanies = len(accs)
	if len(accs) == 0 {
		return result
	}

	type entry struct {
		key  string
		stat model.CompanyStat
	}
	entries := make([]entry, 0, len(accs))
	for key, acc := range accs {
		fundCount := len(acc.funds)
		entries = append(entries, entry{key: key, stat: model.CompanyStat{
			CompanyName: acc.display,
			FundCount:   fundCount,
			TotalWeight: acc.totalWeight,
			AvgWeight:   acc.totalWeight / float64(fundCount),
			SampleFunds: acc.samples,
		}})
	}

	byFundCount := make([]entry, len(entries))
	copy(byFundCount, entries)
	sort.Slice(byFundCount, func(i, j int) bool {
		a, b := byFundCount[i], byFundCount[j]
		if a.stat.FundCount != b.stat.FundCount {
			return a.stat.FundCount > b.stat.FundCount
		}
		if a.stat.TotalWeight != b.stat.TotalWeight {
			return a.stat.TotalWeight > b.stat.TotalWeight
		}
		return a.key < b.key
	})

	byTotalWeight := make([]entry, len(entries))
	copy(byTotalWeight, entries)
	sort.Slice(byTotalWeight, func(i, j int) bool {
		a, b := byTotalWeight[i], byTotalWeight[j]
		if a.stat.TotalWeight != b.stat.TotalWeight {
			return a.stat.TotalWeight > b.stat.TotalWeight
		}
		if a.stat.FundCount != b.stat.FundCount {
			return a.stat.FundCount > b.stat.FundCount
		}
		return a.key < b.key
	})

	for i, e := range byFundCount {
		if i >= a.maxResults {
			break
		}
		result.RankedByFundCount = append(result.RankedByFundCount, e.stat)
	}
	for i, e := range byTotalWeight {
		if i >= a.maxResults {
			break
		}
		result.RankedByTotalWeight = append(result.RankedByTotalWeight, e.stat)
	}

	// Universality is measured against funds that contributed at least one
	// surviving holding, not against funds requested or fetched.
	total := len(contributing)
	for _, e := range byFundCount {
		if e.stat.FundCount == total && total > 0 {
			result.CommonToAllFunds = append(result.CommonToAllFunds, e.stat)
		}
	}
	return result
}

func validRecord(doc *model.FundDocument) bool {
	if doc == nil || doc.FundName == "" {
		return false
	}
	for _, h := range doc.Holdings {
		if h.AllocationPercentage < 0 || h.AllocationPercentage > 100 {
			return false
		}
	}
	return true
}
