package model

// FundRef identifies one fund that contributed records to an aggregation.
type FundRef struct {
	Name string            `json:"name"`
	Meta map[string]string `json:"meta,omitempty"`
}

// CompanyStat is one company's aggregated footprint across a group of funds.
// The JSON keys match existing stored artifacts and must not change.
type CompanyStat struct {
	CompanyName string   `json:"company_name"`
	FundCount   int      `json:"fund_count"`
	TotalWeight float64  `json:"total_weight"`
	AvgWeight   float64  `json:"avg_weight"`
	SampleFunds []string `json:"sample_funds,omitempty"`
}

// AggregationResult is the cross-fund statistics for one group. It is
// computed fresh per run and never mutated after construction.
//
// TotalSourceFiles counts every record handed to the aggregator;
// TotalFunds counts only the records that survived validation, so the two
// differ when malformed records were skipped.
type AggregationResult struct {
	SchemaVersion       string        `json:"schema_version"`
	TotalFunds          int           `json:"total_funds"`
	TotalSourceFiles    int           `json:"total_source_files"`
	Funds               []FundRef     `json:"funds"`
	UniqueCompanies     int           `json:"unique_companies"`
	RankedByFundCount   []CompanyStat `json:"ranked_by_fund_count"`
	RankedByTotalWeight []CompanyStat `json:"ranked_by_total_weight"`
	CommonToAllFunds    []CompanyStat `json:"common_to_all_funds"`
}
