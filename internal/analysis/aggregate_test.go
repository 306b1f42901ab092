package analysis

import (
	"math"
	"testing"

	"github.com/fundlens/fundlens/internal/model"
)

func fund(name, source string, holdings ...model.Holding) FetchedFund {
	return FetchedFund{Doc: &model.FundDocument{
		SchemaVersion: model.SchemaVersion,
		SourceURL:     source,
		FundName:      name,
		Holdings:      holdings,
	}}
}

func holding(company string, pct float64, rank int) model.Holding {
	return model.Holding{CompanyName: company, AllocationPercentage: pct, Rank: rank}
}

func statFor(t *testing.T, stats []model.CompanyStat, company string) model.CompanyStat {
	t.Helper()
	for _, s := range stats {
		if s.CompanyName == company {
			return s
		}
	}
	t.Fatalf("Company %q not found in stats", company)
	return model.CompanyStat{}
}

func TestAggregate_ThreeFundOverlap(t *testing.T) {
	records := []FetchedFund{
		fund("Fund A", "https://coin.zerodha.com/mf/fund/A1/a", holding("X", 5, 1)),
		fund("Fund B", "https://coin.zerodha.com/mf/fund/B1/b", holding("X", 3, 1), holding("Y", 10, 2)),
		fund("Fund C", "https://coin.zerodha.com/mf/fund/C1/c", holding("X", 2, 1)),
	}

	res := NewAggregator(nil, 100, 5).Aggregate(records)

	if res.TotalFunds != 3 {
		t.Errorf("Expected 3 funds, got %d", res.TotalFunds)
	}
	if res.UniqueCompanies != 2 {
		t.Errorf("Expected 2 unique companies, got %d", res.UniqueCompanies)
	}

	x := statFor(t, res.RankedByFundCount, "X")
	if x.FundCount != 3 {
		t.Errorf("X: expected fund_count 3, got %d", x.FundCount)
	}
	if x.TotalWeight != 10 {
		t.Errorf("X: expected total_weight 10, got %v", x.TotalWeight)
	}
	if math.Abs(x.AvgWeight-10.0/3.0) > 1e-9 {
		t.Errorf("X: expected avg_weight %.4f, got %v", 10.0/3.0, x.AvgWeight)
	}

	y := statFor(t, res.RankedByTotalWeight, "Y")
	if y.FundCount != 1 || y.TotalWeight != 10 {
		t.Errorf("Y: expected fund_count 1 and total_weight 10, got %d and %v", y.FundCount, y.TotalWeight)
	}

	if len(res.CommonToAllFunds) != 1 || res.CommonToAllFunds[0].CompanyName != "X" {
		t.Errorf("Expected common_to_all_funds = [X], got %v", res.CommonToAllFunds)
	}
}

func TestAggregate_NormalizationCollapsesVariants(t *testing.T) {
	records := []FetchedFund{
		fund("Fund A", "https://x/fund/A1/a", holding("HDFC Bank", 5, 1)),
		fund("Fund B", "https://x/fund/B1/b", holding("hdfc   bank", 3, 1)),
		fund("Fund C", "https://x/fund/C1/c", holding("HDFC BANK ", 2, 1)),
	}

	res := NewAggregator(nil, 100, 5).Aggregate(records)

	if res.UniqueCompanies != 1 {
		t.Fatalf("Expected one company after normalization, got %d", res.UniqueCompanies)
	}
	s := res.RankedByFundCount[0]
	if s.CompanyName != "HDFC Bank" {
		t.Errorf("Expected first-seen casing as display name, got %q", s.CompanyName)
	}
	if s.FundCount != 3 || s.TotalWeight != 10 {
		t.Errorf("Expected fund_count 3 and total_weight 10, got %d and %v", s.FundCount, s.TotalWeight)
	}
}

func TestNormalizeCompany_Idempotent(t *testing.T) {
	once := NormalizeCompany("  HDFC   Bank ")
	twice := NormalizeCompany(once)
	if once != twice {
		t.Errorf("Normalization not idempotent: %q vs %q", once, twice)
	}
	if once != "hdfc bank" {
		t.Errorf("Unexpected normalized form: %q", once)
	}
}

func TestAggregate_ExclusionRemovesFromRankingsNotFromFunds(t *testing.T) {
	records := []FetchedFund{
		fund("Fund A", "https://x/fund/A1/a", holding("TREPS", 8, 1), holding("X", 5, 2)),
		fund("Fund B", "https://x/fund/B1/b", holding("treps", 7, 1), holding("X", 3, 2)),
	}

	res := NewAggregator([]string{"TREPS"}, 100, 5).Aggregate(records)

	if res.TotalFunds != 2 {
		t.Errorf("Exclusion must not shrink total_funds: got %d", res.TotalFunds)
	}
	if res.UniqueCompanies != 1 {
		t.Errorf("Expected only X to survive, got %d companies", res.UniqueCompanies)
	}
	for _, s := range res.RankedByFundCount {
		if NormalizeCompany(s.CompanyName) == "treps" {
			t.Errorf("Excluded company leaked into rankings")
		}
	}
}

func TestAggregate_ZeroRecords(t *testing.T) {
	res := NewAggregator(nil, 100, 5).Aggregate(nil)

	if res.UniqueCompanies != 0 || res.TotalFunds != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
	if len(res.RankedByFundCount) != 0 || len(res.RankedByTotalWeight) != 0 || len(res.CommonToAllFunds) != 0 {
		t.Errorf("Expected all sequences empty")
	}
	if res.SchemaVersion != model.SchemaVersion {
		t.Errorf("Expected schema version %q, got %q", model.SchemaVersion, res.SchemaVersion)
	}
}

func TestAggregate_FundWithZeroHoldingsCountsTowardTotals(t *testing.T) {
	records := []FetchedFund{
		fund("Fund A", "https://x/fund/A1/a", holding("X", 5, 1)),
		fund("Empty Fund", "https://x/fund/B1/b"),
	}

	res := NewAggregator(nil, 100, 5).Aggregate(records)

	if res.TotalFunds != 2 {
		t.Errorf("Expected 2 funds, got %d", res.TotalFunds)
	}
	// The empty fund contributes no holdings, so X is still universal
	// among contributing funds.
	if len(res.CommonToAllFunds) != 1 {
		t.Errorf("Expected X common to the single contributing fund, got %v", res.CommonToAllFunds)
	}
}

func TestAggregate_TruncationAndOrdering(t *testing.T) {
	records := []FetchedFund{
		fund("Fund A", "https://x/fund/A1/a",
			holding("Alpha", 5, 1), holding("Beta", 4, 2), holding("Gamma", 3, 3)),
		fund("Fund B", "https://x/fund/B1/b",
			holding("Alpha", 5, 1), holding("Beta", 6, 2)),
	}

	res := NewAggregator(nil, 2, 5).Aggregate(records)

	if res.UniqueCompanies != 3 {
		t.Errorf("unique_companies counts before truncation: got %d", res.UniqueCompanies)
	}
	if len(res.RankedByFundCount) != 2 || len(res.RankedByTotalWeight) != 2 {
		t.Fatalf("Expected both rankings truncated to 2")
	}

	// Alpha and Beta tie on both fund_count (2) and total_weight (10),
	// so the normalized name breaks the tie.
	if res.RankedByFundCount[0].CompanyName != "Alpha" {
		t.Errorf("Expected Alpha first by name tie-break, got %q", res.RankedByFundCount[0].CompanyName)
	}
	if res.RankedByTotalWeight[0].CompanyName != "Alpha" {
		t.Errorf("Expected Alpha first in weight ranking, got %q", res.RankedByTotalWeight[0].CompanyName)
	}

	// common_to_all_funds is never truncated.
	if len(res.CommonToAllFunds) != 2 {
		t.Errorf("Expected Alpha and Beta common to both funds, got %v", res.CommonToAllFunds)
	}
}

func TestAggregate_SampleFundsBounded(t *testing.T) {
	records := []FetchedFund{
		fund("Fund A", "https://x/fund/A1/a", holding("X", 1, 1)),
		fund("Fund B", "https://x/fund/B1/b", holding("X", 1, 1)),
		fund("Fund C", "https://x/fund/C1/c", holding("X", 1, 1)),
	}

	res := NewAggregator(nil, 100, 2).Aggregate(records)

	x := statFor(t, res.RankedByFundCount, "X")
	if len(x.SampleFunds) != 2 {
		t.Fatalf("Expected 2 sample funds, got %d", len(x.SampleFunds))
	}
	if x.SampleFunds[0] != "Fund A" || x.SampleFunds[1] != "Fund B" {
		t.Errorf("Earliest funds must win: got %v", x.SampleFunds)
	}
	if x.FundCount != 3 {
		t.Errorf("Sample bound must not affect fund_count: got %d", x.FundCount)
	}
}

func TestAggregate_MalformedRecordSkipped(t *testing.T) {
	records := []FetchedFund{
		fund("Fund A", "https://x/fund/A1/a", holding("X", 5, 1)),
		fund("Bad Fund", "https://x/fund/B1/b", holding("X", -2, 1)),
		{Doc: nil},
	}

	res := NewAggregator(nil, 100, 5).Aggregate(records)

	if res.TotalSourceFiles != 3 {
		t.Errorf("Expected 3 source files, got %d", res.TotalSourceFiles)
	}
	if res.TotalFunds != 1 {
		t.Errorf("Expected 1 valid fund, got %d", res.TotalFunds)
	}
	x := statFor(t, res.RankedByFundCount, "X")
	if x.TotalWeight != 5 {
		t.Errorf("Malformed record must not contribute weight: got %v", x.TotalWeight)
	}
}

func TestAggregate_DuplicateHoldingInOneFundCountsOnce(t *testing.T) {
	records := []FetchedFund{
		fund("Fund A", "https://x/fund/A1/a", holding("X", 5, 1), holding("X", 3, 2)),
	}

	res := NewAggregator(nil, 100, 5).Aggregate(records)

	x := statFor(t, res.RankedByFundCount, "X")
	if x.FundCount != 1 {
		t.Errorf("Same fund twice must count once: got %d", x.FundCount)
	}
	if x.TotalWeight != 8 {
		t.Errorf("Both allocations still accumulate: got %v", x.TotalWeight)
	}
}
