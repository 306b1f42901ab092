package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fundlens/fundlens/internal/model"
)

var asOf = time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

func TestFundDocumentPath(t *testing.T) {
	got := FundDocumentPath("outputs/funds", asOf, "flexi_cap",
		"https://coin.zerodha.com/mf/fund/INF179K01YV8/hdfc-flexi-cap-direct-growth")
	want := filepath.Join("outputs/funds", "20260815", "flexi_cap", "coin_INF179K01YV8_hdfc-flexi-cap-direct-growth.json")
	if got != want {
		t.Errorf("Got %q, want %q", got, want)
	}
}

func TestAnalysisPath(t *testing.T) {
	got := AnalysisPath("outputs/analysis", asOf, "holdings", "flexi_cap")
	want := filepath.Join("outputs/analysis", "20260815", "holdings_flexi_cap.json")
	if got != want {
		t.Errorf("Got %q, want %q", got, want)
	}
}

func TestSlugFromSource_SanitizesOddCharacters(t *testing.T) {
	got := slugFromSource("https://x/fund/A B/c?d=1")
	for _, r := range got {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			t.Fatalf("Slug %q contains unsafe rune %q", got, r)
		}
	}
}

func TestSaveAndLoadFundDocuments(t *testing.T) {
	dir := t.TempDir()
	doc := &model.FundDocument{
		SchemaVersion: model.SchemaVersion,
		SourceURL:     "https://coin.zerodha.com/mf/fund/INF179K01YV8/hdfc-flexi-cap",
		FundName:      "HDFC Flexi Cap",
		FetchedAt:     asOf,
		Holdings: []model.Holding{
			{CompanyName: "HDFC Bank", AllocationPercentage: 9.8, Rank: 1},
		},
	}

	path, err := SaveFundDocument(dir, asOf, "flexi_cap", doc)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "20260815", "flexi_cap") {
		t.Errorf("Unexpected path: %s", path)
	}

	docs, err := LoadFundDocuments(dir, "20260815", "flexi_cap")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Expected 1 document, got %d", len(docs))
	}
	got := docs[0]
	if got.FundName != doc.FundName || len(got.Holdings) != 1 {
		t.Errorf("Round trip lost data: %+v", got)
	}
	if got.Holdings[0].CompanyName != "HDFC Bank" {
		t.Errorf("Unexpected holding: %+v", got.Holdings[0])
	}
}

func TestLoadFundDocuments_MissingGroupIsEmpty(t *testing.T) {
	docs, err := LoadFundDocuments(t.TempDir(), "20260815", "nope")
	if err != nil {
		t.Fatalf("Missing group must not error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Expected no documents, got %d", len(docs))
	}
}

func TestSaveAndLoadAggregation(t *testing.T) {
	dir := t.TempDir()
	res := &model.AggregationResult{
		SchemaVersion:   model.SchemaVersion,
		TotalFunds:      2,
		UniqueCompanies: 1,
		RankedByFundCount: []model.CompanyStat{
			{CompanyName: "HDFC Bank", FundCount: 2, TotalWeight: 17.9, AvgWeight: 8.95},
		},
	}

	if _, err := SaveAggregation(dir, asOf, "holdings", "flexi_cap", res); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadAggregation(dir, "20260815", "holdings", "flexi_cap")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TotalFunds != 2 || got.UniqueCompanies != 1 {
		t.Errorf("Round trip lost counters: %+v", got)
	}
	if len(got.RankedByFundCount) != 1 || got.RankedByFundCount[0].FundCount != 2 {
		t.Errorf("Round trip lost rankings: %+v", got.RankedByFundCount)
	}
}

func TestListDates_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"20260813", "20260815", "20260814"} {
		if _, err := SaveAggregation(dir, mustDate(t, d), "holdings", "g", &model.AggregationResult{}); err != nil {
			t.Fatal(err)
		}
	}

	dates, err := ListDates(dir)
	if err != nil {
		t.Fatalf("ListDates: %v", err)
	}
	want := []string{"20260815", "20260814", "20260813"}
	if len(dates) != len(want) {
		t.Fatalf("Expected %d dates, got %v", len(want), dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], dates[i])
		}
	}
}

func TestListDates_MissingRootIsEmpty(t *testing.T) {
	dates, err := ListDates(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Missing root must not error: %v", err)
	}
	if len(dates) != 0 {
		t.Errorf("Expected no dates, got %v", dates)
	}
}

func TestListGroupsAndAnalyses(t *testing.T) {
	outDir := t.TempDir()
	anDir := t.TempDir()
	doc := &model.FundDocument{SourceURL: "https://x/fund/A1/a", FundName: "A"}

	if _, err := SaveFundDocument(outDir, asOf, "flexi_cap", doc); err != nil {
		t.Fatal(err)
	}
	if _, err := SaveFundDocument(outDir, asOf, "large_cap", doc); err != nil {
		t.Fatal(err)
	}
	if _, err := SaveAggregation(anDir, asOf, "holdings", "flexi_cap", &model.AggregationResult{}); err != nil {
		t.Fatal(err)
	}

	groups, err := ListGroups(outDir, "20260815")
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 2 || groups[0] != "flexi_cap" || groups[1] != "large_cap" {
		t.Errorf("Unexpected groups: %v", groups)
	}

	pairs, err := ListAnalyses(anDir, "20260815")
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(pairs) != 1 || pairs[0][0] != "holdings" || pairs[0][1] != "flexi_cap" {
		t.Errorf("Unexpected analyses: %v", pairs)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
