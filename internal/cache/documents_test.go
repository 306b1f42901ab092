package cache

import (
	"testing"
	"time"

	"github.com/fundlens/fundlens/internal/model"
)

func testDoc(source string) *model.FundDocument {
	return &model.FundDocument{
		SchemaVersion: model.SchemaVersion,
		SourceURL:     source,
		FundName:      "Test Fund",
		Holdings:      []model.Holding{{CompanyName: "X", AllocationPercentage: 5, Rank: 1}},
	}
}

func TestDocumentCache_RoundTrip(t *testing.T) {
	c := NewDocumentCache(t.TempDir(), time.Hour)
	source := "https://coin.zerodha.com/mf/fund/A1/a"

	if _, found := c.Get(source); found {
		t.Fatal("Empty cache must miss")
	}
	if err := c.Put(source, testDoc(source)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	doc, found := c.Get(source)
	if !found {
		t.Fatal("Expected a hit after Put")
	}
	if doc.FundName != "Test Fund" || len(doc.Holdings) != 1 {
		t.Errorf("Round trip lost data: %+v", doc)
	}
}

func TestDocumentCache_DiskSurvivesNewInstance(t *testing.T) {
	dir := t.TempDir()
	source := "https://coin.zerodha.com/mf/fund/A1/a"

	first := NewDocumentCache(dir, time.Hour)
	if err := first.Put(source, testDoc(source)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A fresh instance has a cold memory layer and must fall back to disk.
	second := NewDocumentCache(dir, time.Hour)
	doc, found := second.Get(source)
	if !found {
		t.Fatal("Expected disk layer to serve a new instance")
	}
	if doc.SourceURL != source {
		t.Errorf("Unexpected document: %+v", doc)
	}
}

func TestDocumentCache_NoDiskLayer(t *testing.T) {
	c := NewDocumentCache("", time.Hour)
	source := "https://coin.zerodha.com/mf/fund/A1/a"

	if err := c.Put(source, testDoc(source)); err != nil {
		t.Fatalf("Put without disk layer: %v", err)
	}
	if _, found := c.Get(source); !found {
		t.Fatal("Memory-only cache must hit")
	}
}

func TestDocumentCache_ExpiredDiskEntryMisses(t *testing.T) {
	dir := t.TempDir()
	source := "https://coin.zerodha.com/mf/fund/A1/a"

	short := NewDocumentCache(dir, time.Millisecond)
	if err := short.Put(source, testDoc(source)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	fresh := NewDocumentCache(dir, time.Millisecond)
	if _, found := fresh.Get(source); found {
		t.Fatal("Expired entry must not be served")
	}
}

func TestDocumentCache_Clear(t *testing.T) {
	c := NewDocumentCache(t.TempDir(), time.Hour)
	source := "https://coin.zerodha.com/mf/fund/A1/a"

	if err := c.Put(source, testDoc(source)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, found := c.Get(source); found {
		t.Fatal("Cleared cache must miss")
	}
}

func TestKey_StableAndDistinct(t *testing.T) {
	a := Key("https://x/fund/A1/a")
	b := Key("https://x/fund/B1/b")
	if a == b {
		t.Error("Distinct sources must not collide")
	}
	if a != Key("https://x/fund/A1/a") {
		t.Error("Key must be deterministic")
	}
}
