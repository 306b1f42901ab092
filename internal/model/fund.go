package model

import "time"

// SchemaVersion is stamped into every persisted document so that stored
// artifacts stay identifiable if the shape ever changes.
const SchemaVersion = "1.0"

// Holding is one company's allocation within a fund's portfolio.
type Holding struct {
	CompanyName          string  `json:"company_name"`
	AllocationPercentage float64 `json:"allocation_percentage"` // 0..100
	Rank                 int     `json:"rank"`
}

// FundDocument is the immutable snapshot produced by one scrape of one fund.
// SourceURL is the stable fund identifier. The coordinator owns the document
// until it is handed to the aggregator; nothing mutates it afterwards.
type FundDocument struct {
	SchemaVersion string            `json:"schema_version"`
	SourceURL     string            `json:"source_url"`
	Provider      string            `json:"provider,omitempty"` // which scraper produced it (api, page)
	FetchedAt     time.Time         `json:"fetched_at"`
	FundName      string            `json:"fund_name"`
	FundMeta      map[string]string `json:"fund_meta,omitempty"` // AUM, NAV, expense ratio; opaque to the aggregator
	Holdings      []Holding         `json:"holdings"`
}
