// Package config defines the typed configuration for fundlens.
//
// Configuration is loaded once at startup and passed into each component
// explicitly; there is no process-wide mutable state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy names accepted in an analysis definition.
const (
	StrategyByCategory = "by_category"
	StrategyTargeted   = "targeted"
)

// Scraper kinds accepted in an analysis definition.
const (
	ScraperAPI  = "api"
	ScraperPage = "page"
)

// Config is the root configuration.
type Config struct {
	Paths    Paths               `yaml:"paths"`
	Scraping Scraping            `yaml:"scraping"`
	Server   Server              `yaml:"server"`
	LLM      LLM                 `yaml:"llm"`
	Analyses map[string]Analysis `yaml:"analyses"`
}

// Paths holds the output directory tree roots.
type Paths struct {
	OutputDir   string `yaml:"output_dir"`   // scraped fund documents
	AnalysisDir string `yaml:"analysis_dir"` // aggregation results
}

// Scraping holds the global fetch settings shared by all scrapers.
type Scraping struct {
	UserAgent         string  `yaml:"user_agent"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	DelaySeconds      float64 `yaml:"delay_between_requests"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	Concurrency       int     `yaml:"concurrency"`
	MaxBodyBytes      int64   `yaml:"max_body_bytes"`
	RespectRobots     bool    `yaml:"respect_robots"`
	CacheDir          string  `yaml:"cache_dir"`
	CacheTTLMinutes   int     `yaml:"cache_ttl_minutes"`
	SaveDocuments     bool    `yaml:"save_documents"`
	HTTPProxy         string  `yaml:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy"`
}

// Timeout returns the per-request timeout.
func (s Scraping) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Delay returns the politeness delay between requests to the same host.
func (s Scraping) Delay() time.Duration {
	return time.Duration(s.DelaySeconds * float64(time.Second))
}

// CacheTTL returns how long fetched documents stay cached.
func (s Scraping) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLMinutes) * time.Minute
}

// Server holds dashboard settings.
type Server struct {
	Addr string `yaml:"addr"`
}

// LLM holds the optional insight summarizer settings. The summary never
// affects analysis results; it is a separate artifact.
type LLM struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	BaseURL   string `yaml:"base_url"`
}

// Target is one fund in a targeted analysis. Weight is the units held; it is
// carried through the pipeline untouched (value computation is downstream).
type Target struct {
	Source string  `yaml:"source"`
	Weight float64 `yaml:"weight"`
}

// Analysis is one named analysis definition.
type Analysis struct {
	Enabled    bool                `yaml:"enabled"`
	Strategy   string              `yaml:"strategy"`
	Scraper    string              `yaml:"scraper"`
	Categories map[string][]string `yaml:"categories,omitempty"`
	Targets    []Target            `yaml:"targets,omitempty"`

	MaxHoldings              int      `yaml:"max_holdings"`
	Exclude                  []string `yaml:"exclude_from_analysis,omitempty"`
	MaxCompaniesInResults    int      `yaml:"max_companies_in_results"`
	MaxSampleFundsPerCompany int      `yaml:"max_sample_funds_per_company"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: Paths{
			OutputDir:   "outputs/funds",
			AnalysisDir: "outputs/analysis",
		},
		Scraping: Scraping{
			UserAgent:         "fundlens/0.1 (+https://github.com/fundlens/fundlens)",
			TimeoutSeconds:    30,
			DelaySeconds:      1.0,
			RequestsPerSecond: 2,
			Burst:             2,
			Concurrency:       4,
			MaxBodyBytes:      2_000_000,
			RespectRobots:     true,
			CacheDir:          ".fundlens-cache",
			CacheTTLMinutes:   360,
			SaveDocuments:     true,
		},
		Server: Server{Addr: ":8085"},
		LLM: LLM{
			Enabled:   false,
			Model:     "gpt-4o-mini",
			MaxTokens: 800,
		},
		Analyses: map[string]Analysis{
			"holdings": {
				Enabled:                  true,
				Strategy:                 StrategyByCategory,
				Scraper:                  ScraperAPI,
				Categories:               map[string][]string{},
				MaxHoldings:              10,
				MaxCompaniesInResults:    100,
				MaxSampleFundsPerCompany: 5,
				Exclude: []string{
					"TREPS",
					"Net Receivables / (Payables)",
					"Cash & Cash Equivalents",
					"T-Bills",
					"Reverse Repo",
				},
			},
		},
	}
}

// Load reads a YAML config file and overlays it on the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural invariants that would otherwise surface as
// confusing failures mid-run.
func (c *Config) Validate() error {
	if c.Paths.OutputDir == "" || c.Paths.AnalysisDir == "" {
		return fmt.Errorf("paths.output_dir and paths.analysis_dir are required")
	}
	if c.Scraping.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraping.timeout_seconds must be positive")
	}
	if c.Scraping.Concurrency <= 0 {
		return fmt.Errorf("scraping.concurrency must be positive")
	}
	for name, a := range c.Analyses {
		if err := validateAnalysis(name, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAnalysis(name string, a Analysis) error {
	switch a.Strategy {
	case StrategyByCategory, StrategyTargeted:
	default:
		return fmt.Errorf("analysis %q: unknown strategy %q", name, a.Strategy)
	}
	if a.Scraper != "" && a.Scraper != ScraperAPI && a.Scraper != ScraperPage {
		return fmt.Errorf("analysis %q: unknown scraper %q", name, a.Scraper)
	}
	if a.MaxHoldings < 1 {
		return fmt.Errorf("analysis %q: max_holdings must be >= 1", name)
	}
	return nil
}

// Enabled returns only the enabled analyses.
func (c *Config) Enabled() map[string]Analysis {
	out := make(map[string]Analysis)
	for name, a := range c.Analyses {
		if a.Enabled {
			out[name] = a
		}
	}
	return out
}
