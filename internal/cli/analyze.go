package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/fundlens/fundlens/internal/analysis"
	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/llm"
	"github.com/fundlens/fundlens/internal/scrape"
	"github.com/fundlens/fundlens/internal/storage"
)

var (
	analyzeGroup   string
	analyzeNoSave  bool
	analyzeLLM     bool
	analyzeTimeout time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [analysis...]",
	Short: "Run configured analyses end to end",
	Long: `Analyze resolves each named analysis to its data requirement, scrapes
the fund portfolios it needs, aggregates holdings per group and writes
the results to the configured analysis directory.

With no arguments every enabled analysis runs.

Example:
  fundlens analyze
  fundlens analyze holdings
  fundlens analyze holdings --group flexi_cap
  fundlens analyze portfolio --llm`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeGroup, "group", "", "restrict the run to a single group")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "skip writing fund documents (results are always written)")
	analyzeCmd.Flags().BoolVar(&analyzeLLM, "llm", false, "write an LLM commentary beside each result (needs OPENAI_API_KEY)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 15*time.Minute, "overall run timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		for name := range cfg.Enabled() {
			names = append(names, name)
		}
		if len(names) == 0 {
			return fmt.Errorf("no enabled analyses in configuration")
		}
		sort.Strings(names)
	}

	var summarizer *llm.Summarizer
	if analyzeLLM || cfg.LLM.Enabled {
		summarizer, err = llm.NewSummarizer(cfg.LLM, os.Getenv("OPENAI_API_KEY"))
		if err != nil {
			return fmt.Errorf("llm commentary requested: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	asOf := time.Now()
	failures := 0
	for _, name := range names {
		if err := runOneAnalysis(ctx, cfg, summarizer, name, asOf); err != nil {
			log.Error().Str("analysis", name).Err(err).Msg("analysis failed")
			failures++
		}
	}
	if failures == len(names) {
		return fmt.Errorf("all %d analyses failed", len(names))
	}
	return nil
}

func runOneAnalysis(ctx context.Context, cfg *config.Config, summarizer *llm.Summarizer, name string, asOf time.Time) error {
	def, ok := cfg.Analyses[name]
	if !ok {
		return fmt.Errorf("%w: %q", analysis.ErrAnalysisNotFound, name)
	}

	scraperKind := def.Scraper
	if scraperKind == "" {
		scraperKind = config.ScraperAPI
	}
	scraper, err := scrape.New(scraperKind, cfg.Scraping)
	if err != nil {
		return err
	}

	orch := analysis.NewOrchestrator(cfg, analysis.NewCoordinators(scraper, cfg.Scraping.Concurrency))
	outcome, err := orch.Run(ctx, name, asOf, analyzeGroup)
	if err != nil {
		if outcome != nil {
			printRunSummary(name, outcome)
		}
		return err
	}

	if cfg.Scraping.SaveDocuments && !analyzeNoSave {
		for group, fetched := range outcome.Fetched {
			for _, f := range fetched {
				if _, err := storage.SaveFundDocument(cfg.Paths.OutputDir, asOf, group, f.Doc); err != nil {
					log.Warn().Str("group", group).Err(err).Msg("fund document not saved")
				}
			}
		}
	}

	for group, res := range outcome.Results {
		path, err := storage.SaveAggregation(cfg.Paths.AnalysisDir, asOf, name, group, res)
		if err != nil {
			return err
		}
		log.Info().Str("group", group).Str("path", path).Int("companies", res.UniqueCompanies).Msg("result written")

		if summarizer != nil {
			text, err := summarizer.Summarize(ctx, name, group, res)
			if err != nil {
				log.Warn().Str("group", group).Err(err).Msg("llm commentary failed")
				continue
			}
			mdPath := strings.TrimSuffix(path, ".json") + ".llm.md"
			if err := os.WriteFile(mdPath, []byte(text+"\n"), 0o644); err != nil {
				log.Warn().Str("path", mdPath).Err(err).Msg("llm commentary not saved")
			}
		}
	}

	printRunSummary(name, outcome)
	return nil
}

// printRunSummary reports which groups succeeded and which were skipped.
func printRunSummary(name string, outcome *analysis.RunOutcome) {
	fmt.Fprintf(os.Stderr, "\nAnalysis %q:\n", name)
	for _, g := range outcome.Groups {
		if g.Err != nil {
			fmt.Fprintf(os.Stderr, "  %-20s skipped: %v\n", g.Group, g.Err)
			continue
		}
		res := outcome.Results[g.Group]
		fmt.Fprintf(os.Stderr, "  %-20s %d funds, %d companies\n", g.Group, g.Fetched, res.UniqueCompanies)
	}
}
