package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/scrape"
	"github.com/fundlens/fundlens/internal/storage"
)

var (
	scrapeKind        string
	scrapeMaxHoldings int
	scrapeGroupName   string
	scrapeSave        bool
	scrapeTimeout     time.Duration
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <fund-url>",
	Short: "Fetch one fund's portfolio and print it as JSON",
	Long: `Scrape fetches a single fund page or portfolio API payload, extracts
its top holdings and prints the document as JSON. Useful for checking a
source before adding it to an analysis.

Example:
  fundlens scrape https://coin.zerodha.com/mf/fund/INF179K01YV8/hdfc-flexi-cap-direct-growth
  fundlens scrape --scraper page --max-holdings 15 <url>`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&scrapeKind, "scraper", config.ScraperAPI, "scraper to use (api, page)")
	scrapeCmd.Flags().IntVar(&scrapeMaxHoldings, "max-holdings", 10, "number of top holdings to keep")
	scrapeCmd.Flags().StringVar(&scrapeGroupName, "group", "adhoc", "group directory used with --save")
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "also write the document to the output tree")
	scrapeCmd.Flags().DurationVar(&scrapeTimeout, "timeout", 2*time.Minute, "fetch timeout")
}

func runScrape(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scraper, err := scrape.New(scrapeKind, cfg.Scraping)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	doc, err := scraper.FetchFund(ctx, source, scrapeMaxHoldings)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if scrapeSave {
		path, err := storage.SaveFundDocument(cfg.Paths.OutputDir, time.Now(), scrapeGroupName, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved: %s\n", path)
	}
	return nil
}
