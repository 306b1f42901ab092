package cli

import (
	"github.com/spf13/cobra"

	"github.com/fundlens/fundlens/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored results over the dashboard API",
	Long: `Serve starts a read-only HTTP API over the stored fund documents and
aggregation results.

Endpoints:
  GET /healthz
  GET /api/dates
  GET /api/analyses?date=YYYYMMDD
  GET /api/groups?date=YYYYMMDD
  GET /api/data?date=YYYYMMDD&analysis=NAME&group=GROUP
  GET /api/funds?date=YYYYMMDD&group=GROUP`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	return server.New(cfg.Server, cfg.Paths).ListenAndServe()
}
