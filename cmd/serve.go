// =============================================================================
// Inventory Matcher - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which starts the HTTP service.
//
// COMMAND USAGE:
//   matcher serve [--port 8080]
//
// The service stops gracefully on Ctrl-C or SIGTERM. See internal/api for
// the endpoints.
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/inventory-matcher/internal/api"
)

// port overrides server.port when set.
var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	Long: `Start the HTTP service.

  GET  /health           liveness probe
  POST /api/reconcile    multipart form with "target" and "source" files

Add ?format=json to receive the summary and per-row results instead of the
export file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if port != 0 {
			cfg.Server.Port = port
		}

		logger := newLogger(cfg)
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return api.NewServer(cfg, logger).ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config, 8080)")
}
