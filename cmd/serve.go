package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-tl-verge/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve profiles over HTTP",
	Long: `Start the HTTP API:
  GET /healthz             liveness
  GET /profile/{username}  profile as JSON
  GET /metrics             Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fetcher, release, err := newFetcher(ctx, db, false)
	if err != nil {
		return err
	}
	defer release()

	srv := server.New(server.Config{
		Addr:           cfg.ListenAddr,
		AllowedOrigins: cfg.AllowedOrigins,
	}, fetcher, logger.Named("http"))

	logger.Info("starting verge api", zap.String("addr", cfg.ListenAddr), zap.String("cache", cfg.CacheBackend))
	return srv.Run(ctx)
}
