package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-tl-verge/internal/config"
	"github.com/pable/go-tl-verge/internal/logging"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "verge",
	Short: "TETR.IO Tetra League player profiler",
	Long: `Profile a TETR.IO Tetra League player: playstyle archetype, skill-curve
deviations, percentile ranks among similarly ranked players, win/loss
momentum and record against each playstyle.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default $VERGE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (overrides db_path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log_level)")

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		c.DBPath = dbPath
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = logLevel
	}
	l, err := logging.New(c.LogLevel, c.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg, logger = c, l
	return nil
}
