package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-tl-verge/internal/config"
	"github.com/pable/go-tl-verge/internal/rediscache"
)

var (
	dropForce bool
	dropAll   bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the snapshot cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the SQLite cache holds",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

// cacheDropCmd empties the cache, or deletes the whole database with --all.
var cacheDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Empty the snapshot cache",
	Long: `Empty the snapshot cache. Stored reports are kept unless --all is given,
which permanently deletes the SQLite database file including report history.`,
	Args: cobra.NoArgs,
	RunE: runCacheDrop,
}

func init() {
	cacheDropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	cacheDropCmd.Flags().BoolVar(&dropAll, "all", false, "delete the whole database, including report history")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheDropCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := db.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Backend:      %s\n", cfg.CacheBackend)
	if s.LeaderboardEntries > 0 {
		fmt.Fprintf(os.Stdout, "Leaderboard:  %d players, fresh until %s\n",
			s.LeaderboardEntries, s.LeaderboardUntil.Local().Format(time.DateTime))
	} else {
		fmt.Fprintln(os.Stdout, "Leaderboard:  not cached")
	}
	fmt.Fprintf(os.Stdout, "Players:      %d cached, %d expired\n", s.Players, s.ExpiredPlayers)
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.PurgeExpired(cmd.Context())
	if err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Purged %d expired entries.\n", n)
	return nil
}

func runCacheDrop(cmd *cobra.Command, args []string) error {
	if !dropForce {
		if dropAll {
			fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", cfg.DBPath)
		} else {
			fmt.Fprintf(os.Stderr, "This will empty the snapshot cache in: %s\n", cfg.DBPath)
		}
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	if cfg.CacheBackend == config.CacheRedis {
		rc, err := rediscache.Dial(cmd.Context(), cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()
		if err := rc.DropLeaderboard(cmd.Context()); err != nil {
			return fmt.Errorf("drop redis leaderboard: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Dropped cached leaderboard from redis; player entries expire on their own.")
	}

	if dropAll {
		if err := os.Remove(cfg.DBPath); err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
				return nil
			}
			return fmt.Errorf("remove database: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted: %s\n", cfg.DBPath)
		return nil
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.DropCache(cmd.Context()); err != nil {
		return fmt.Errorf("drop cache: %w", err)
	}
	fmt.Fprintln(os.Stdout, "Snapshot cache emptied.")
	return nil
}
