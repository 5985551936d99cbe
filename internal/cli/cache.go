package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/wayfarer/internal/cache"
)

func init() {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Response cache management",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop all cached responses",
		Run:   runCacheClear,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show durable cache tier statistics",
		Run:   runCacheStats,
	}

	cacheCmd.AddCommand(clearCmd, statsCmd)
	RootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) {
	// Clear both tiers even when caching is switched off; stale entries
	// would come back the moment it is re-enabled.
	m := newCacheTiers()
	defer m.Close()

	if err := m.Clear(cmd.Context()); err != nil {
		exitErr("clear cache", err)
	}
	fmt.Println("cache cleared")
}

func runCacheStats(cmd *cobra.Command, args []string) {
	b, err := cache.NewSQLiteBackend(cfg.CacheDBPath())
	if err != nil {
		exitErr("open cache", err)
	}
	defer b.Close()

	stats, err := b.Stats(cmd.Context(), cfg.CacheDBPath())
	if err != nil {
		exitErr("cache stats", err)
	}

	out, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(out))
}
