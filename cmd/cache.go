/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/valpere/jatran/internal/store"
)

var requestsLimit int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation memory",
	Long: `List, inspect, and clear the SQLite translation memory used by
"jatran serve --cache" and "jatran translate --cache".`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCacheDB()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListMemory(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries in translation memory.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODEL\tUSED\tLAST USED\tTEXT\tTRANSLATION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				e.ID, e.Model, e.UsageCount, e.LastUsed.Format("2006-01-02 15:04"),
				snippet(e.SourceText, 20), snippet(e.Translation, 40))
		}
		return w.Flush()
	},
}

var cacheRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Show the most recent served requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCacheDB()
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.ListRequests(cmd.Context(), requestsLimit)
		if err != nil {
			return fmt.Errorf("failed to list requests: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No requests recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tMODEL\tCACHE\tLATENCY\tTEXT\tRESULT")
		for _, r := range records {
			result := r.Translation
			if r.Error != "" {
				result = "error: " + r.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%v\t%dms\t%s\t%s\n",
				r.Timestamp.Format("2006-01-02 15:04:05"), r.Model, r.CacheHit, r.LatencyMs,
				snippet(r.SourceText, 20), snippet(result, 40))
		}
		return w.Flush()
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCacheDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Total usage:     %d\n", stats.TotalUsage)
		fmt.Printf("Requests:        %d\n", stats.TotalRequests)
		fmt.Printf("Cache hits:      %d\n", stats.CacheHits)
		fmt.Printf("Failed requests: %d\n", stats.FailedRequests)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCacheDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteMemory(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		fmt.Printf("Deleted entry: %s\n", args[0])
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openCacheDB()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearMemory(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared %d entries from translation memory.\n", n)
		return nil
	},
}

// openCacheDB opens the database named by --cache or cache.path.
func openCacheDB() (*store.Store, error) {
	if cfg.Cache.Path == "" {
		return nil, fmt.Errorf("no translation memory configured (use --cache or JATRAN_CACHE_PATH)")
	}
	if _, err := os.Stat(cfg.Cache.Path); err != nil {
		return nil, fmt.Errorf("translation memory not found: %w", err)
	}
	return openMemory(cfg.Cache.Path)
}

func snippet(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.PersistentFlags().String("cache", "", "SQLite translation memory path")
	cacheRequestsCmd.Flags().IntVarP(&requestsLimit, "limit", "n", 20, "Number of requests to show")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheRequestsCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
