package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"runlog/cache"
	"runlog/config"

	"github.com/spf13/cobra"
)

var cacheFilePath string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and edit cached workout decisions.",
	Long: `The workout cache remembers every interactive classification keyed by
Strava activity id, so a run is only asked about once per version tag.

Deleting an entry makes the next import ask about that run again.`,
	Example: `
  # List cached decisions
  runlog cache show

  # Forget one decision
  runlog cache delete 12345678901

  # Forget everything (requires interactive confirmation)
  runlog cache clear
`,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List cached decisions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadCacheForCommand()
		if err != nil {
			return err
		}
		printCacheEntries(os.Stdout, store)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <activity-id>...",
	Short: "Remove cached decisions for the given activity ids.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadCacheForCommand()
		if err != nil {
			return err
		}
		removed := deleteCacheEntries(store, args)
		if removed == 0 {
			fmt.Println("No matching cache entries.")
			return nil
		}
		if err := store.Save(); err != nil {
			return err
		}
		fmt.Printf("Removed %d cache entries from %s\n", removed, store.Path())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached decision.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadCacheForCommand()
		if err != nil {
			return err
		}
		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput,
			fmt.Sprintf("Remove all %d cached decisions from %q?", store.Len(), store.Path()))
		if err != nil {
			return err
		}
		if !confirmed {
			return errors.New("clear aborted: not confirmed")
		}
		store.Clear()
		if err := store.Save(); err != nil {
			return err
		}
		fmt.Printf("Cleared cache: %s\n", store.Path())
		return nil
	},
}

func loadCacheForCommand() (*cache.Cache, error) {
	path := strings.TrimSpace(cacheFilePath)
	if path == "" {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return nil, err
		}
		path = cfg.Paths.Cache
	}
	return cache.Load(path)
}

func printCacheEntries(out io.Writer, store *cache.Cache) {
	fmt.Fprintf(out, "Cache file: %s (%d entries)\n", store.Path(), store.Len())
	for _, key := range store.Keys() {
		entry, _ := store.Entry(key)
		value := strings.TrimSpace(string(entry.Value))
		if value == "" || value == "null" {
			value = "not a workout"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", key, entry.Version, value)
	}
}

func deleteCacheEntries(store *cache.Cache, keys []string) int {
	removed := 0
	for _, key := range keys {
		if store.Delete(strings.TrimSpace(key)) {
			removed++
		}
	}
	return removed
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheShowCmd, cacheDeleteCmd, cacheClearCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheFilePath, "cache", "", "Cache file (default: paths.cache)")
}
