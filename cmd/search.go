package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/guidebook/internal/search"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the book's index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fetcher, root, err := openBook(cfg)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		indexURL := root + search.IndexFile
		entries := search.NewClient(fetcher).Load(cmd.Context(), indexURL)
		if len(entries) == 0 {
			return fmt.Errorf("no search index at %s", indexURL)
		}

		results := search.Search(entries, query)
		if searchLimit > 0 && len(results) > searchLimit {
			results = results[:searchLimit]
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if results == nil {
				results = []search.Result{}
			}
			return enc.Encode(results)
		}

		if len(results) == 0 {
			fmt.Printf("No results for %q.\n", query)
			return nil
		}
		fmt.Printf("Found %d results for %q:\n\n", len(results), query)
		for i, r := range results {
			fmt.Printf("%2d. %s (%s) score %d\n", i+1, r.Title, r.Path, r.Score)
			if r.Snippet != "" {
				fmt.Printf("    %s\n", r.Snippet)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", search.MaxResults, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(searchCmd)
}
