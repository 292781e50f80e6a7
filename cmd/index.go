package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/guidebook/internal/search"
)

var indexOutput string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the book's search index from its pages",
	Long:  `Reads every page of a local book and writes search_index.json next to its front page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Remote() {
			return fmt.Errorf("index needs a local book directory, not %s", cfg.Book)
		}

		entries, err := search.BuildIndex(cfg.Book)
		if err != nil {
			return err
		}
		out := indexOutput
		if out == "" {
			out = filepath.Join(cfg.Book, search.IndexFile)
		}
		if err := search.WriteIndex(entries, out); err != nil {
			return fmt.Errorf("writing search index: %w", err)
		}
		fmt.Printf("Indexed %d pages into %s\n", len(entries), out)
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVarP(&indexOutput, "output", "o", "", "index file path (default <book>/search_index.json)")
	rootCmd.AddCommand(indexCmd)
}
