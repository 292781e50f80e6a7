package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/guidebook/internal/nav"
	"github.com/ziadkadry99/guidebook/internal/persist"
	"github.com/ziadkadry99/guidebook/internal/progress"
	"github.com/ziadkadry99/guidebook/internal/session"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Click through every chapter and report pages that do not load in place",
	Long: `Activates every chapter in the sidebar the way a reader would and reports
chapters that fall back to a full page load, plus in-book links whose target
cannot be fetched. Exits non-zero when anything failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fetcher, root, err := openBook(cfg)
		if err != nil {
			return err
		}

		opts := sessionOptions(cfg)
		opts.Nav.SettleDelay = 0
		// A throwaway store keeps the crawl from rewriting the reader's sidebar state.
		sess := session.New(fetcher, persist.NewMemory(), opts)

		report, err := sess.Check(cmd.Context(), root+"index.html", progress.NewReporter("Checking chapters"))
		if err != nil {
			return err
		}

		if checkJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printReport(report)
		}

		if n := report.Failures(); n > 0 {
			return fmt.Errorf("%d problems found", n)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(checkCmd)
}

func printReport(report session.Report) {
	for _, p := range report.Pages {
		status := "ok"
		if p.Outcome != nav.OutcomeSpliced {
			status = p.Outcome.String()
		}
		fmt.Printf("%-10s %s (%s)\n", status, p.Chapter.Title, p.Chapter.Href)
		if p.Err != "" {
			fmt.Printf("           %s\n", p.Err)
		}
	}
	if len(report.Broken) > 0 {
		fmt.Println("\nBroken links:")
		for _, b := range report.Broken {
			fmt.Printf("  %s -> %s\n    %s\n", b.Page, b.Href, b.Err)
		}
	}
	fmt.Printf("\n%d chapters checked, %d problems\n", len(report.Pages), report.Failures())
}
