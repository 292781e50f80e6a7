package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/guidebook/internal/console"
	"github.com/ziadkadry99/guidebook/internal/session"
)

var browseCmd = &cobra.Command{
	Use:   "browse [page]",
	Short: "Read the book interactively from the terminal",
	Long: `Opens the book (or the given page, relative to the book root) in a
headless session and reads commands from stdin. Type "help" for the list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fetcher, root, err := openBook(cfg)
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		page := "index.html"
		if len(args) == 1 {
			page = args[0]
		}
		start, err := pageURL(root, page)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess := session.New(fetcher, store, sessionOptions(cfg))
		if err := sess.Open(ctx, start); err != nil {
			return fmt.Errorf("opening %s: %w", page, err)
		}
		printResponse(os.Stdout, console.Exec(ctx, sess, console.Command{Type: "state"}))
		return repl(ctx, sess, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

// repl runs console commands read line by line from in.
func repl(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "help", "?":
			fmt.Fprintln(out, console.Help)
			fmt.Fprintln(out, "  quit")
			continue
		case "quit", "exit":
			return nil
		}
		c, err := console.ParseLine(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printResponse(out, console.Exec(ctx, sess, c))
		if ctx.Err() != nil {
			return nil
		}
	}
}

// printResponse renders a console response for a terminal.
func printResponse(w io.Writer, r console.Response) {
	switch r.Type {
	case "error":
		if r.Outcome != "" {
			fmt.Fprintf(w, "error (%s): %s\n", r.Outcome, r.Content)
		} else {
			fmt.Fprintf(w, "error: %s\n", r.Content)
		}
	case "state":
		s := r.State
		fmt.Fprintf(w, "%s  %s\n", s.Title, s.Location)
		if r.Outcome != "" {
			fmt.Fprintf(w, "  %s, now %s\n", r.Outcome, s.State)
		}
		if r.Content != "" {
			fmt.Fprintf(w, "  section: %s\n", r.Content)
		}
		sidebar := "shown"
		if s.SidebarHidden {
			sidebar = "hidden"
		}
		fmt.Fprintf(w, "  font %dpx, theme %s, sidebar %s\n", s.FontSize, s.Theme, sidebar)
	case "results":
		if len(r.Results) == 0 {
			fmt.Fprintln(w, "no results")
			return
		}
		for i, res := range r.Results {
			fmt.Fprintf(w, "%2d. %s (%s) [%d]\n", i+1, res.Title, res.Path, res.Score)
			if res.Snippet != "" {
				fmt.Fprintf(w, "    %s\n", res.Snippet)
			}
		}
	case "chapters":
		for _, c := range r.Chapters {
			mark := " "
			switch {
			case c.Active:
				mark = "*"
			case c.Expanded:
				mark = "+"
			}
			fmt.Fprintf(w, "%s %s%s", mark, strings.Repeat("  ", c.Depth), c.Title)
			if c.Href != "" {
				fmt.Fprintf(w, "  %s", c.Href)
			}
			fmt.Fprintln(w)
		}
	case "html":
		fmt.Fprintln(w, r.Content)
	}
}
