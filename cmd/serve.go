package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/guidebook/internal/db"
	"github.com/ziadkadry99/guidebook/internal/server"
)

var (
	servePort     int
	serveAllowAll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built book with a session console attached",
	Long: `Serves the book directory over HTTP, with a search API at /api/search and
a websocket session console at /ws/session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Remote() {
			return fmt.Errorf("serve needs a local book directory, not %s", cfg.Book)
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if cmd.Flags().Changed("allow-all") {
			cfg.Server.AllowAll = serveAllowAll
		}

		var database *db.DB
		if cfg.StorePath == "" {
			database, err = db.OpenMemory()
		} else {
			database, err = db.Open(cfg.StorePath)
		}
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			BookDir:  cfg.Book,
			AllowAll: cfg.Server.AllowAll,
			Session:  sessionOptions(cfg),
		}, database)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "guidebook server %s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Book: %s\n", cfg.Book)
		if cfg.StorePath != "" {
			fmt.Fprintf(os.Stderr, "  Store: %s\n", cfg.StorePath)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all", false, "Allow all CORS origins")
	rootCmd.AddCommand(serveCmd)
}
