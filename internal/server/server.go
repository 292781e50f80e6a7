package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/guidebook/internal/console"
	"github.com/ziadkadry99/guidebook/internal/db"
	"github.com/ziadkadry99/guidebook/internal/fetch"
	"github.com/ziadkadry99/guidebook/internal/persist"
	"github.com/ziadkadry99/guidebook/internal/search"
	"github.com/ziadkadry99/guidebook/internal/session"
)

// Config holds server configuration.
type Config struct {
	Port     int
	BookDir  string // directory containing the built book
	AllowAll bool   // allow all CORS origins (dev mode)
	Session  session.Options
}

// Server serves a built book and attaches a session console to it.
type Server struct {
	cfg        Config
	db         *db.DB
	store      persist.Store
	index      *search.Client
	book       *fetch.Dir
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. Console sessions persist their state in database.
func New(cfg Config, database *db.DB) *Server {
	book := fetch.NewDir(cfg.BookDir)
	s := &Server{
		cfg:   cfg,
		db:    database,
		store: persist.NewSQL(database),
		index: search.NewClient(book),
		book:  book,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.With(middleware.Timeout(30*time.Second)).Get("/api/search", s.handleSearch)
	r.Get("/ws/session", console.Handler(s.newSession, startURL, s.checkOrigin))
	r.Handle("/*", http.FileServer(http.Dir(s.cfg.BookDir)))

	return r
}

// newSession creates a console session that reads the served book from
// disk. Sessions cannot reach any other origin.
func (s *Server) newSession() *session.Session {
	return session.New(s.book, s.store, s.cfg.Session)
}

// startURL is the page a console session opens: the "page" query parameter
// relative to the book root, or the book's front page.
func startURL(r *http.Request) string {
	page := strings.TrimPrefix(r.URL.Query().Get("page"), "/")
	if page == "" {
		page = "index.html"
	}
	return fetch.DirBase + page
}

// checkOrigin accepts console handshakes from pages on this server, from
// clients that send no Origin, and from anywhere in allow-all mode.
func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	entries := s.index.Load(r.Context(), s.book.URL(search.IndexFile))
	results := search.Search(entries, q)
	if results == nil {
		results = []search.Result{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		log.Printf("server: encoding search results: %v", err)
	}
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("guidebook server listening on %s (book: %s)", addr, s.cfg.BookDir)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
