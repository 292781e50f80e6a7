package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/guidebook/internal/fetch"
	"github.com/ziadkadry99/guidebook/internal/search"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes a built book to assistants.
type Server struct {
	fetcher fetch.Fetcher
	root    string
	index   *search.Client
	mcp     *server.MCPServer
}

// NewServer creates an MCP server for the book whose front page lives at
// root, which must end in a slash.
func NewServer(fetcher fetch.Fetcher, root string) *Server {
	s := &Server{
		fetcher: fetcher,
		root:    root,
		index:   search.NewClient(fetcher),
	}

	s.mcp = server.NewMCPServer(
		"guidebook",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchBookTool, s.handleSearchBook)
	s.mcp.AddTool(listChaptersTool, s.handleListChapters)
	s.mcp.AddTool(readPageTool, s.handleReadPage)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
