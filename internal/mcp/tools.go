package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchBookTool defines the search_book MCP tool.
var searchBookTool = mcp.NewTool("search_book",
	mcp.WithDescription("Search the book's prebuilt index. Title matches rank above content matches."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Text to look for, matched case-insensitively"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default and maximum 10)"),
	),
)

// listChaptersTool defines the list_chapters MCP tool.
var listChaptersTool = mcp.NewTool("list_chapters",
	mcp.WithDescription("List the book's chapters as shown in its sidebar, indented by depth."),
)

// readPageTool defines the read_page MCP tool.
var readPageTool = mcp.NewTool("read_page",
	mcp.WithDescription("Read the text of one page of the book."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Page path relative to the book root, e.g. guide/setup.html"),
	),
)
