package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askDocumentsTool defines the ask_documents MCP tool.
var askDocumentsTool = mcp.NewTool("ask_documents",
	mcp.WithDescription("Ask a question about the indexed document corpus. Runs the full retrieval and synthesis pipeline and returns a cited answer."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
)

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Run a raw semantic search over the document corpus without answer synthesis. Returns the matching chunks with sources and similarity scores."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of chunks to return (default 8)"),
	),
)

// listTracesTool defines the list_traces MCP tool.
var listTracesTool = mcp.NewTool("list_traces",
	mcp.WithDescription("List recent query traces: run ID, question, answer preview, and iteration count."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of traces to return (default 20)"),
	),
)
