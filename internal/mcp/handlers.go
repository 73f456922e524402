package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docchat/docchat/internal/vectordb"
)

// handleAskDocuments runs the full question-answering pipeline.
func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	answer, err := s.asker.HandleQuery(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	return mcp.NewToolResultText(answer), nil
}

// handleSearchDocuments performs a raw semantic search over the corpus.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 8)
	if limit <= 0 {
		limit = 8
	}

	results, err := s.store.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The corpus may not be indexed yet. Run `docchat ingest` to index it."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleListTraces lists recent query traces from the run index.
func (s *Server) handleListTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.runs == nil {
		return mcp.NewToolResultError("trace index not available"), nil
	}

	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing traces failed: %v", err)), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("No traces recorded yet."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d trace(s):\n", len(runs)))
	for _, r := range runs {
		sb.WriteString(fmt.Sprintf("\n--- %s ---\n", r.RunID))
		sb.WriteString(fmt.Sprintf("Question: %s\n", r.UserMessage))
		sb.WriteString(fmt.Sprintf("Answer: %s\n", preview(r.FinalAnswer, 200)))
		sb.WriteString(fmt.Sprintf("Iterations: %d, citations: %d\n", r.IterationCount, r.CitationCount))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatSearchResults converts search results into a text format
// suited for AI agent consumption.
func formatSearchResults(results []vectordb.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Source: %s (page %d)\n", r.Document.Metadata.Source, r.Document.Metadata.Page))
		if r.Document.Metadata.Section != "" {
			sb.WriteString(fmt.Sprintf("Section: %s\n", r.Document.Metadata.Section))
		}
		sb.WriteString(fmt.Sprintf("Similarity: %.1f%%\n", r.Similarity*100))
		sb.WriteString("\n")
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n")
	}

	return sb.String()
}

func preview(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
