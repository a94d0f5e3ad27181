package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexRepositoryTool returns the tool definition for index_repository.
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Run the full indexing pipeline (ingest, chunk, embed) for a GitHub repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo": map[string]interface{}{
					"type":        "string",
					"description": "Repository as owner/name or a GitHub URL",
				},
				"branch": map[string]interface{}{
					"type":        "string",
					"description": "Branch to index (defaults to the repository default branch)",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-embed chunks even when embeddings already exist",
					"default":     false,
				},
			},
			Required: []string{"repo"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code.
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search an indexed repository with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo": map[string]interface{}{
					"type":        "string",
					"description": "Repository as owner/name",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Optional language filter (e.g., 'python', 'go')",
				},
			},
			Required: []string{"repo", "query"},
		},
	}
}

// repositoryStatusTool returns the tool definition for repository_status.
func repositoryStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "repository_status",
		Description: "Report how far through the indexing pipeline a repository is",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo": map[string]interface{}{
					"type":        "string",
					"description": "Repository as owner/name",
				},
			},
			Required: []string{"repo"},
		},
	}
}

// commitHistoryTool returns the tool definition for commit_history.
func commitHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "commit_history",
		Description: "List the commits that have been processed for a repository, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo": map[string]interface{}{
					"type":        "string",
					"description": "Repository as owner/name",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of history entries",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"repo"},
		},
	}
}
