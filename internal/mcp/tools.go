package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/otto-pm/repoindex/internal/pipeline"
	"github.com/otto-pm/repoindex/internal/searcher"
	"github.com/otto-pm/repoindex/pkg/types"
)

// MCP error codes.
const (
	ErrorCodeInvalidParams = -32602
	ErrorCodeInternalError = -32603
	ErrorCodeNotIndexed    = -32001
	ErrorCodeEmptyQuery    = -32002
)

// handleIndexRepository handles the index_repository tool invocation.
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repo, ok := args["repo"].(string)
	if !ok || repo == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "repo parameter is required", map[string]interface{}{
			"param": "repo", "reason": "missing or empty",
		})
	}
	branch, _ := args["branch"].(string)
	force, _ := args["force"].(bool)

	status := s.pipeline.RunFull(ctx, pipeline.Request{Repo: repo, Branch: branch, Force: force})
	if !status.Success {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"state": string(status.State),
			"error": status.Error,
		})
	}

	response := map[string]interface{}{
		"run_id":         status.RunID,
		"state":          string(status.State),
		"repo":           status.Repo,
		"branch":         status.Branch,
		"commit_sha":     status.CommitSHA,
		"was_cached":     status.WasCached,
		"total_files":    status.TotalFiles,
		"total_chunks":   status.TotalChunks,
		"total_embedded": status.TotalEmbedded,
		"failed":         status.Failed,
		"message":        status.Message,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation.
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repo, ok := args["repo"].(string)
	if !ok || repo == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "repo parameter is required", nil)
	}
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required", nil)
	}
	topK := getIntDefault(args, "top_k", searcher.DefaultTopK)
	language, _ := args["language"].(string)

	results, err := s.searcher.Search(ctx, searcher.Query{
		Repo:     repo,
		Text:     query,
		TopK:     topK,
		Language: language,
	})
	if err != nil {
		var notIndexed *types.NotIndexedError
		if errors.As(err, &notIndexed) {
			return nil, newMCPError(ErrorCodeNotIndexed, "repository not indexed", map[string]interface{}{
				"repo": repo, "missing": notIndexed.Artifact,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		items = append(items, map[string]interface{}{
			"chunk_id":   r.Chunk.ChunkID,
			"file_path":  r.Chunk.FilePath,
			"chunk_name": r.Chunk.ChunkName,
			"chunk_type": string(r.Chunk.ChunkType),
			"language":   r.Chunk.Language,
			"start_line": r.Chunk.StartLine,
			"end_line":   r.Chunk.EndLine,
			"score":      r.Score,
			"content":    r.Chunk.Content,
		})
	}
	response := map[string]interface{}{
		"repo":        repo,
		"query":       query,
		"total_found": len(items),
		"results":     items,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRepositoryStatus handles the repository_status tool invocation.
func (s *Server) handleRepositoryStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := requireRepo(request)
	if err != nil {
		return nil, err
	}

	status, err := s.pipeline.Status(ctx, repo)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "status lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"repo":              status.Repo,
		"ingested":          status.Ingested,
		"chunked":           status.Chunked,
		"embedded":          status.Embedded,
		"ready_for_search":  status.ReadyForSearch,
		"total_files":       status.TotalFiles,
		"total_chunks":      status.TotalChunks,
		"pipeline_progress": status.Progress,
	}
	if status.Commit != nil {
		response["commit_info"] = status.Commit
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCommitHistory handles the commit_history tool invocation.
func (s *Server) handleCommitHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := requireRepo(request)
	if err != nil {
		return nil, err
	}
	args, _ := request.Params.Arguments.(map[string]interface{})
	limit := getIntDefault(args, "limit", 10)

	history, err := s.pipeline.History(ctx, repo, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "history lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"repo":    repo,
		"total":   len(history),
		"history": history,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

func requireRepo(request mcp.CallToolRequest) (string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	repo, ok := args["repo"].(string)
	if !ok || repo == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "repo parameter is required", nil)
	}
	return repo, nil
}

// MCPError represents an MCP protocol error.
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if args == nil {
		return defaultValue
	}
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
