// Package mcp exposes the indexing pipeline and searcher as MCP tools
// over stdio: index_repository, search_code, repository_status, and
// commit_history.
package mcp
