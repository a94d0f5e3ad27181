package ingester

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"github.com/rs/zerolog"
)

// GitHubFetcher reads repositories through the GitHub REST API.
type GitHubFetcher struct {
	client *github.Client
	log    zerolog.Logger
}

// NewGitHubFetcher creates a fetcher; an empty token means
// unauthenticated access with GitHub's lower rate limits.
func NewGitHubFetcher(token string, log zerolog.Logger) *GitHubFetcher {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubFetcher{client: client, log: log}
}

func (f *GitHubFetcher) Describe(ctx context.Context, owner, name string) (*RepoDescription, error) {
	repo, _, err := f.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("github repository lookup: %w", err)
	}
	desc := &RepoDescription{DefaultBranch: repo.GetDefaultBranch()}
	desc.Info.Description = repo.GetDescription()
	desc.Info.Language = repo.GetLanguage()
	desc.Info.Stars = repo.GetStargazersCount()
	desc.Info.URL = repo.GetHTMLURL()
	if desc.DefaultBranch == "" {
		desc.DefaultBranch = "main"
	}
	return desc, nil
}

func (f *GitHubFetcher) Head(ctx context.Context, owner, name, branch string) (*HeadInfo, error) {
	commit, _, err := f.client.Repositories.GetCommit(ctx, owner, name, branch, nil)
	if err != nil {
		return nil, fmt.Errorf("github head commit lookup: %w", err)
	}
	return &HeadInfo{
		SHA:     commit.GetSHA(),
		Branch:  branch,
		Author:  commit.GetCommit().GetAuthor().GetName(),
		Message: commit.GetCommit().GetMessage(),
	}, nil
}

// Fetch walks the recursive git tree of branch and downloads each code
// blob. Individual blob failures are logged and skipped so one bad
// file cannot abort the snapshot.
func (f *GitHubFetcher) Fetch(ctx context.Context, owner, name, branch string, visit func(File) error) error {
	tree, _, err := f.client.Git.GetTree(ctx, owner, name, branch, true)
	if err != nil {
		return fmt.Errorf("github tree lookup: %w", err)
	}
	if tree.GetTruncated() {
		f.log.Warn().Str("repo", owner+"/"+name).Msg("github tree truncated, large repository partially ingested")
	}

	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if !IsCodeFile(path) || IsExcludedPath(path) {
			continue
		}
		content, _, err := f.client.Git.GetBlobRaw(ctx, owner, name, entry.GetSHA())
		if err != nil {
			f.log.Warn().Str("file", path).Err(err).Msg("could not fetch blob")
			continue
		}
		if err := visit(File{Path: path, Content: content, SHA: entry.GetSHA()}); err != nil {
			return err
		}
	}
	return nil
}
