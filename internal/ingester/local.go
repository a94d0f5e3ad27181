package ingester

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog"

	"github.com/otto-pm/repoindex/pkg/types"
)

// LocalFetcher treats a directory on disk as a repository. The
// synthetic head SHA is a digest over every file's path and content
// hash, so an unchanged tree short-circuits reprocessing the same way
// an unchanged git branch does.
type LocalFetcher struct {
	root string
	log  zerolog.Logger
}

// NewLocalFetcher creates a fetcher rooted at dir.
func NewLocalFetcher(dir string, log zerolog.Logger) (*LocalFetcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("local repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local repository root %s is not a directory", dir)
	}
	return &LocalFetcher{root: dir, log: log}, nil
}

func (f *LocalFetcher) Describe(_ context.Context, _, name string) (*RepoDescription, error) {
	return &RepoDescription{
		DefaultBranch: "local",
		Info: types.RepoInfo{
			Description: "local directory " + f.root,
			URL:         "file://" + f.root,
		},
	}, nil
}

// Head hashes the tree state: sorted "path:sha" lines digested with
// SHA-256. Any file change, addition, or removal changes the result.
func (f *LocalFetcher) Head(ctx context.Context, _, _, branch string) (*HeadInfo, error) {
	var entries []string
	err := f.walk(ctx, func(path string, content []byte) error {
		entries = append(entries, path+":"+blobSHA(content))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	digest := sha256.Sum256([]byte(strings.Join(entries, "\n")))
	return &HeadInfo{
		SHA:     hex.EncodeToString(digest[:]),
		Branch:  branch,
		Author:  "local",
		Message: fmt.Sprintf("local snapshot of %d files", len(entries)),
	}, nil
}

func (f *LocalFetcher) Fetch(ctx context.Context, _, _, _ string, visit func(File) error) error {
	return f.walk(ctx, func(path string, content []byte) error {
		return visit(File{Path: path, Content: content, SHA: blobSHA(content)})
	})
}

func (f *LocalFetcher) walk(ctx context.Context, fn func(path string, content []byte) error) error {
	return godirwalk.Walk(f.root, &godirwalk.Options{
		Unsorted: false,
		Callback: func(osPath string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(f.root, osPath)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if de.IsDir() {
				if rel != "." && IsExcludedPath(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if !IsCodeFile(rel) || IsExcludedPath(rel) {
				return nil
			}
			content, err := os.ReadFile(osPath)
			if err != nil {
				f.log.Warn().Str("path", osPath).Err(err).Msg("failed to read file")
				return nil
			}
			return fn(rel, content)
		},
	})
}

// blobSHA matches git's blob object hash so local and GitHub snapshots
// of the same file agree.
func blobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
