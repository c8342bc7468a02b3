package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"chainlist/internal/config"
	"chainlist/internal/logging"
)

// GitFetcher shallow-clones the chains repository.
type GitFetcher struct {
	url    string
	ref    string
	auth   transport.AuthMethod
	logger *zap.Logger
}

func NewGitFetcher(cfg config.Config, logger *zap.Logger) *GitFetcher {
	return &GitFetcher{
		url:    repoURL(cfg.GitHubBaseURL, cfg.ChainsRepo),
		ref:    cfg.ChainsRef,
		auth:   gitAuth(cfg.GitHubToken),
		logger: logging.OrNop(logger),
	}
}

func (f *GitFetcher) Fetch(ctx context.Context, dest string) (Result, error) {
	scratch, err := stagingDir(dest)
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(scratch)

	clonePath := filepath.Join(scratch, "repo")
	opts := &git.CloneOptions{
		URL:          f.url,
		Auth:         f.auth,
		SingleBranch: true,
		Depth:        1,
		Tags:         git.NoTags,
	}
	if f.ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(f.ref)
	}

	f.logger.Info("cloning chains repository", zap.String("url", f.url), zap.String("ref", f.ref))
	repo, err := git.PlainCloneContext(ctx, clonePath, false, opts)
	if err != nil {
		return Result{}, fmt.Errorf("clone %s: %w", f.url, err)
	}

	head, err := repo.Head()
	if err != nil {
		return Result{}, fmt.Errorf("failed to get HEAD: %w", err)
	}

	if err := swapInto(clonePath, dest); err != nil {
		return Result{}, err
	}
	return Result{Mode: config.FetchModeGit, Revision: head.Hash().String(), Path: dest}, nil
}

func repoURL(baseURL, repo string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.Trim(repo, "/") + ".git"
}

func gitAuth(token string) transport.AuthMethod {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: token,
	}
}
