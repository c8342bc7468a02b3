// Package fetch populates the local descriptor directory from the upstream
// chains repository, either by git clone or by downloading a tarball.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"chainlist/internal/config"
)

type Result struct {
	Mode     string
	Revision string
	Path     string
}

type Fetcher interface {
	// Fetch replaces dest with a fresh copy of the upstream repository.
	Fetch(ctx context.Context, dest string) (Result, error)
}

func NewFetcher(cfg config.Config, logger *zap.Logger) (Fetcher, error) {
	switch cfg.FetchMode {
	case config.FetchModeGit:
		return NewGitFetcher(cfg, logger), nil
	case config.FetchModeArchive:
		return NewArchiveClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported fetch mode: %s", cfg.FetchMode)
	}
}

// stagingDir creates an empty scratch directory next to dest so the final
// rename stays on one filesystem.
func stagingDir(dest string) (string, error) {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", err
	}
	return os.MkdirTemp(parent, "."+filepath.Base(dest)+"-*")
}

// swapInto moves src over dest, discarding whatever dest held before.
func swapInto(src, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	return os.Rename(src, dest)
}
