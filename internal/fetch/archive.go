package fetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"chainlist/internal/config"
	"chainlist/internal/logging"
)

// ArchiveClient downloads the repository as a gzipped tarball.
type ArchiveClient struct {
	baseURL     string
	repo        string
	ref         string
	maxAttempts int
	httpClient  *http.Client
	limiter     *RateLimiter
	logger      *zap.Logger
}

// StatusError is a non-2xx answer from the archive endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("archive download failed: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *StatusError) Retryable() bool {
	return isRetryableStatus(e.StatusCode)
}

func NewArchiveClient(cfg config.Config, logger *zap.Logger) *ArchiveClient {
	base := &http.Client{Timeout: time.Duration(cfg.FetchTimeoutMs) * time.Millisecond}
	maxAttempts := cfg.FetchMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &ArchiveClient{
		baseURL:     cfg.GitHubArchiveBaseURL,
		repo:        cfg.ChainsRepo,
		ref:         cfg.ChainsRef,
		maxAttempts: maxAttempts,
		httpClient:  newHTTPClient(base, cfg.GitHubToken),
		limiter:     NewRateLimiter(cfg.FetchRateLimitRPS),
		logger:      logging.OrNop(logger),
	}
}

// newHTTPClient adds bearer authentication on top of base when a token is set.
func newHTTPClient(base *http.Client, token string) *http.Client {
	if strings.TrimSpace(token) == "" {
		return base
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	client.Timeout = base.Timeout
	return client
}

func (c *ArchiveClient) Fetch(ctx context.Context, dest string) (Result, error) {
	blob, etag, err := c.download(ctx)
	if err != nil {
		return Result{}, err
	}

	scratch, err := stagingDir(dest)
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(scratch)

	treePath := filepath.Join(scratch, "repo")
	files, err := extractTarGz(blob, treePath)
	if err != nil {
		return Result{}, fmt.Errorf("extract archive: %w", err)
	}
	if err := swapInto(treePath, dest); err != nil {
		return Result{}, err
	}

	revision := strings.Trim(strings.TrimPrefix(etag, "W/"), `"`)
	if revision == "" {
		revision = c.ref
	}
	c.logger.Info("chains archive extracted", zap.Int("files", files), zap.String("revision", revision))
	return Result{Mode: config.FetchModeArchive, Revision: revision, Path: dest}, nil
}

func (c *ArchiveClient) archiveURL() (string, error) {
	return url.JoinPath(c.baseURL, strings.Trim(c.repo, "/"), "tar.gz", c.ref)
}

func (c *ArchiveClient) download(ctx context.Context) ([]byte, string, error) {
	u, err := c.archiveURL()
	if err != nil {
		return nil, "", err
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return nil, "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("Accept", "application/x-gzip")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			lastErr = err
			c.logger.Warn("archive request failed", zap.Int("attempt", attempt), zap.Error(err))
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, "", err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
			if statusErr.Retryable() && attempt < c.maxAttempts {
				lastErr = statusErr
				c.logger.Warn("archive status retryable", zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
				if err := c.backoff(ctx, attempt); err != nil {
					return nil, "", err
				}
				continue
			}
			return nil, "", statusErr
		}

		return body, resp.Header.Get("ETag"), nil
	}

	if lastErr == nil {
		lastErr = errors.New("archive request failed")
	}
	return nil, "", lastErr
}

func (c *ArchiveClient) backoff(ctx context.Context, attempt int) error {
	if attempt >= c.maxAttempts {
		return nil
	}
	d := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
	return sleepCtx(ctx, d)
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// extractTarGz unpacks blob into dest, dropping the archive's top-level
// directory. It returns the number of regular files written.
func extractTarGz(blob []byte, dest string) (int, error) {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return 0, err
	}
	defer gz.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, err
	}

	files := 0
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, err
		}

		rel := stripTopDir(hdr.Name)
		if rel == "" {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return files, fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return files, err
			}
			files++
		}
	}
}

func stripTopDir(name string) string {
	_, rest, found := strings.Cut(strings.TrimLeft(name, "/"), "/")
	if !found {
		return ""
	}
	return strings.TrimSuffix(rest, "/")
}

func writeFile(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
