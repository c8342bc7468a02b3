package fetch

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"chainlist/internal/config"
	"chainlist/internal/logging"
	"chainlist/internal/storage"
)

const (
	metaLastSync = "fetch.last_sync"
	metaRevision = "fetch.revision"
	metaMode     = "fetch.mode"
)

type SyncService struct {
	db      *storage.DB
	fetcher Fetcher
	cfg     config.Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewSyncService tracks freshness in db. A nil db disables the staleness
// check so every Sync fetches.
func NewSyncService(db *storage.DB, fetcher Fetcher, cfg config.Config, logger *zap.Logger) *SyncService {
	return &SyncService{db: db, fetcher: fetcher, cfg: cfg, logger: logging.OrNop(logger), now: time.Now}
}

type SyncResult struct {
	Result
	Skipped bool
}

// Sync refreshes the local checkout unless the previous sync is younger than
// FETCH_STALE_HOURS and the descriptor directory is still present.
func (s *SyncService) Sync(ctx context.Context, force bool) (SyncResult, error) {
	if !force {
		if res, fresh, err := s.fresh(); err != nil {
			return SyncResult{}, err
		} else if fresh {
			s.logger.Info("chains checkout is fresh, skipping fetch", zap.String("revision", res.Revision))
			return SyncResult{Result: res, Skipped: true}, nil
		}
	}

	res, err := s.fetcher.Fetch(ctx, s.cfg.ChainsLocalPath)
	if err != nil {
		return SyncResult{}, err
	}
	if s.db != nil {
		if err := s.db.SetMetadata(metaLastSync, s.now().UTC().Format(time.RFC3339)); err != nil {
			return SyncResult{}, err
		}
		_ = s.db.SetMetadata(metaRevision, res.Revision)
		_ = s.db.SetMetadata(metaMode, res.Mode)
	}
	s.logger.Info("chains fetched", zap.String("mode", res.Mode), zap.String("revision", res.Revision), zap.String("path", res.Path))
	return SyncResult{Result: res}, nil
}

func (s *SyncService) fresh() (Result, bool, error) {
	if s.db == nil || s.cfg.FetchStaleHours <= 0 {
		return Result{}, false, nil
	}
	if info, err := os.Stat(s.cfg.DataDir()); err != nil || !info.IsDir() {
		return Result{}, false, nil
	}

	last, err := s.db.GetMetadata(metaLastSync)
	if err != nil || last == nil {
		return Result{}, false, err
	}
	parsed, err := time.Parse(time.RFC3339, *last)
	if err != nil {
		return Result{}, false, nil
	}
	if s.now().Sub(parsed) >= time.Duration(s.cfg.FetchStaleHours)*time.Hour {
		return Result{}, false, nil
	}

	res := Result{Path: s.cfg.ChainsLocalPath}
	if v, err := s.db.GetMetadata(metaRevision); err == nil && v != nil {
		res.Revision = *v
	}
	if v, err := s.db.GetMetadata(metaMode); err == nil && v != nil {
		res.Mode = *v
	}
	return res, true, nil
}

// Revision returns the revision recorded by the last successful sync.
func (s *SyncService) Revision() string {
	if s.db == nil {
		return ""
	}
	v, err := s.db.GetMetadata(metaRevision)
	if err != nil || v == nil {
		return ""
	}
	return *v
}
