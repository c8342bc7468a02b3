// Package refresh keeps result.txt current by re-fetching the chains
// repository and re-running extraction on an interval.
package refresh

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"chainlist/internal/config"
	"chainlist/internal/fetch"
	"chainlist/internal/logging"
	"chainlist/internal/pipeline"
	"chainlist/internal/storage"
)

type Service struct {
	db        *storage.DB
	cfg       config.Config
	sync      *fetch.SyncService
	processor *pipeline.ProcessingService
	logger    *zap.Logger
}

func NewService(db *storage.DB, cfg config.Config, fetcher fetch.Fetcher, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger).Named("refresh")
	return &Service{
		db:        db,
		cfg:       cfg,
		sync:      fetch.NewSyncService(db, fetcher, cfg, logger),
		processor: pipeline.NewProcessingService(db, cfg, logger),
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled. Cycle failures are logged and the
// loop carries on with the next tick.
func (s *Service) Run(ctx context.Context) error {
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("refresh cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval()):
		}
	}
}

type CycleResult struct {
	Revision   string
	Fetched    bool
	RunID      int64
	Entries    int
	ExportPath string
}

// RunCycle syncs the checkout, extracts and optionally exports one workbook.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	synced, err := s.sync.Sync(ctx, false)
	if err != nil {
		return CycleResult{}, fmt.Errorf("sync: %w", err)
	}

	run, err := s.processor.Run(ctx, s.cfg.DataDir(), synced.Revision)
	if err != nil {
		return CycleResult{}, err
	}

	res := CycleResult{
		Revision: synced.Revision,
		Fetched:  !synced.Skipped,
		RunID:    run.RunID,
		Entries:  len(run.Entries),
	}
	if s.cfg.RefreshAutoExport {
		res.ExportPath = s.exportPath(run)
		if err := pipeline.ExportEntriesToXLSX(run.Entries, res.ExportPath); err != nil {
			return CycleResult{}, fmt.Errorf("export: %w", err)
		}
	}

	s.logger.Info("refresh cycle done",
		zap.String("revision", res.Revision),
		zap.Bool("fetched", res.Fetched),
		zap.Int64("run_id", res.RunID),
		zap.Int("entries", res.Entries),
		zap.String("export", res.ExportPath))
	return res, nil
}

func (s *Service) exportPath(run pipeline.RunResult) string {
	name := fmt.Sprintf("chains-%d.xlsx", run.RunID)
	if run.RunID == 0 {
		name = fmt.Sprintf("chains-%s.xlsx", run.TraceID)
	}
	return filepath.Join(s.cfg.OutputDir, name)
}

func (s *Service) interval() time.Duration {
	if s.cfg.RefreshIntervalSec <= 0 {
		return time.Hour
	}
	return time.Duration(s.cfg.RefreshIntervalSec) * time.Second
}
