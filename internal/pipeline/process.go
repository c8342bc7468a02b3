package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chainlist/internal"
	"chainlist/internal/config"
	"chainlist/internal/logging"
	"chainlist/internal/storage"
)

type ProcessingService struct {
	db         *storage.DB
	cfg        config.Config
	aggregator *Aggregator
	logger     *zap.Logger
}

// NewProcessingService wires the pipeline to its sinks. db may be nil, in
// which case runs are not recorded.
func NewProcessingService(db *storage.DB, cfg config.Config, logger *zap.Logger) *ProcessingService {
	logger = logging.OrNop(logger)
	return &ProcessingService{
		db:         db,
		cfg:        cfg,
		aggregator: NewAggregator(WithConcurrency(cfg.ParseConcurrency), WithLogger(logger)),
		logger:     logger,
	}
}

type RunResult struct {
	RunID      int64
	TraceID    string
	Entries    []internal.ChainEntry
	OutputPath string
	Duration   time.Duration
}

// Run extracts every descriptor in dir and writes the formatted lines to the
// configured result path. Nothing is written when extraction fails.
func (s *ProcessingService) Run(ctx context.Context, dir, revision string) (RunResult, error) {
	start := time.Now()
	order, err := ParseSortOrder(s.cfg.SortOrder)
	if err != nil {
		return RunResult{}, err
	}

	entries, err := s.aggregator.Collect(ctx, dir)
	if err != nil {
		return RunResult{}, fmt.Errorf("extract chains from %s: %w", dir, err)
	}
	entries = SortEntries(entries, order)

	if err := WriteLines(s.cfg.ResultPath, FormatLines(entries)); err != nil {
		return RunResult{}, fmt.Errorf("write %s: %w", s.cfg.ResultPath, err)
	}

	result := RunResult{
		TraceID:    uuid.NewString(),
		Entries:    entries,
		OutputPath: s.cfg.ResultPath,
		Duration:   time.Since(start),
	}

	if s.db != nil {
		runID, err := s.db.InsertRun(internal.RunRecord{
			TraceID:    result.TraceID,
			SourceDir:  dir,
			Revision:   revision,
			DurationMs: result.Duration.Milliseconds(),
		}, entries)
		if err != nil {
			return RunResult{}, fmt.Errorf("record run: %w", err)
		}
		result.RunID = runID
	}

	s.logger.Info("chains extracted",
		zap.String("trace_id", result.TraceID),
		zap.Int64("run_id", result.RunID),
		zap.Int("entries", len(entries)),
		zap.String("output", result.OutputPath),
		zap.Duration("elapsed", result.Duration))
	return result, nil
}

// Lookup aggregates dir and returns the entries matching query.
func (s *ProcessingService) Lookup(ctx context.Context, dir, query string) ([]internal.ChainEntry, error) {
	entries, err := s.aggregator.Collect(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("extract chains from %s: %w", dir, err)
	}
	return BuildIndex(entries).Lookup(query), nil
}
