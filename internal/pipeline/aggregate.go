package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chainlist/internal"
)

// Aggregator parses every descriptor of a directory concurrently and joins
// the results into one collection.
type Aggregator struct {
	concurrency int
	logger      *zap.Logger
}

type Option func(*Aggregator)

// WithConcurrency bounds in-flight descriptor reads. n <= 0 means unbounded.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) { a.concurrency = n }
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Collect returns one entry per file listed in dir, in listing order. The
// first read or parse failure cancels the outstanding work and is returned
// with a nil collection.
func (a *Aggregator) Collect(ctx context.Context, dir string) ([]internal.ChainEntry, error) {
	start := time.Now()
	names, err := ListDescriptors(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]internal.ChainEntry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := ParseDescriptor(dir, name)
			if err != nil {
				return err
			}
			entries[i] = NewEntry(d)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.Warn("descriptor batch failed",
			zap.String("dir", dir),
			zap.Int("files", len(names)),
			zap.Error(err))
		return nil, err
	}

	a.logger.Debug("descriptors collected",
		zap.String("dir", dir),
		zap.Int("entries", len(entries)),
		zap.Duration("elapsed", time.Since(start)))
	return entries, nil
}
