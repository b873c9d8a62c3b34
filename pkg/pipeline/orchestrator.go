// Package pipeline drives the full catalog x timeframe fetch matrix through
// the resolver on a bounded worker pool and persists results to the cache.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"sigflow/pkg/cache"
	"sigflow/pkg/catalog"
	"sigflow/pkg/market"
)

// ErrRunFailed marks a run in which not a single task succeeded. The caller
// treats it as fatal; partial failure is reported but non-fatal.
var ErrRunFailed = errors.New("pipeline: run produced zero successful fetches")

// Config bounds the pipeline's pressure on external providers.
type Config struct {
	// Workers caps concurrent fetches. The pool is fixed, not elastic.
	Workers int
	// Attempts is the per-task try budget, including the first try.
	Attempts int
	// RetryDelay is the fixed pause between attempts of one task.
	RetryDelay time.Duration
	// BatchPause is the pacing delay between category batches.
	BatchPause time.Duration
	// ErrorSampleLimit caps the error strings kept in the run summary.
	ErrorSampleLimit int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 16
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.BatchPause < 0 {
		c.BatchPause = 0
	}
	if c.ErrorSampleLimit <= 0 {
		c.ErrorSampleLimit = 25
	}
	return c
}

// Resolver is the per-task fetch boundary the orchestrator drives.
type Resolver interface {
	Resolve(ctx context.Context, inst catalog.Instrument, tf catalog.Timeframe) (market.Series, error)
}

// Orchestrator owns one pipeline run at a time.
type Orchestrator struct {
	resolver Resolver
	store    *cache.Store
	cfg      Config
}

// NewOrchestrator wires the orchestrator. Zero config fields fall back to
// defaults.
func NewOrchestrator(resolver Resolver, store *cache.Store, cfg Config) *Orchestrator {
	return &Orchestrator{resolver: resolver, store: store, cfg: cfg.withDefaults()}
}

type task struct {
	inst catalog.Instrument
	tf   catalog.Timeframe
}

type taskResult struct {
	task task
	err  error
}

// Run executes the full matrix: every instrument of every category, for every
// timeframe, one category batch at a time. The summary is persisted next to
// the cache before Run returns, also on the zero-success fatal path.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	return o.RunMatrix(ctx, catalog.Categories(), catalog.Timeframes(), catalog.Instruments)
}

// RunMatrix is Run with an explicit matrix, which also serves tests.
func (o *Orchestrator) RunMatrix(
	ctx context.Context,
	categories []catalog.Category,
	timeframes []catalog.Timeframe,
	instruments func(catalog.Category) []catalog.Instrument,
) (*RunSummary, error) {
	summary := &RunSummary{StartedAt: time.Now().UTC()}

	for i, cat := range categories {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && o.cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.cfg.BatchPause):
			}
		}

		batch := make([]task, 0)
		for _, inst := range instruments(cat) {
			for _, tf := range timeframes {
				batch = append(batch, task{inst: inst, tf: tf})
			}
		}
		if len(batch) == 0 {
			continue
		}

		logx.Infof("pipeline: category %s: %d tasks", cat, len(batch))
		o.runBatch(ctx, batch, summary)
	}

	summary.Duration = time.Since(summary.StartedAt)

	if err := WriteReport(o.store.Dir(), summary); err != nil {
		logx.Errorf("pipeline: persist run report: %v", err)
	}

	if summary.Total() > 0 && summary.Succeeded == 0 {
		return summary, ErrRunFailed
	}
	return summary, nil
}

// runBatch pushes one category's tasks through the worker pool. Results flow
// back over a channel and are folded into the summary by this goroutine
// alone, so counters need no locking.
func (o *Orchestrator) runBatch(ctx context.Context, batch []task, summary *RunSummary) {
	jobs := make(chan task)
	results := make(chan taskResult)

	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				results <- taskResult{task: t, err: o.runTask(ctx, t)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range batch {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			summary.recordFailure(res.task.inst.Symbol, res.task.tf.Name, res.err, o.cfg.ErrorSampleLimit)
			logx.Errorf("pipeline: %s %s: %v", res.task.inst.Symbol, res.task.tf.Name, res.err)
			continue
		}
		summary.Succeeded++
	}
}

// runTask resolves and caches a single (instrument, timeframe) pair with the
// configured retry budget. Retries for one task are strictly sequential.
func (o *Orchestrator) runTask(ctx context.Context, t task) error {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.Attempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("pipeline: canceled: %w", ctx.Err())
		}

		series, err := o.resolver.Resolve(ctx, t.inst, t.tf)
		if err == nil {
			if err := o.store.Write(t.inst.Symbol, t.tf.Name, series); err != nil {
				return err
			}
			return nil
		}
		lastErr = err

		if attempt < o.cfg.Attempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("pipeline: canceled: %w", ctx.Err())
			case <-time.After(o.cfg.RetryDelay):
			}
		}
	}
	return lastErr
}
