package ngram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// modelExt is the extension of persisted final model files.
const modelExt = ".ngram"

// Trainer drives the per-order training loop: shard the corpus, dispatch
// counting tasks through the configured Executor, tree-reduce the staged
// partials, persist the final model, clean up, advance to the next order.
type Trainer struct {
	name      string
	exec      Executor
	staging   *Staging
	outDir    string
	shardSize int
	logger    *slog.Logger
}

// NewTrainer creates a Trainer for the named project. Final models are
// persisted under outDir; shardSize is the number of documents per shard
// (values below 1 are treated as 1, one shard per document).
func NewTrainer(name string, exec Executor, staging *Staging, outDir string, shardSize int) *Trainer {
	if shardSize < 1 {
		shardSize = 1
	}
	return &Trainer{
		name:      name,
		exec:      exec,
		staging:   staging,
		outDir:    outDir,
		shardSize: shardSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Trainer. By default, all logs are
// discarded.
func (t *Trainer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		t.logger = logger
	}
}

// ModelPath returns the final artifact location for one order.
func (t *Trainer) ModelPath(order int) string {
	return filepath.Join(t.outDir, t.name, strconv.Itoa(order), fmt.Sprintf("model_%d%s", order, modelExt))
}

// Run trains one final model per order in [minOrder, maxOrder]. The
// vocabulary is published to the executor once, before the first dispatch,
// and released when the run ends on any path. A failure aborts the current
// order and returns after clearing its staging artifacts; final models
// already written for prior orders are left untouched.
func (t *Trainer) Run(ctx context.Context, vocab *Vocabulary, docs []string, minOrder, maxOrder int) error {
	if minOrder < 1 || maxOrder < minOrder {
		return fmt.Errorf("invalid order range [%d,%d]", minOrder, maxOrder)
	}

	if err := t.exec.Publish(ctx, vocab); err != nil {
		return fmt.Errorf("vocabulary publish failed: %w", err)
	}
	defer func() {
		// Release must run even when the run context was cancelled.
		if err := t.exec.Release(context.WithoutCancel(ctx)); err != nil {
			t.logger.Error("Failed to release executor resources", "error", err)
		}
	}()

	start := time.Now()
	for order := minOrder; order <= maxOrder; order++ {
		if err := t.trainOrder(ctx, docs, order); err != nil {
			return fmt.Errorf("order %d: %w", order, err)
		}
	}

	t.logger.Info("Training run completed",
		slog.String("project", t.name),
		slog.Int("min_order", minOrder),
		slog.Int("max_order", maxOrder),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (t *Trainer) trainOrder(ctx context.Context, docs []string, order int) (err error) {
	// Stale partials from a previous crashed run must not leak into this
	// order's reduction.
	if err := t.staging.Clear(); err != nil {
		return fmt.Errorf("staging cleanup failed: %w", err)
	}
	defer func() {
		// Staging is cleared again on every exit, success or abort, so it is
		// guaranteed empty before the next order begins.
		if cerr := t.staging.Clear(); cerr != nil && err == nil {
			err = fmt.Errorf("staging cleanup failed: %w", cerr)
		}
	}()

	shards := ShardCorpus(docs, t.shardSize)
	t.logger.Info("Training started",
		slog.Int("order", order),
		slog.Int("documents", len(docs)),
		slog.Int("shards", len(shards)),
	)

	trainStart := time.Now()
	if err := t.exec.Train(ctx, shards, order); err != nil {
		return fmt.Errorf("shard training failed: %w", err)
	}
	t.logger.Info("Training finished",
		slog.Int("order", order),
		slog.Duration("elapsed", time.Since(trainStart)),
	)

	mergeStart := time.Now()
	final, err := Reduce(ctx, t.staging, order)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	t.logger.Info("Merge finished",
		slog.Int("order", order),
		slog.Int("contexts", len(final.Counts)),
		slog.Int("observations", final.Observations()),
		slog.Duration("elapsed", time.Since(mergeStart)),
	)

	path := t.ModelPath(order)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create model directory: %w", err)
	}
	if err := clearModels(filepath.Dir(path)); err != nil {
		return err
	}
	if err := final.Save(path); err != nil {
		return fmt.Errorf("model persistence failed: %w", err)
	}
	t.logger.Info("Model saved", slog.Int("order", order), slog.String("path", path))

	// Corpora and tables can be large relative to memory; drop the final
	// table before the next order starts rather than holding every order's
	// model at once.
	final.Counts = nil
	return nil
}

// clearModels removes any pre-existing final model artifacts in dir before a
// fresh one is written.
func clearModels(dir string) error {
	stale, err := filepath.Glob(filepath.Join(dir, "*"+modelExt))
	if err != nil {
		return fmt.Errorf("could not list model directory %s: %w", dir, err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("could not remove stale model %s: %w", path, err)
		}
	}
	return nil
}
