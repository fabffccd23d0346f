package ngram

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// A Shard is an independently countable subset of the corpus: raw documents,
// encoded by whichever worker executes the shard against the published
// vocabulary.
type Shard []string

// ShardCorpus partitions docs into shards of at most size documents each.
// A size below 1 is treated as 1. ShardCorpus never copies document data;
// shards alias the underlying corpus slice.
func ShardCorpus(docs []string, size int) []Shard {
	if size < 1 {
		size = 1
	}
	shards := make([]Shard, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		shards = append(shards, Shard(docs[start:end]))
	}
	return shards
}

// Executor dispatches per-shard counting tasks. The contract is deliberately
// small: publish the vocabulary once, stage one partial per shard, release
// what was published. A sequential loop, a bounded goroutine pool and a
// remote worker fleet all satisfy it equally.
type Executor interface {
	// Publish makes the read-only vocabulary available to every worker. It is
	// called exactly once per run, before the first shard dispatch.
	Publish(ctx context.Context, vocab *Vocabulary) error
	// Train runs one counting task per shard for the given order, staging one
	// partial per task, and returns once all tasks finished or any one
	// failed. A failure cancels the outstanding tasks of the order.
	Train(ctx context.Context, shards []Shard, order int) error
	// Release frees the published vocabulary and any other per-run resources.
	Release(ctx context.Context) error
}

// TrainShard is the pure per-shard unit of work: every document of the shard
// is encoded against vocab and folded into a fresh order-n table. It shares
// no mutable state with any sibling invocation, which is what makes
// concurrent and distributed execution safe.
func TrainShard(enc *Encoder, vocab *Vocabulary, shard Shard, order int) (*Table, error) {
	table := NewTable(order)
	for _, doc := range shard {
		sequence, err := enc.Encode(doc, vocab)
		if err != nil {
			return nil, err
		}
		table.Train(sequence)
	}
	return table, nil
}

// SequentialExecutor trains every shard in the calling goroutine, one after
// the other.
type SequentialExecutor struct {
	enc     *Encoder
	staging *Staging
	vocab   *Vocabulary
}

// NewSequentialExecutor creates an executor that runs shard tasks in-process
// without concurrency.
func NewSequentialExecutor(enc *Encoder, staging *Staging) *SequentialExecutor {
	return &SequentialExecutor{enc: enc, staging: staging}
}

// Publish retains the vocabulary for the run.
func (e *SequentialExecutor) Publish(_ context.Context, vocab *Vocabulary) error {
	e.vocab = vocab
	return nil
}

// Train counts and stages each shard in order.
func (e *SequentialExecutor) Train(ctx context.Context, shards []Shard, order int) error {
	for _, shard := range shards {
		if err := ctx.Err(); err != nil {
			return err
		}
		table, err := TrainShard(e.enc, e.vocab, shard, order)
		if err != nil {
			return err
		}
		if _, err := e.staging.Put(table); err != nil {
			return err
		}
	}
	return nil
}

// Release drops the vocabulary reference.
func (e *SequentialExecutor) Release(context.Context) error {
	e.vocab = nil
	return nil
}

// PoolExecutor trains shards on a bounded local worker pool. The first task
// failure cancels the remaining tasks of the order.
type PoolExecutor struct {
	enc     *Encoder
	staging *Staging
	workers int
	vocab   *Vocabulary
}

// NewPoolExecutor creates an executor running at most workers shard tasks
// concurrently. A workers value below 1 sizes the pool to the available CPUs.
func NewPoolExecutor(enc *Encoder, staging *Staging, workers int) *PoolExecutor {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &PoolExecutor{enc: enc, staging: staging, workers: workers}
}

// Workers returns the size of the worker pool.
func (e *PoolExecutor) Workers() int {
	return e.workers
}

// Publish retains the vocabulary for the run. The errgroup dispatch in Train
// provides the publication barrier: no task starts before Publish returned.
func (e *PoolExecutor) Publish(_ context.Context, vocab *Vocabulary) error {
	e.vocab = vocab
	return nil
}

// Train counts and stages the shards on the pool.
func (e *PoolExecutor) Train(ctx context.Context, shards []Shard, order int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, shard := range shards {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table, err := TrainShard(e.enc, e.vocab, shard, order)
			if err != nil {
				return err
			}
			_, err = e.staging.Put(table)
			return err
		})
	}
	return g.Wait()
}

// Release drops the vocabulary reference.
func (e *PoolExecutor) Release(context.Context) error {
	e.vocab = nil
	return nil
}
