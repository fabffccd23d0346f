package ngram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// TrainRequest is the body of a worker train call: one shard of raw documents
// plus the order to count it at. The worker encodes the documents against the
// vocabulary published for the run and responds with the serialized partial.
type TrainRequest struct {
	Order     int      `json:"order"`
	Documents []string `json:"documents"`
}

// RemoteExecutor dispatches shards to a fleet of workers over HTTP. The
// vocabulary is broadcast once to every worker before the first dispatch, and
// each returned partial is staged locally for the merge reduction, so the
// reducer never needs to know where a partial was produced.
type RemoteExecutor struct {
	staging *Staging
	workers []string
	client  *http.Client
}

// NewRemoteExecutor creates an executor dispatching to the given worker base
// URLs. At least one worker address is required.
func NewRemoteExecutor(staging *Staging, workers []string) (*RemoteExecutor, error) {
	if len(workers) == 0 {
		return nil, fmt.Errorf("distributed execution requires at least one worker address")
	}
	return &RemoteExecutor{
		staging: staging,
		workers: workers,
		client:  &http.Client{},
	}, nil
}

// Publish broadcasts the vocabulary to every worker. A worker that rejects
// the broadcast fails the run before any shard is dispatched.
func (e *RemoteExecutor) Publish(ctx context.Context, vocab *Vocabulary) error {
	var buf bytes.Buffer
	if err := vocab.Export(&buf); err != nil {
		return err
	}
	for _, worker := range e.workers {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, worker+"/api/vocabulary", bytes.NewReader(buf.Bytes()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			return fmt.Errorf("could not publish vocabulary to %s: %w", worker, err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("worker %s rejected vocabulary: %s", worker, resp.Status)
		}
	}
	return nil
}

// Train dispatches one train call per shard, round-robin across the fleet,
// with as many calls in flight as there are workers. Returned partials are
// staged locally; the first failure cancels the outstanding calls of the
// order.
func (e *RemoteExecutor) Train(ctx context.Context, shards []Shard, order int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(len(e.workers))
	for i, shard := range shards {
		worker := e.workers[i%len(e.workers)]
		g.Go(func() error {
			table, err := e.trainOn(ctx, worker, shard, order)
			if err != nil {
				return err
			}
			_, err = e.staging.Put(table)
			return err
		})
	}
	return g.Wait()
}

func (e *RemoteExecutor) trainOn(ctx context.Context, worker string, shard Shard, order int) (*Table, error) {
	body, err := json.Marshal(TrainRequest{Order: order, Documents: shard})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, worker+"/api/train", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("train call to %s failed: %w", worker, err)
	}
	defer func(body io.ReadCloser) {
		_, _ = io.Copy(io.Discard, body)
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("worker %s returned %s: %s", worker, resp.Status, bytes.TrimSpace(msg))
	}

	table, err := ImportTable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("worker %s returned a corrupt partial: %w", worker, err)
	}
	if table.Order != order {
		return nil, fmt.Errorf("worker %s returned order %d for an order %d task: %w", worker, table.Order, order, ErrOrderMismatch)
	}
	return table, nil
}

// Release tells every worker to drop the broadcast vocabulary. All workers
// are contacted even if one fails; the first error is returned.
func (e *RemoteExecutor) Release(ctx context.Context) error {
	var firstErr error
	for _, worker := range e.workers {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, worker+"/api/vocabulary", nil)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resp, err := e.client.Do(req)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("could not release vocabulary on %s: %w", worker, err)
			}
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent && firstErr == nil {
			firstErr = fmt.Errorf("worker %s failed to release vocabulary: %s", worker, resp.Status)
		}
	}
	return firstErr
}
