// Package worker implements the HTTP worker that executes shard counting
// tasks for a remote training run. A worker owns no corpus of its own: it
// counts whatever shards the orchestrator sends it, against the vocabulary
// published for the current run, and returns the partial table in the
// response body.
package worker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jdelmas/chainfreq/pkg/ngram"
)

// API holds the dependencies for the worker HTTP handlers.
type API struct {
	mu     sync.RWMutex
	vocab  *ngram.Vocabulary
	enc    *ngram.Encoder
	logger *slog.Logger
}

// NewAPI creates a worker API using the given tokenization rule. Workers must
// be configured with the same tokenizer as the orchestrator, or the encoded
// sequences will not line up with the published vocabulary.
func NewAPI(tokenizer ngram.Tokenizer, logger *slog.Logger) *API {
	return &API{
		enc:    ngram.NewEncoder(tokenizer),
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all worker endpoints.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/vocabulary", a.handleVocabulary)
	mux.HandleFunc("/api/train", a.handleTrain)
	mux.HandleFunc("/api/health", a.handleHealth)
}

// handleVocabulary handles PUT for publishing the run vocabulary and DELETE
// for releasing it once the run is over.
func (a *API) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		vocab, err := ngram.ImportVocabulary(r.Body)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid vocabulary payload: %v", err))
			return
		}
		a.mu.Lock()
		a.vocab = vocab
		a.mu.Unlock()
		a.logger.Info("Vocabulary published", slog.Int("tokens", vocab.Len()))
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		a.mu.Lock()
		a.vocab = nil
		a.mu.Unlock()
		a.logger.Info("Vocabulary released")
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleTrain counts one shard at the requested order and responds with the
// serialized partial table.
func (a *API) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ngram.TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Order < 1 {
		respondWithError(w, http.StatusBadRequest, "A positive order is required")
		return
	}

	a.mu.RLock()
	vocab := a.vocab
	a.mu.RUnlock()
	if vocab == nil {
		respondWithError(w, http.StatusConflict, "No vocabulary published for this run")
		return
	}

	table, err := ngram.TrainShard(a.enc, vocab, ngram.Shard(req.Documents), req.Order)
	if err != nil {
		a.logger.Error("Shard training failed", "order", req.Order, "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Training failed: %v", err))
		return
	}

	a.logger.Info("Shard trained",
		slog.Int("order", req.Order),
		slog.Int("documents", len(req.Documents)),
		slog.Int("contexts", len(table.Counts)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := table.Export(w); err != nil {
		a.logger.Error("Failed to write partial table response", "error", err)
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		err := json.NewEncoder(w).Encode(payload)
		if err != nil {
			fmt.Printf("ERROR: Failed to encode JSON response: %v\n", err)
		}
	}
}
