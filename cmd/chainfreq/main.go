package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jdelmas/chainfreq/pkg/corpus"
	"github.com/jdelmas/chainfreq/pkg/ngram"
)

func main() {
	configPath := flag.String("config", "./config.json", "Path to the configuration file")
	flag.Parse()

	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	config, err := loadConfig(*configPath)
	if err != nil {
		baseLogger.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := config.validate(); err != nil {
		baseLogger.Error("Invalid configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	switch strings.ToLower(config.LogLevel) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger); err != nil {
		logger.Error("Training run failed", "project", config.Name, "error", err)
		os.Exit(1)
	}
	logger.Info("Done.", "project", config.Name)
}

func run(ctx context.Context, config *Config, logger *slog.Logger) error {
	docs, err := loadCorpus(config.Corpus)
	if err != nil {
		return fmt.Errorf("corpus load failed: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("corpus source %q at %s yielded no documents", config.Corpus.Type, config.Corpus.Path)
	}
	logger.Info("Corpus loaded", "documents", len(docs), "type", config.Corpus.Type)

	for i, doc := range docs {
		docs[i] = corpus.Normalize(doc)
	}

	enc := ngram.NewEncoder(ngram.NewDefaultTokenizer())

	vocabDir := filepath.Join(config.DataDir, "vocabs")
	if err := os.MkdirAll(vocabDir, 0755); err != nil {
		return fmt.Errorf("could not create vocabulary directory: %w", err)
	}
	vocabPath := filepath.Join(vocabDir, config.Name+".vocab")
	vocab, built, err := enc.LoadOrBuildVocabulary(vocabPath, docs)
	if err != nil {
		return fmt.Errorf("vocabulary setup failed: %w", err)
	}
	if built {
		logger.Info("Vocabulary created", "path", vocabPath, "tokens", vocab.Len())
	} else {
		logger.Info("Vocabulary loaded", "path", vocabPath, "tokens", vocab.Len())
	}

	staging, err := ngram.NewStaging(filepath.Join(config.DataDir, "temp"))
	if err != nil {
		return err
	}

	exec, err := buildExecutor(config.Training, enc, staging, logger)
	if err != nil {
		return err
	}

	shardSize := config.Training.ShardSize
	if config.Training.Mode == "sequential" {
		// Sequential runs gain nothing from fine shards: the whole corpus is
		// one shard, one partial, one trivial reduction.
		shardSize = len(docs)
	}

	trainer := ngram.NewTrainer(config.Name, exec, staging, filepath.Join(config.DataDir, "ngram"), shardSize)
	trainer.SetLogger(logger)

	return trainer.Run(ctx, vocab, docs, config.Training.OrderMin, config.Training.OrderMax)
}

func loadCorpus(config *CorpusConfig) ([]string, error) {
	switch config.Type {
	case "files":
		return corpus.LoadFiles(config.Path, config.FileExt)
	case "csv":
		var comma rune
		if config.CSVComma != "" {
			comma = []rune(config.CSVComma)[0]
		}
		return corpus.LoadCSV(config.Path, config.CSVColumn, comma)
	case "sqlite":
		return corpus.LoadSQLite(config.Path, config.Query)
	default:
		return nil, fmt.Errorf("unknown corpus type %q", config.Type)
	}
}

func buildExecutor(config *TrainingConfig, enc *ngram.Encoder, staging *ngram.Staging, logger *slog.Logger) (ngram.Executor, error) {
	switch config.Mode {
	case "sequential":
		logger.Info("Execution mode: sequential")
		return ngram.NewSequentialExecutor(enc, staging), nil
	case "parallel":
		exec := ngram.NewPoolExecutor(enc, staging, config.Workers)
		logger.Info("Execution mode: local worker pool", "workers", exec.Workers())
		return exec, nil
	case "distributed":
		logger.Info("Execution mode: distributed", "workers", len(config.WorkerAddrs))
		return ngram.NewRemoteExecutor(staging, config.WorkerAddrs)
	default:
		return nil, fmt.Errorf("unknown execution mode %q", config.Mode)
	}
}
