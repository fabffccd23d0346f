package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jdelmas/chainfreq/pkg/ngram"
	"github.com/jdelmas/chainfreq/pkg/worker"
)

func main() {
	addr := flag.String("addr", ":7781", "Address to listen on")
	logLevelFlag := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	var logLevel slog.Level
	switch strings.ToLower(*logLevelFlag) {
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

	api := worker.NewAPI(ngram.NewDefaultTokenizer(), logger)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan // Wait for a signal
		logger.Info("OS signal received, initiating shutdown.")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Worker shutdown failed", "error", err)
		}
	}()

	logger.Info("Starting chainfreq worker", "address", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Worker server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker has shut down.")
}
