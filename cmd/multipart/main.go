package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rzbill/multipart/internal/cmd/cli"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

func main() {
	// Respect MULTIPART_LOG_LEVEL/MULTIPART_LOG_FORMAT; --log-level adjusts the level later
	logCfg := &logpkg.Config{
		Level:  os.Getenv("MULTIPART_LOG_LEVEL"),
		Format: os.Getenv("MULTIPART_LOG_FORMAT"),
		Redact: []string{"master_key"},
	}
	logger, err := logpkg.ApplyConfig(logCfg)
	if err != nil {
		logger = logpkg.NewLogger(
			logpkg.WithLevel(logpkg.InfoLevel),
			logpkg.WithFormatter(&logpkg.TextFormatter{}),
			logpkg.WithOutput(logpkg.NewConsoleOutput()),
		)
		logger.Warn("ignoring log settings", logpkg.Err(err))
	}

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRoot(logger).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}
