package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ios-xr/xrd-ha-agent/internal/supervisor"
	"github.com/ios-xr/xrd-ha-agent/internal/version"
)

func main() {
	configPath := flag.String("config", "/etc/ha-agent/config.yaml", "path to agent config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("ha-agent", version.String())
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run(configPath string) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	sup, err := supervisor.New(ctx, configPath, logger)
	if err != nil {
		return err
	}

	return sup.Run(ctx)
}

// exitCode maps a fatal run error to the process exit code spec'd for the
// agent: 2 for initialisation failure, 130 for a SIGINT/SIGTERM-driven
// context cancellation, 1 for anything else.
func exitCode(err error) int {
	switch {
	case errors.Is(err, supervisor.ErrInit):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
