package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wordbase/wordbase/internal/config"
	"github.com/wordbase/wordbase/internal/legacy"
	"github.com/wordbase/wordbase/internal/server"
	"github.com/wordbase/wordbase/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	importPath := flag.String("import", "", "Import a legacy export file and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath, *importPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, importPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if importPath != "" {
		importer := legacy.NewImporter(logger, store, store, store)
		imported, err := importer.ImportFile(ctx, importPath)
		if err != nil {
			return err
		}
		logger.Info("import complete", "accounts", imported)
		return nil
	}

	srv := server.New(cfg, logger, server.Stores{
		Entries:    store,
		Users:      store,
		Tokens:     store,
		Files:      store,
		Versions:   store,
		Migrations: store,
	}, Version)

	return srv.Run(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("Wordbase Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
