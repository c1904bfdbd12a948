package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/baharkarakas/resumeforge/internal/config"
	"github.com/baharkarakas/resumeforge/internal/db"
	"github.com/baharkarakas/resumeforge/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: migrate [command]")
		fmt.Fprintln(os.Stderr, "Commands: up, down, status, redo, reset, version")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	log.Info("starting migration", "command", command)
	if err := db.RunMigrations(ctx, cfg.DatabaseURL, command); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}
	log.Info("migration finished", "command", command)
}
