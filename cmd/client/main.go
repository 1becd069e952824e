package main

import (
	"context"
	"log"
	"os"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/cardkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/cardkeeper/internal/client/cli"
	"github.com/dmitrijs2005/cardkeeper/internal/client/config"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

func main() {
	// Wipe sealed key material on Ctrl-C as well as on normal exit.
	memguard.CatchInterrupt()
	defer memguard.Purge()

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Printf("config: %v", err)
		memguard.SafeExit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, logging.FormatText)

	ctx := context.Background()
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		memguard.SafeExit(1)
	}

	app.Run(ctx)
}
