package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/blindauction/internal/cli"
	"github.com/dmitrijs2005/blindauction/internal/config"
	"github.com/dmitrijs2005/blindauction/internal/logging"
)

// Set with -ldflags "-X main.buildVersion=...".
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
)

func main() {

	fmt.Printf("Build version: %s\nBuild date: %s\n", buildVersion, buildDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}

// loadConfig turns configuration panics into a usage exit.
func loadConfig() (cfg *config.Config) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "configuration error:", r)
			os.Exit(2)
		}
	}()
	return config.LoadConfig()
}
