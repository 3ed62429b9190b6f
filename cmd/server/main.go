// Package main is the entry point for the palette HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bbernstein/lacylights-palette/internal/app"
	"github.com/bbernstein/lacylights-palette/internal/config"
	"github.com/bbernstein/lacylights-palette/internal/logger"
	"github.com/bbernstein/lacylights-palette/internal/services/network"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	fileCfg := logger.DefaultFileConfig(cfg.LogFile)
	fileCfg.MaxSizeMB = cfg.LogMaxSizeMB
	if err := logger.InitWithFileConfig(cfg.LogLevel, fileCfg, cfg.LogConsole); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Print startup banner
	printBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("failed to start", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	if err := a.Serve(ctx); err != nil {
		logger.Log.Error("server exited", zap.Error(err))
	}
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println("============================================")
	fmt.Println("  LacyLights Palette Server")
	fmt.Printf("  Version: %s\n", app.Version)
	fmt.Printf("  Build:   %s\n", app.BuildTime)
	fmt.Printf("  Commit:  %s\n", app.GitCommit)
	fmt.Println("============================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Port:        %s\n", cfg.Port)
	fmt.Printf("  Database:    %s\n", cfg.DatabaseURL)
	fmt.Printf("  Steps:       %s\n", cfg.Steps)
	if cfg.FixtureProfile != "" {
		fmt.Printf("  Profile:     %s\n", cfg.FixtureProfile)
	}
	fmt.Println("============================================")
	if addrs, err := network.ListenAddresses(cfg.Port); err == nil {
		for _, a := range addrs {
			fmt.Printf("  %-9s %s\n", a.InterfaceType, a.URL)
		}
		fmt.Println("============================================")
	}
}
