// Package main provides the brand catalog sync command-line tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"shopkeeper/internal/config"
	"shopkeeper/internal/logger"
	"shopkeeper/internal/report"
	"shopkeeper/internal/shopify"
	"shopkeeper/internal/syncer"
)

// syncTimeout bounds one full sync run. A brand file with a few hundred
// products stays well inside this at 2 requests per second.
const syncTimeout = 30 * time.Minute

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configFile := flag.String("config", "config.yaml", "Path to YAML configuration file (optional)")
	brandList := flag.String("brands", "", "Comma-separated brand list (overrides config)")
	brandDir := flag.String("brand-dir", "", "Directory holding brand JSON files (overrides config)")
	reportFile := flag.String("report", os.Getenv("GITHUB_STEP_SUMMARY"), "Append the markdown run report to this file")

	flag.Parse()

	// 2. Load Configuration
	// ---------------------
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	if *brandList != "" {
		cfg.Sync.Brands = strings.Split(*brandList, ",")
	}

	if *brandDir != "" {
		cfg.Sync.BrandDir = *brandDir
	}

	if err := cfg.ValidateSync(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	log.Info(fmt.Sprintf("🚀 Starting catalog sync for %s (%d brands)", cfg.Store.Domain, len(cfg.Sync.Brands)))

	// 3. Run the Sync
	// ---------------
	result, err := runSync(cfg, log)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Sync aborted: %v", err))
		os.Exit(1)
	}

	// 4. Final Report
	// ---------------
	rep := report.New(cfg.Store.Domain)
	rep.AddSync(result)

	if *reportFile != "" {
		if err := rep.AppendToFile(*reportFile); err != nil {
			log.Warn(fmt.Sprintf("⚠️  Failed to write report: %v", err))
		}
	}

	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Catalog Sync Summary\n")
	fmt.Println("------------------------------------------------")
	fmt.Printf("Brands Processed: %d\n", len(result.Brands))
	fmt.Printf("Products Created: %d\n", result.TotalCreated())
	fmt.Printf("Products Updated: %d\n", result.TotalUpdated())
	fmt.Printf("Product Failures: %d\n", result.TotalFailed())
	fmt.Println("------------------------------------------------")

	// Per-product failures are tolerated; a run where every brand file
	// failed outright synced nothing and should fail the CI job.
	if result.FileFailures() == len(result.Brands) {
		log.Error("❌ Every brand file failed")
		os.Exit(1)
	}

	log.Info("✨ Sync complete")
}

// runSync pushes every configured brand file under one shared deadline.
func runSync(cfg *config.Config, log *logger.Logger) (*syncer.Result, error) {
	locationID, err := cfg.Store.NumericLocationID()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	client := shopify.NewRESTClient(
		cfg.RESTBaseURL(),
		cfg.Store.Token,
		&cfg.Sync.Retry,
		cfg.Sync.RateLimitRPS,
		log,
	)

	s := syncer.NewSyncer(client, syncer.Options{
		LocationID: locationID,
		CacheTTL:   cfg.Sync.CacheTTL(),
		Workers:    cfg.Sync.Workers,
	}, log)

	return s.Run(ctx, cfg.Sync.Brands, cfg.Sync.BrandDir), nil
}
