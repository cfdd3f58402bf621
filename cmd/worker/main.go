// Package main provides the unified worker command that combines the
// catalog sync and the duplicate cleanup, in that order. This is the
// entry point the scheduled CI workflow runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"shopkeeper/internal/config"
	"shopkeeper/internal/dedupe"
	"shopkeeper/internal/logger"
	"shopkeeper/internal/report"
	"shopkeeper/internal/shopify"
	"shopkeeper/internal/syncer"
)

// syncTimeout bounds the sync phase. The cleanup phase runs unbounded,
// one sequential request at a time.
const syncTimeout = 30 * time.Minute

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configFile := flag.String("config", "config.yaml", "Path to YAML configuration file (optional)")
	reportFile := flag.String("report", os.Getenv("GITHUB_STEP_SUMMARY"), "Append the markdown run report to this file")
	skipSync := flag.Bool("skip-sync", false, "Run only the duplicate cleanup phase")
	dryRun := flag.Bool("dry-run", false, "List deletions without issuing them")

	flag.Parse()

	// 2. Load Configuration
	// ---------------------
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	log.Info("🚀 Starting Catalog Worker Pipeline")
	log.Info(fmt.Sprintf("🎯 Target: %s", cfg.Store.Domain))

	startTime := time.Now()
	rep := report.New(cfg.Store.Domain)

	// 3. Synchronization (Brand Catalogs)
	// -----------------------------------
	var syncResult *syncer.Result

	if *skipSync {
		log.Info("Phase 1: Synchronization skipped")
	} else {
		log.Info("Phase 1: Synchronization (Brand Catalogs)...")

		if err := cfg.ValidateSync(); err != nil {
			log.Error(fmt.Sprintf("❌ %v", err))
			os.Exit(1)
		}

		syncResult = runSync(cfg, log)
		rep.AddSync(syncResult)

		log.Info(fmt.Sprintf("✅ Synced %d brands in %v", len(syncResult.Brands), time.Since(startTime)))
	}

	// 4. Cleanup (Duplicate Products)
	// -------------------------------
	log.Info("Phase 2: Cleanup (Duplicate Products)...")

	cleanupStart := time.Now()

	cleaner := dedupe.NewCleaner(cfg.GraphQLEndpoint(), cfg.Store.Token, cfg.Dedupe.PageSize, log)
	cleaner.SetDryRun(*dryRun)

	cleanupResult, err := cleaner.Run()
	if err != nil {
		// The sync phase already ran; get its report out before failing.
		writeReport(rep, *reportFile, log)

		log.Error(fmt.Sprintf("❌ Cleanup aborted: %v", err))
		os.Exit(1)
	}

	rep.AddDedupe(cleanupResult)

	log.Info(fmt.Sprintf("✅ Cleanup finished in %v", time.Since(cleanupStart)))

	// 5. Final Report
	// ---------------
	writeReport(rep, *reportFile, log)

	log.Info("✨ Pipeline Complete!")
	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Summary Report\n")
	fmt.Println("------------------------------------------------")

	if syncResult != nil {
		fmt.Printf("Products Created: %d\n", syncResult.TotalCreated())
		fmt.Printf("Products Updated: %d\n", syncResult.TotalUpdated())
		fmt.Printf("Sync Failures: %d\n", syncResult.TotalFailed())
	}

	fmt.Printf("Duplicate Titles: %d\n", len(cleanupResult.Groups))
	fmt.Printf("Products Deleted: %d\n", len(cleanupResult.Deleted))
	fmt.Printf("Failed Deletions: %d\n", len(cleanupResult.Failed))
	fmt.Printf("Total Duration: %v\n", time.Since(startTime))
	fmt.Println("------------------------------------------------")
}

// runSync pushes every configured brand file. Sync failures never stop
// the pipeline: the cleanup phase must run even when a brand file is
// broken.
func runSync(cfg *config.Config, log *logger.Logger) *syncer.Result {
	locationID, err := cfg.Store.NumericLocationID()
	if err != nil {
		// ValidateSync already checked this.
		log.Error(fmt.Sprintf("❌ %v", err))
		os.Exit(1)
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

	return s.Run(ctx, cfg.Sync.Brands, cfg.Sync.BrandDir)
}

func writeReport(rep *report.Report, path string, log *logger.Logger) {
	if path == "" {
		return
	}

	if err := rep.AppendToFile(path); err != nil {
		log.Warn(fmt.Sprintf("⚠️  Failed to write report: %v", err))
	}
}
