// Package main provides the duplicate cleanup command-line tool.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"shopkeeper/internal/config"
	"shopkeeper/internal/dedupe"
	"shopkeeper/internal/logger"
	"shopkeeper/internal/report"
)

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configFile := flag.String("config", "config.yaml", "Path to YAML configuration file (optional)")
	reportFile := flag.String("report", os.Getenv("GITHUB_STEP_SUMMARY"), "Append the markdown run report to this file")
	dryRun := flag.Bool("dry-run", false, "List deletions without issuing them")

	flag.Parse()

	// 2. Load Configuration
	// ---------------------
	// Secrets come from the environment; a .env file is honored when present.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	log.Info(fmt.Sprintf("🚀 Starting duplicate cleanup for %s", cfg.Store.Domain))

	if *dryRun {
		log.Info("ℹ️  Dry run: nothing will be deleted")
	}

	// 3. Run the Cleanup Pass
	// -----------------------
	cleaner := dedupe.NewCleaner(cfg.GraphQLEndpoint(), cfg.Store.Token, cfg.Dedupe.PageSize, log)
	cleaner.SetDryRun(*dryRun)

	result, err := cleaner.Run()
	if err != nil {
		log.Error(fmt.Sprintf("❌ Cleanup aborted: %v", err))
		os.Exit(1)
	}

	// 4. Final Report
	// ---------------
	rep := report.New(cfg.Store.Domain)
	rep.AddDedupe(result)

	if *reportFile != "" {
		if err := rep.AppendToFile(*reportFile); err != nil {
			log.Warn(fmt.Sprintf("⚠️  Failed to write report: %v", err))
		}
	}

	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Duplicate Cleanup Summary\n")
	fmt.Println("------------------------------------------------")
	fmt.Printf("Products Scanned: %d\n", result.TotalProducts)
	fmt.Printf("Duplicate Titles: %d\n", len(result.Groups))
	fmt.Printf("Products Deleted: %d\n", len(result.Deleted))
	fmt.Printf("Failed Deletions: %d\n", len(result.Failed))
	fmt.Println("------------------------------------------------")

	// Per-item deletion failures are reported, not fatal: the next
	// scheduled run picks the leftovers up again.
	if len(result.Failed) > 0 {
		log.Warn(fmt.Sprintf("⚠️  %d deletions failed, see report", len(result.Failed)))
	}

	log.Info("✨ Cleanup complete")
}
