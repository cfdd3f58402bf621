// Package main provides the pre-flight check used by CI before a run.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"shopkeeper/internal/config"
	"shopkeeper/internal/logger"
	"shopkeeper/internal/shopify"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to YAML configuration file (optional)")

	flag.Parse()

	_ = godotenv.Load()

	// 1. Configuration
	// ----------------
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	log.Info(fmt.Sprintf("ℹ️  Configuration OK: %s", cfg))

	// 2. Connectivity and Credentials
	// -------------------------------
	client := shopify.NewGraphQLClient(cfg.GraphQLEndpoint(), cfg.Store.Token, log)

	shop, err := shopify.FetchShopInfo(client)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Shop query failed: %v", err))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✅ Connected to %s (%s, %s)", shop.Name, shop.MyshopifyDomain, shop.CurrencyCode))

	// 3. Product Read Scope
	// ---------------------
	if err := shopify.CheckProductReadScope(client); err != nil {
		log.Error(fmt.Sprintf("❌ %v", err))
		os.Exit(1)
	}

	log.Info("✅ Token can read products")
	log.Info("✨ Pre-flight check passed")
}
