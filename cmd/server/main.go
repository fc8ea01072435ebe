package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shelfgear/backend/config"
	httpDelivery "github.com/shelfgear/backend/internal/delivery/http"
	"github.com/shelfgear/backend/internal/infrastructure/cache"
	"github.com/shelfgear/backend/internal/infrastructure/catalogapi"
	"github.com/shelfgear/backend/internal/infrastructure/pagemeta"
	"github.com/shelfgear/backend/internal/infrastructure/sqlite"
	"github.com/shelfgear/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ShelfGear Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Store: %s", cfg.Store.Path)

	// Initialize infrastructure dependencies
	store, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	apiClient := catalogapi.NewClient(cfg.CatalogAPI.APIKey, cfg.CatalogAPI.BaseURL)
	scraper := pagemeta.NewScraper(cfg.Scraper.Timeout)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		apiClient.SetDebug(true)
		log.Printf("Product API client debug mode enabled")
	}

	if cfg.CatalogAPI.APIKey != "" {
		log.Printf("Product API configured: %s (key: %s...)", cfg.CatalogAPI.BaseURL, cfg.CatalogAPI.APIKey[:min(8, len(cfg.CatalogAPI.APIKey))])
	}

	// Initialize usecase layer
	resolver := usecase.NewResolver(usecase.ResolverConfig{
		RedirectTimeout: cfg.Resolver.RedirectTimeout,
		MaxRedirectHops: cfg.Resolver.MaxRedirectHops,
		LinkCache:       cache.NewMemoryCache(),
		LinkCacheTTL:    cfg.Resolver.LinkCacheTTL,
	})

	// Provider order is the fallback priority: structured API first, page
	// scrape second.
	chain := usecase.NewProviderChain(apiClient, scraper)
	matcher := usecase.NewMatcher(store, store)

	ingestService := usecase.NewIngestService(
		resolver,
		chain,
		matcher,
		store,
		store,
		usecase.IngestServiceConfig{RefreshWorkers: cfg.Refresh.Workers},
	)

	log.Printf("Ingestion pipeline ready: hops=%d, refresh workers=%d",
		cfg.Resolver.MaxRedirectHops, cfg.Refresh.Workers)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(ingestService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
