package main

import (
	"context"
	"log"
	"sitecraft/cache"
	"sitecraft/config"
	"sitecraft/database"
	"sitecraft/events"
	"sitecraft/generation"
	"sitecraft/handlers"
	"sitecraft/memstore"
	"sitecraft/workflow"
	"time"

	"github.com/gin-gonic/gin"
)

// backend is what the server needs from a store implementation.
type backend interface {
	workflow.Store
	handlers.Store
	cache.SiteSource
	Close()
}

var (
	_ backend = (*database.DB)(nil)
	_ backend = (*memstore.Store)(nil)
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Create context with timeout for initial connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store:", err)
	}
	defer store.Close()

	gen, err := newGenerator(ctx, cfg.Generation)
	if err != nil {
		log.Fatal("Failed to create generation client:", err)
	}

	hub := events.NewHub()
	defer hub.Close()

	published, err := cache.NewPublished(store, cfg.PublishedCacheSize)
	if err != nil {
		log.Fatal(err)
	}

	svc := workflow.New(store, generation.WithLogging(gen, log.Default()), workflow.Options{
		RevisionCost:      cfg.RevisionCost,
		GenerationTimeout: cfg.Generation.Timeout,
		Notifier:          workflow.Notifiers{hub, published},
	})

	r := gin.Default()
	handlers.Register(r, handlers.Deps{
		Store:     store,
		Service:   svc,
		Hub:       hub,
		Published: published,
	})

	log.Printf("Server starting on %s (store=%s generator=%s cost=%d)",
		cfg.Addr(), cfg.StoreBackend, gen.Name(), svc.RevisionCost())
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatal(err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (backend, error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Println("Using in-memory store; data is lost on restart")
		return memstore.New(), nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db.Pool); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newGenerator(ctx context.Context, cfg config.GenerationConfig) (generation.Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return generation.NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	case config.ProviderFake:
		return generation.NewFake(), nil
	default:
		return generation.NewOpenRouter(generation.OpenRouterConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.Model,
			BaseURL: cfg.OpenRouterBaseURL,
			Referer: cfg.AppURL,
			Title:   cfg.AppName,
			Timeout: cfg.Timeout,
		}), nil
	}
}
