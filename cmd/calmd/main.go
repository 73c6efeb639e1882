// Command calmd runs the CALM agent-memory service: it wires the ten
// components together and serves their operations over HTTP, loopback-only
// (spec.md §1 Non-goals: no auth, bind to loopback).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	calmcontext "github.com/codeready-toolchain/calm/pkg/context"
	"github.com/codeready-toolchain/calm/pkg/cluster"
	"github.com/codeready-toolchain/calm/pkg/config"
	"github.com/codeready-toolchain/calm/pkg/dispatcher"
	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/events"
	"github.com/codeready-toolchain/calm/pkg/health"
	"github.com/codeready-toolchain/calm/pkg/journal"
	"github.com/codeready-toolchain/calm/pkg/metadata"
	"github.com/codeready-toolchain/calm/pkg/persister"
	"github.com/codeready-toolchain/calm/pkg/retention"
	"github.com/codeready-toolchain/calm/pkg/search"
	"github.com/codeready-toolchain/calm/pkg/session"
	"github.com/codeready-toolchain/calm/pkg/values"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CALM_CONFIG_DIR", "."), "Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8089")
	gin.SetMode(getEnv("GIN_MODE", "release"))

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	calmDir, err := cfg.ResolvedCalmDir()
	if err != nil {
		log.Fatalf("failed to resolve calm_dir: %v", err)
	}
	if err := os.MkdirAll(calmDir, 0o700); err != nil {
		log.Fatalf("failed to create calm_dir %s: %v", calmDir, err)
	}
	vectorStorePath, err := cfg.ResolvedVectorStoreURL()
	if err != nil {
		log.Fatalf("failed to resolve vector_store_url: %v", err)
	}

	store, err := vectorstore.NewChromemStore(vectorStorePath)
	if err != nil {
		log.Fatalf("failed to open vector store: %v", err)
	}
	if err := ensureCollections(ctx, store, cfg); err != nil {
		log.Fatalf("failed to initialize collections: %v", err)
	}

	registry := embedding.NewRegistry(
		embedding.NewFastEmbedEmbedder(cfg.CodeModel, cfg.Embedding.CodeDim, cfg.Queue.EmbedWorkers),
		embedding.NewFastEmbedEmbedder(cfg.SemanticModel, cfg.Embedding.SemanticDim, cfg.Queue.EmbedWorkers),
	)

	metadataStore, err := metadata.Open(filepath.Join(calmDir, "metadata.db"))
	if err != nil {
		log.Fatalf("failed to open metadata store: %v", err)
	}
	defer func() {
		if err := metadataStore.Close(); err != nil {
			log.Printf("error closing metadata store: %v", err)
		}
	}()

	j, err := journal.Open(filepath.Join(calmDir, "journal"))
	if err != nil {
		log.Fatalf("failed to open journal: %v", err)
	}

	bus := events.NewBus()
	publisher := events.NewPublisher(bus)

	sessionMgr := session.NewManager(j)
	persisterSvc := persister.New(store, registry)
	clusterSvc := cluster.New(store)
	valuesSvc := values.New(store, registry)
	searcher := search.New(store, registry)
	assembler := calmcontext.New(searcher, calmcontext.Config{
		SourceWeights:         cfg.SourceWeights,
		SimilarityThreshold:   cfg.SimilarityThreshold,
		MaxItemFraction:       cfg.MaxItemFraction,
		MaxFuzzyContentLength: cfg.MaxFuzzyContentLength,
	})

	checker := health.NewChecker()
	checker.Register("embedder", health.EmbedderProbe(registry, embedding.RoleSemantic))
	checker.Register("store", health.StoreProbe(store, vectorstore.CollectionMemories))
	checker.Register("journal", health.JournalProbe(calmDir))

	retentionSvc := retention.NewService(cfg.Retention, filepath.Join(calmDir, "journal", "archive"), store, valuesSvc)
	retentionSvc.Start(ctx)
	defer retentionSvc.Stop()

	d := &dispatcher.Dispatcher{
		Config:    cfg,
		Registry:  registry,
		Store:     store,
		Metadata:  metadataStore,
		Journal:   j,
		Session:   sessionMgr,
		Persister: persisterSvc,
		Cluster:   clusterSvc,
		Values:    valuesSvc,
		Searcher:  searcher,
		Assembler: assembler,
		Publisher: publisher,
		Health:    checker,
	}

	router := dispatcher.NewRouter(d)

	slog.Info("starting calmd", "http_port", httpPort, "calm_dir", calmDir)
	log.Printf("HTTP server listening on 127.0.0.1:%s", httpPort)
	if err := router.Run("127.0.0.1:" + httpPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// ensureCollections creates the eight fixed collections (spec.md §3) up
// front so the first request into any of them never races collection
// creation.
func ensureCollections(ctx context.Context, store vectorstore.Store, cfg *config.Config) error {
	semanticDim := cfg.Embedding.SemanticDim
	codeDim := cfg.Embedding.CodeDim

	type collectionDim struct {
		name string
		dim  int
	}
	collections := []collectionDim{
		{vectorstore.CollectionMemories, semanticDim},
		{vectorstore.CollectionCodeUnits, codeDim},
		{vectorstore.CollectionCommits, semanticDim},
		{vectorstore.CollectionGHAPFull, semanticDim},
		{vectorstore.CollectionGHAPStrategy, semanticDim},
		{vectorstore.CollectionGHAPSurprise, semanticDim},
		{vectorstore.CollectionGHAPRootCause, semanticDim},
		{vectorstore.CollectionValues, semanticDim},
	}
	for _, c := range collections {
		if _, err := store.CreateCollection(ctx, c.name, c.dim, vectorstore.MetricCosine); err != nil {
			return fmt.Errorf("create collection %s: %w", c.name, err)
		}
	}
	return nil
}
