package app

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/markdave123-py/Archiva/internal/config"
	db "github.com/markdave123-py/Archiva/internal/core/database"
	"github.com/markdave123-py/Archiva/internal/core/ingestion"
	"github.com/markdave123-py/Archiva/internal/core/llm"
	objectclient "github.com/markdave123-py/Archiva/internal/core/object-client"
	"github.com/markdave123-py/Archiva/internal/core/parsers"
	"github.com/markdave123-py/Archiva/internal/services"
	"github.com/markdave123-py/Archiva/internal/worker"
)

// App owns every long-lived component and their shutdown order.
type App struct {
	DBClient *db.DatabaseClient
	Workers  *worker.Pool
	Server   *Server

	embedder *llm.GeminiEmbedder
	vision   *llm.GeminiVision
	logger   *log.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	startCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(startCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	logger.Info().Msg("database initialized and bootstrapped")

	objClient, err := objectclient.NewS3Client(startCtx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("object storage init: %w", err)
	}

	embedder, err := llm.NewGeminiEmbedder(startCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("embedder init: %w", err)
	}
	vision, err := llm.NewGeminiVision(startCtx, cfg.AIAPIKey, cfg.VisionModel)
	if err != nil {
		return nil, fmt.Errorf("vision init: %w", err)
	}

	registry := parsers.NewRegistry(vision, logger)
	pipeline := ingestion.NewPipeline(dbClient, objClient, embedder, registry, logger, ingestion.Config{
		ChunkBatchSize: cfg.ChunkBatchSize,
	})

	workers, err := worker.NewPool(cfg.WorkerPoolSize, pipeline, dbClient, logger)
	if err != nil {
		return nil, fmt.Errorf("worker pool init: %w", err)
	}

	dispatch := func(documentID string) {
		if _, err := workers.Submit(documentID); err != nil {
			logger.Error().Str("document_id", documentID).Err(err).Msg("could not queue processing")
		}
	}

	docService := services.NewDocumentService(dbClient, objClient, dispatch, logger)
	searchService := services.NewSearchService(dbClient, embedder, logger, services.SearchDefaults{
		Limit:         cfg.SearchLimit,
		MinSimilarity: cfg.MinSimilarity,
		TokenBudget:   cfg.ContextTokenBudget,
	})
	folderService := services.NewFolderService(dbClient, logger)

	server := NewServer(cfg, docService, searchService, folderService, logger)

	return &App{
		DBClient: dbClient,
		Workers:  workers,
		Server:   server,
		embedder: embedder,
		vision:   vision,
		logger:   logger,
	}, nil
}

// Close drains workers, then releases clients.
func (a *App) Close() {
	if a.Workers != nil {
		a.Workers.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.vision != nil {
		_ = a.vision.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
