package app

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/markdave123-py/Docura/internal/config"
	"github.com/markdave123-py/Docura/internal/core"
	"github.com/markdave123-py/Docura/internal/core/chunker"
	db "github.com/markdave123-py/Docura/internal/core/database"
	"github.com/markdave123-py/Docura/internal/core/embedder"
	"github.com/markdave123-py/Docura/internal/core/llm"
	"github.com/markdave123-py/Docura/internal/core/normalize"
	objectclient "github.com/markdave123-py/Docura/internal/core/object-client"
	"github.com/markdave123-py/Docura/internal/core/router"
	"github.com/markdave123-py/Docura/internal/core/sidecar"
	"github.com/markdave123-py/Docura/internal/pipeline"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Worker       *pipeline.Worker
	Server       *Server

	geminiEmbedder *llm.GeminiEmbedder
	geminiLLM      *llm.GeminiLLM
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := log.Logger{
		Level:      log.InfoLevel,
		TimeFormat: "15:04:05",
		Writer:     &log.ConsoleWriter{ColorOutput: true},
	}

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("object client initialized and ready")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
	}

	docRouter := router.New(llmProvider, logger)

	normalizers := normalize.NewRegistry(
		normalize.NewNativeNormalizer(),
		normalize.NewRestOCRNormalizer(cfg.OcrEndpoint, cfg.OcrAPIKey),
		normalize.NewVisionOCRNormalizer(llmProvider),
	)

	chunkCfg := chunker.Config{
		ParentMaxTokens: cfg.ParentMaxTokens,
		ChildMaxTokens:  cfg.ChildMaxTokens,
		OverlapTokens:   cfg.OverlapTokens,
		CharsPerToken:   cfg.CharsPerToken,
	}
	docChunker := chunker.New(chunkCfg, chunker.NewLLMDescriber(llmProvider, logger))

	embedCfg := embedder.Config{
		BatchSize:  cfg.EmbedBatchSize,
		MaxRetries: cfg.EmbedMaxRetries,
		BatchDelay: time.Duration(cfg.EmbedBatchDelay) * time.Millisecond,
		Dim:        cfg.EmbedDim,
	}
	emb := embedder.New(geminiEmbedder, embedCfg, logger)

	sidecarClient := sidecar.NewClient(cfg.SidecarURL)
	var sidecarEmb *embedder.Embedder
	if sidecarClient.Configured() {
		sidecarEmb = embedder.New(sidecarClient, embedCfg, logger)
	}

	pipe := pipeline.New(pipeline.Deps{
		DB:          dbClient,
		Obj:         objClient,
		Router:      docRouter,
		Normalizers: normalizers,
		Chunker:     docChunker,
		ChunkCfg:    chunkCfg,
		Embedder:    emb,
		SidecarEmb:  sidecarEmb,
		Sidecar:     sidecarClient,
		Runner:      pipeline.NewRetryRunner(cfg.StepMaxAttempts, logger),
		Logger:      logger,
	})

	worker, err := pipeline.NewWorker(pipe, cfg.WorkerCount, logger)
	if err != nil {
		return nil, err
	}

	server := NewServer(cfg, dbClient, objClient, worker, geminiEmbedder)

	return &App{
		DBClient:       dbClient,
		ObjectClient:   objClient,
		Worker:         worker,
		Server:         server,
		geminiEmbedder: geminiEmbedder,
		geminiLLM:      llmProvider,
	}, nil
}

func (a *App) Close() {
	if a.Worker != nil {
		a.Worker.Stop()
	}
	if a.geminiEmbedder != nil {
		_ = a.geminiEmbedder.Close()
	}
	if a.geminiLLM != nil {
		_ = a.geminiLLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
