// Package app wires configuration into the services shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/timmy/agentfeed/internal/config"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/metrics"
	"github.com/timmy/agentfeed/internal/provider"
	"github.com/timmy/agentfeed/internal/repository"
	"github.com/timmy/agentfeed/internal/service"
	"github.com/timmy/agentfeed/internal/storage"
)

// App holds the assembled services.
type App struct {
	Roster      []domain.CreatorProfile
	Pipeline    *service.Pipeline
	Cycles      *service.CycleRunner
	Status      *service.StatusService
	Regenerator *service.MediaRegenerator
	UserMedia   *service.UserMediaService
	Engagement  *service.EngagementService
	Studio      *service.MediaStudio
	Trending    *service.TrendingService
	Metrics     *metrics.Collector

	closers []func() error
}

// Close releases connections opened by New.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Failed to close resource: %v", err)
		}
	}
}

// New builds every service from cfg.
// Parameters:
//   - ctx: context for startup calls such as ensuring the vector collection.
//   - cfg: loaded configuration.
//   - log: base logger.
//
// Returns:
//   - *App: assembled services; call Close when done.
//   - error: non-nil if the roster, database, storage, or index cannot be set up.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	roster, err := cfg.Roster()
	if err != nil {
		return nil, fmt.Errorf("load creator roster: %w", err)
	}

	db, err := repository.InitDB(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	a := &App{Roster: roster}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	posts := repository.NewPostRepository(db)
	audit := repository.NewAgentLogRepository(db)
	usage := repository.NewUsageRepository(db)
	content := repository.NewCreatorContentRepository(db)
	trending := repository.NewTrendingRepository(db)

	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New(cfg.Metrics.Namespace)
	}

	timeout := cfg.Pipeline.RequestTimeout
	tokens := provider.NewTokenSource(cfg.Google.AccessToken, cfg.Google.MetadataURL)
	vertex := provider.VertexConfig{ProjectID: cfg.Google.ProjectID, Region: cfg.Google.Region, Timeout: timeout}

	gemini := provider.NewGeminiClient(&provider.GeminiConfig{
		APIKey:        cfg.Google.APIKey,
		ResearchModel: cfg.Models.Research,
		WriterModel:   cfg.Models.Writer,
		Timeout:       timeout,
	}, usage)
	imagen := provider.NewImagenClient(vertex, tokens, cfg.Models.Image, cfg.Models.ImageEdit)
	veo := provider.NewVeoClient(vertex, tokens, cfg.Models.Video)
	tts := provider.NewTTSClient("", tokens, cfg.Models.Voice, timeout)

	indexer, err := a.newIndexer(ctx, cfg, usage)
	if err != nil {
		a.Close()
		return nil, err
	}

	builder := service.NewRecordBuilder(service.ModelSet{
		Pipeline: cfg.Models.Pipeline,
		Research: gemini.ResearchModel(),
		Writer:   gemini.WriterModel(),
		Image:    imagen.Model(),
		Video:    veo.Model(),
		Voice:    tts.Model(),
	}, cfg.Pipeline.VideoDurationSeconds, cfg.Pipeline.DefaultConfidence)

	poller := service.NewVideoPoller(veo, objectStorage, service.VideoPollerConfig{
		Interval:        cfg.Pipeline.VideoPollInterval,
		MaxPolls:        cfg.Pipeline.VideoMaxPolls,
		DurationSeconds: cfg.Pipeline.VideoDurationSeconds,
		OutputBucket:    cfg.Google.VideoOutputBucket,
	})

	a.Pipeline = service.NewPipeline(service.PipelineDeps{
		Researcher: gemini,
		Writer:     gemini,
		Images:     imagen,
		DualRatio:  service.NewDualRatioGenerator(imagen, objectStorage, domain.Variant(cfg.Pipeline.PrimaryVariant)),
		Video:      poller,
		Voice:      tts,
		Storage:    objectStorage,
		Posts:      posts,
		Audit:      audit,
		Content:    content,
		Indexer:    indexer,
		Builder:    builder,
		Metrics:    a.Metrics,
	}, service.PipelineConfig{
		MinVoiceoverChars: cfg.Pipeline.MinVoiceoverChars,
		MinConfidence:     cfg.Pipeline.MinConfidence,
	})

	a.Cycles = service.NewCycleRunner(roster, a.Pipeline, service.NewFrequencyGate(posts), audit, a.Metrics)
	a.Status = service.NewStatusService(roster, posts)
	a.Regenerator = service.NewMediaRegenerator(posts, imagen, objectStorage)
	a.UserMedia = service.NewUserMediaService(posts, imagen, objectStorage, timeout)
	a.Engagement = service.NewEngagementService(posts)
	a.Studio = service.NewMediaStudio(imagen, poller, objectStorage, cfg.Studio.VideoBudget)
	a.Trending = service.NewTrendingService(posts, trending, cfg.Trending.Categories, cfg.Trending.Limit)

	log.WithFields(logger.Fields{
		"creators": len(roster),
		"indexing": indexer != nil,
		"metrics":  a.Metrics != nil,
	}).Info("Services initialized")
	return a, nil
}

// newIndexer connects the post index when indexing is enabled.
func (a *App) newIndexer(ctx context.Context, cfg *config.Config, usage provider.UsageRecorder) (*service.PostIndexer, error) {
	if !cfg.Index.Enabled {
		return nil, nil
	}
	if err := cfg.Embedding.Validate(); err != nil {
		return nil, err
	}

	index, err := repository.NewPostIndexRepository(&repository.QdrantConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize post index: %w", err)
	}
	a.closers = append(a.closers, index.Close)

	if err := index.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure post index collection: %w", err)
	}

	embedder := provider.NewEmbeddingClient(&provider.EmbeddingConfig{
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Pipeline.RequestTimeout,
	}, usage)
	return service.NewPostIndexer(embedder, index), nil
}
