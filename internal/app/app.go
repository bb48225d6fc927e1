package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/handlers"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/services/answer"
	"github.com/ternarybob/respondeo/internal/services/completion"
	"github.com/ternarybob/respondeo/internal/services/documents"
	"github.com/ternarybob/respondeo/internal/services/llm"
	"github.com/ternarybob/respondeo/internal/services/pdf"
	"github.com/ternarybob/respondeo/internal/services/retention"
	"github.com/ternarybob/respondeo/internal/services/search"
	"github.com/ternarybob/respondeo/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Pipeline services
	SearchService     interfaces.SearchService
	LLMService        interfaces.LLMService
	CompletionService interfaces.CompletionService
	DocumentService   interfaces.DocumentService
	AnswerService     *answer.Service

	RetentionService *retention.Service

	// HTTP handlers
	AnswerHandler   *handlers.AnswerHandler
	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
	APIHandler      *handlers.APIHandler

	// unavailable names the first collaborator that failed to
	// initialize. Requests are rejected with 503 while it is set;
	// startup itself still succeeds so the failure is visible over HTTP.
	unavailable string
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initServices()
	app.initHandlers()

	logger.Info().
		Str("llm_provider", cfg.LLM.Provider).
		Str("search_index", cfg.Search.Index).
		Msg("Application initialization complete")

	return app, nil
}

// Unavailable reports the collaborator that failed to initialize, or an
// empty string when the pipeline is fully operational.
func (a *App) Unavailable() string {
	return a.unavailable
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger, a.Config.PublicBaseURL())
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices builds the pipeline services. A collaborator that fails
// to initialize is recorded in a.unavailable rather than aborting
// startup, matching how requests are answered with 503 until fixed.
func (a *App) initServices() {
	ctx := context.Background()
	kvStorage := a.StorageManager.KeyValueStorage()
	blobStorage := a.StorageManager.BlobStorage()

	// Search index client
	searchKey, err := common.ResolveAPIKey(ctx, kvStorage, "search_api_key", a.Config.Search.APIKey)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Search API key not resolved")
	}

	searchClient, err := search.NewClient(
		a.Config.Search.Endpoint,
		a.Config.Search.Index,
		searchKey,
		search.WithAPIVersion(a.Config.Search.APIVersion),
		search.WithSemanticConfiguration(a.Config.Search.SemanticConfiguration),
		search.WithLogger(a.Logger),
	)
	if err != nil {
		a.Logger.Error().Err(err).Msg("Search service unavailable")
		a.markUnavailable("Search")
	} else {
		a.SearchService = search.NewService(searchClient, a.Logger, a.Config.Search.TopK)
	}

	// Completion provider with caching, retry, and rate limiting
	llmService, err := llm.NewLLMService(a.Config, kvStorage, a.Logger)
	if err != nil {
		a.Logger.Error().Err(err).Msg("Completion service unavailable")
		a.markUnavailable("Completion")
	} else {
		a.LLMService = llmService
		a.CompletionService = completion.NewService(llmService, a.Logger, completion.Options{
			CacheCapacity: a.Config.Completion.CacheCapacity,
			RateLimit:     a.Config.Completion.RateLimit,
			Policy: common.RetryPolicy{
				Attempts:   a.Config.Completion.RetryAttempts,
				MinBackoff: common.ParseDurationOrDefault(a.Config.Completion.RetryMinBackoff, time.Second),
				MaxBackoff: common.ParseDurationOrDefault(a.Config.Completion.RetryMaxBackoff, 10*time.Second),
			},
		})
	}

	// Report generation
	renderer := pdf.NewService(a.Logger)
	a.DocumentService = documents.NewService(
		renderer,
		blobStorage,
		a.Logger,
		a.Config.Documents.TemplatesDir,
		a.Config.Documents.BlobPrefix,
	)

	systemPrompt := answer.LoadSystemPrompt(a.Config.Documents.SystemPromptPath, a.Logger)
	a.AnswerService = answer.NewService(
		a.SearchService,
		a.CompletionService,
		a.DocumentService,
		a.Logger,
		systemPrompt,
		a.Config.Search.TopK,
	)

	// Scheduled cleanup of old report blobs
	if a.Config.Retention.Enabled {
		maxAge := common.ParseDurationOrDefault(a.Config.Retention.MaxAge, 720*time.Hour)
		a.RetentionService = retention.NewService(blobStorage, a.Logger, a.Config.Documents.BlobPrefix, maxAge)
		if err := a.RetentionService.Start(a.Config.Retention.Schedule); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to start retention service")
		}
	}
}

// initHandlers builds the HTTP handlers over the initialized services
func (a *App) initHandlers() {
	a.AnswerHandler = handlers.NewAnswerHandler(a.AnswerService, a.Config.Server.APIKey, a.unavailable, a.Logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.StorageManager.BlobStorage(), a.Logger)
	a.SearchHandler = handlers.NewSearchHandler(a.SearchService, a.Logger)
	a.APIHandler = handlers.NewAPIHandler()
}

// markUnavailable records the first collaborator init failure
func (a *App) markUnavailable(service string) {
	if a.unavailable == "" {
		a.unavailable = service
	}
}

// Close shuts down services and storage in reverse dependency order
func (a *App) Close() error {
	if a.RetentionService != nil {
		a.RetentionService.Stop()
		a.Logger.Info().Msg("Retention service stopped")
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		} else {
			a.Logger.Info().Msg("LLM service closed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
