package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/handlers"
	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/services/analysis"
	"github.com/ternarybob/greattrades/internal/services/events"
	"github.com/ternarybob/greattrades/internal/services/history"
	"github.com/ternarybob/greattrades/internal/services/imaging"
	"github.com/ternarybob/greattrades/internal/services/kv"
	"github.com/ternarybob/greattrades/internal/services/llm"
	"github.com/ternarybob/greattrades/internal/services/prompt"
	"github.com/ternarybob/greattrades/internal/services/report"
	"github.com/ternarybob/greattrades/internal/services/settings"
	"github.com/ternarybob/greattrades/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService interfaces.EventService

	// Analysis pipeline
	ProviderFactory *llm.ProviderFactory
	Encoder         *imaging.Encoder
	AnalysisService *analysis.Service
	Batch           *analysis.Batch

	// Per-user persistence
	HistoryService  interfaces.HistoryService
	SettingsService interfaces.SettingsService
	KVService       *kv.Service

	ReportService *report.Service

	// HTTP handlers
	AnalysisHandler *handlers.AnalysisHandler
	HistoryHandler  *handlers.HistoryHandler
	SettingsHandler *handlers.SettingsHandler
	KVHandler       *handlers.KVHandler
	StatusHandler   *handlers.StatusHandler
	WSHandler       *handlers.WebSocketHandler
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

	app.EventService = events.NewService(app.Logger)

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("provider", string(cfg.LLM.DefaultProvider)).
		Str("model", app.ProviderFactory.DefaultModel()).
		Int("max_concurrency", cfg.Analysis.MaxConcurrency).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	store, err := badger.Open(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	a.StorageManager = store
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Bool("in_memory", a.Config.Storage.Badger.InMemory).
		Msg("Storage layer initialized")

	return nil
}

// initServices wires the analysis pipeline and per-user persistence
func (a *App) initServices() error {
	kvStorage := a.StorageManager.KeyValueStorage()

	a.ProviderFactory = llm.NewProviderFactory(
		&a.Config.Gemini,
		&a.Config.Claude,
		&a.Config.LLM,
		kvStorage,
		a.Logger,
	)

	temperature := a.Config.Gemini.Temperature
	if a.Config.LLM.DefaultProvider == common.LLMProviderClaude {
		temperature = a.Config.Claude.Temperature
	}
	builder := prompt.NewBuilder(a.ProviderFactory.DefaultModel(), temperature)

	a.AnalysisService = analysis.NewService(a.ProviderFactory, builder, a.Logger)
	a.Encoder = imaging.NewEncoder(a.Config.Analysis.MaxImageBytes)

	a.HistoryService = history.NewService(kvStorage, a.Logger)
	a.SettingsService = settings.NewService(kvStorage, a.Logger)
	a.KVService = kv.NewService(kvStorage, a.Logger)
	a.ReportService = report.NewService(a.Logger)

	a.Batch = analysis.NewBatch(
		a.AnalysisService,
		a.Encoder,
		imaging.NewThumbnailer(
			a.Config.Analysis.ThumbnailMaxDimension,
			a.Config.Analysis.ThumbnailQuality,
			a.Config.Analysis.MaxImagePixels,
		),
		a.HistoryService,
		a.EventService,
		a.Config.Analysis.MaxConcurrency,
		a.Logger,
	)

	if err := a.ProviderFactory.CheckCredentials(context.Background(), ""); err != nil {
		a.Logger.Warn().Err(err).Msg("No API key configured yet; analyses will fail until one is set")
	}

	return nil
}

// initHandlers creates the HTTP and WebSocket handlers
func (a *App) initHandlers() {
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger, &a.Config.WebSocket)
	a.AnalysisHandler = handlers.NewAnalysisHandler(
		a.Batch,
		a.SettingsService,
		a.Config.Analysis.MaxBatchSize,
		a.Config.Analysis.MaxImageBytes,
		a.Logger,
	)
	a.HistoryHandler = handlers.NewHistoryHandler(a.HistoryService, a.ReportService, a.EventService, a.Logger)
	a.SettingsHandler = handlers.NewSettingsHandler(a.SettingsService, a.EventService, a.Logger)
	a.KVHandler = handlers.NewKVHandler(a.KVService, func() { a.ProviderFactory.Close() }, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.Config, a.ProviderFactory, a.WSHandler, a.StorageManager, a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.ProviderFactory != nil {
		if err := a.ProviderFactory.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider factory")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
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
