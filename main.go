package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/abilabs/insight-engine/pkg/assistant"
	"github.com/abilabs/insight-engine/pkg/compose"
	"github.com/abilabs/insight-engine/pkg/config"
	"github.com/abilabs/insight-engine/pkg/engine"
	"github.com/abilabs/insight-engine/pkg/forecast"
	"github.com/abilabs/insight-engine/pkg/handlers"
	"github.com/abilabs/insight-engine/pkg/llm"
	"github.com/abilabs/insight-engine/pkg/logging"
	"github.com/abilabs/insight-engine/pkg/mcp"
	"github.com/abilabs/insight-engine/pkg/mcp/tools"
	"github.com/abilabs/insight-engine/pkg/middleware"
	"github.com/abilabs/insight-engine/pkg/planner"
	"github.com/abilabs/insight-engine/pkg/scope"
	"github.com/abilabs/insight-engine/pkg/store"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("store_url", logging.SanitizeConnectionString(cfg.Store.URL)),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model))

	ctx := context.Background()

	collectionStore, err := store.NewCollectionStore(ctx, &cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}
	defer collectionStore.Close()

	snapshots := store.NewSnapshotCache(collectionStore, cfg.Cache.TTL(), logger)

	redisClient, err := store.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	var forecastCache *store.ForecastCache
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		forecastCache = store.NewForecastCache(redisClient, cfg.Cache.TTL(), logger)
	}

	client, err := llm.NewFromConfig(&llm.Config{
		Provider: cfg.AI.Provider,
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create model client", zap.Error(err))
	}

	svc := assistant.NewService(
		snapshots,
		scope.NewResolver(logger),
		planner.NewTranslator(client, &cfg.AI, logger),
		engine.NewExecutor(logger),
		forecast.NewForecaster(&cfg.Forecast, forecastCache, logger),
		compose.NewComposer(client, &cfg.AI, logger),
		logger,
	)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAskHandler(svc, logger).RegisterRoutes(mux)
	handlers.NewOrderHandler(svc, logger).RegisterRoutes(mux)
	handlers.NewForecastHandler(svc, logger).RegisterRoutes(mux)

	mcpServer := mcp.NewServer("insight-engine", cfg.Version, logger)
	toolDeps := &tools.Deps{Service: svc, Logger: logger}
	tools.RegisterAskTool(mcpServer.MCP(), toolDeps)
	tools.RegisterOrderStatusTool(mcpServer.MCP(), toolDeps)
	tools.RegisterForecastTools(mcpServer.MCP(), toolDeps)
	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)

	mcpHTTP := middleware.MCPRequestLogger(logger)(mcpServer.NewStreamableHTTPServer())
	mux.Handle("/mcp", mcpHTTP)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting insight-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a production logger, or a development logger for local
// environments.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
