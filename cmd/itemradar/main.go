package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/itemradar/internal/config"
	"github.com/kailas-cloud/itemradar/internal/db"
	dbRedis "github.com/kailas-cloud/itemradar/internal/db/redis"
	"github.com/kailas-cloud/itemradar/internal/domain"
	logpkg "github.com/kailas-cloud/itemradar/internal/logger"
	"github.com/kailas-cloud/itemradar/internal/metrics"
	budgetrepo "github.com/kailas-cloud/itemradar/internal/repository/budget"
	"github.com/kailas-cloud/itemradar/internal/repository/embcache"
	itemrepo "github.com/kailas-cloud/itemradar/internal/repository/item"
	sessionrepo "github.com/kailas-cloud/itemradar/internal/repository/session"
	chiTransport "github.com/kailas-cloud/itemradar/internal/transport/chi"
	"github.com/kailas-cloud/itemradar/internal/transport/nominatim"
	openaiTransport "github.com/kailas-cloud/itemradar/internal/transport/openai"
	aiuc "github.com/kailas-cloud/itemradar/internal/usecase/ai"
	engineuc "github.com/kailas-cloud/itemradar/internal/usecase/engine"
	extractuc "github.com/kailas-cloud/itemradar/internal/usecase/extract"
	filteruc "github.com/kailas-cloud/itemradar/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/itemradar/internal/usecase/health"
	matchuc "github.com/kailas-cloud/itemradar/internal/usecase/match"
	questionuc "github.com/kailas-cloud/itemradar/internal/usecase/question"
	registeruc "github.com/kailas-cloud/itemradar/internal/usecase/register"
	usageuc "github.com/kailas-cloud/itemradar/internal/usecase/usage"
	"github.com/kailas-cloud/itemradar/internal/version"
)

func main() {
	// .env is optional, for local development only
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting itemradar API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterAIMetrics()
	metrics.RegisterEngineMetrics()

	// Single BudgetTracker shared by the embedder, the oracle and the usage report.
	budget := buildBudget(ctx, cfg, store, logger)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budgetChecker aiuc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	embedder := buildEmbedder(cfg, store, budgetChecker, logger)
	oracle := buildOracle(cfg, budgetChecker, logger)
	logger.Info("AI providers created",
		zap.String("embedding_model", cfg.AI.EmbeddingModel),
		zap.String("chat_model", cfg.AI.ChatModel),
		zap.Int("dimensions", cfg.AI.EmbeddingDimensions),
	)

	geocoder := nominatim.NewGeocoder(&nominatim.Config{
		BaseURL:    cfg.Geocoding.BaseURL,
		UserAgent:  cfg.Geocoding.UserAgent,
		Timeout:    time.Duration(cfg.Geocoding.TimeoutSec) * time.Second,
		MaxRetries: cfg.Geocoding.MaxRetries,
		Logger:     logger,
	})

	items := itemrepo.New(store)
	if err := items.EnsureIndex(ctx, cfg.AI.EmbeddingDimensions, cfg.Index.HNSWM, cfg.Index.HNSWEFConstruct); err != nil {
		logger.Fatal("Failed to ensure item index", zap.Error(err))
	}
	sessions := sessionrepo.New(store, time.Duration(cfg.Session.TTLHours)*time.Hour)

	extractor := extractuc.New(oracle, logger)
	registerSvc := registeruc.New(items, embedder, extractor, geocoder, logger)
	matchSvc := matchuc.New(items, embedder, cfg.Matching.TopK, logger)
	engineSvc := engineuc.New(
		sessions, registerSvc, matchSvc,
		questionuc.New(logger), filteruc.New(logger), geocoder,
		cfg.Matching.MinConfidence, logger,
	)

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(items, budgetReader)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(registerSvc, engineSvc, usageSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildBudget creates the shared token budget tracker, or nil when unlimited.
func buildBudget(ctx context.Context, cfg config.Config, store db.Store, logger *zap.Logger) *aiuc.BudgetTracker {
	budgetCfg := cfg.AI.Budget
	if budgetCfg.DailyTokenLimit <= 0 && budgetCfg.MonthlyTokenLimit <= 0 {
		return nil
	}

	action := aiuc.BudgetActionWarn
	if budgetCfg.Action == "reject" {
		action = aiuc.BudgetActionReject
	}
	budget := aiuc.NewBudgetTracker(budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger)

	// Connect persistence — loads current counters from the store.
	budgetStore := budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour)
	return budget.WithStore(ctx, budgetStore)
}

// buildEmbedder assembles the embedder decorator chain:
// base OpenAI -> cache -> budget/metrics instrumentation -> instruction prefix.
func buildEmbedder(cfg config.Config, store db.Store, budget aiuc.BudgetChecker, logger *zap.Logger) domain.Embedder {
	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		Config: openaiTransport.Config{
			APIKey:     cfg.AI.APIKey,
			BaseURL:    cfg.AI.BaseURL,
			Timeout:    time.Duration(cfg.AI.TimeoutSec) * time.Second,
			MaxRetries: cfg.AI.MaxRetries,
		},
		Model:      cfg.AI.EmbeddingModel,
		Dimensions: cfg.AI.EmbeddingDimensions,
		Logger:     logger,
	})

	embedder = embcache.New(embedder, store, metrics.EmbeddingCacheTotal, logger)
	embedder = aiuc.NewInstrumentedEmbedder(embedder, cfg.AI.EmbeddingModel, budget, logger)

	if cfg.AI.EmbeddingInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.AI.EmbeddingInstruction)
	}
	return embedder
}

// buildOracle assembles the generative oracle with budget/metrics instrumentation.
func buildOracle(cfg config.Config, budget aiuc.BudgetChecker, logger *zap.Logger) domain.Oracle {
	oracle := openaiTransport.NewOracle(&openaiTransport.OracleConfig{
		Config: openaiTransport.Config{
			APIKey:     cfg.AI.APIKey,
			BaseURL:    cfg.AI.BaseURL,
			Timeout:    time.Duration(cfg.AI.TimeoutSec) * time.Second,
			MaxRetries: cfg.AI.MaxRetries,
		},
		Model:  cfg.AI.ChatModel,
		Logger: logger,
	})
	return aiuc.NewInstrumentedOracle(oracle, cfg.AI.ChatModel, budget, logger)
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(e domain.Embedder) healthuc.EmbeddingChecker {
	if hc, ok := e.(healthuc.EmbeddingChecker); ok {
		return hc
	}
	return &embeddingHealthChecker{embedder: e}
}

func (c *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	_, err := c.embedder.Embed(ctx, "ping")
	return err
}
