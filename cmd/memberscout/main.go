package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/config"
	dbRedis "github.com/kailas-cloud/memberscout/internal/db/redis"
	"github.com/kailas-cloud/memberscout/internal/domain"
	logpkg "github.com/kailas-cloud/memberscout/internal/logger"
	"github.com/kailas-cloud/memberscout/internal/metrics"
	"github.com/kailas-cloud/memberscout/internal/repository/embcache"
	memberrepo "github.com/kailas-cloud/memberscout/internal/repository/member"
	sessionrepo "github.com/kailas-cloud/memberscout/internal/repository/session"
	chiTransport "github.com/kailas-cloud/memberscout/internal/transport/chi"
	openaiT "github.com/kailas-cloud/memberscout/internal/transport/openai"
	discoveryuc "github.com/kailas-cloud/memberscout/internal/usecase/discovery"
	embeddinguc "github.com/kailas-cloud/memberscout/internal/usecase/embedding"
	extractuc "github.com/kailas-cloud/memberscout/internal/usecase/extract"
	healthuc "github.com/kailas-cloud/memberscout/internal/usecase/health"
	planuc "github.com/kailas-cloud/memberscout/internal/usecase/plan"
	retrieveuc "github.com/kailas-cloud/memberscout/internal/usecase/retrieve"
	"github.com/kailas-cloud/memberscout/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting memberscout API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
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

	if err := memberrepo.EnsureIndexes(ctx, store, cfg.Storage.VectorDim); err != nil {
		logger.Fatal("Failed to ensure search indexes", zap.Error(err))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	queryEmbedder, embeddingChecker := buildEmbedder(cfg.Embedding, store, logger)
	logger.Info("Query embedder created",
		zap.String("primary_model", cfg.Embedding.Primary.Model),
		zap.String("fallback_model", cfg.Embedding.Fallback.Model),
		zap.Int("dimensions", cfg.Embedding.Primary.Dimensions),
	)

	// LLM extraction stage; optional, rules carry the turn when absent.
	var intentLLM extractuc.IntentExtractor
	if cfg.Extraction.Provider.Model != "" {
		intentLLM = &timeoutIntentExtractor{
			inner: openaiT.NewIntentExtractor(&openaiT.IntentExtractorConfig{
				APIKey:  cfg.Extraction.Provider.APIKey,
				BaseURL: cfg.Extraction.Provider.BaseURL,
				Model:   cfg.Extraction.Provider.Model,
				Logger:  logger,
			}),
			timeout: time.Duration(cfg.Extraction.TimeoutSec) * time.Second,
		}
	} else {
		logger.Warn("No extraction provider configured, running rules-only extraction")
	}

	extractor := extractuc.NewExtractor(intentLLM, cfg.Extraction.ConfidenceThreshold, logger)
	planner := planuc.NewPlanner()
	memberRepo := memberrepo.New(store, logger)
	engine := retrieveuc.NewEngine(queryEmbedder, memberRepo, memberRepo, retrieveuc.EngineConfig{
		LexicalWeight:    cfg.Retrieval.LexicalWeight,
		VectorWeight:     cfg.Retrieval.VectorWeight,
		SingleSourceDamp: cfg.Retrieval.SingleSourceDamp,
		OverfetchFactor:  cfg.Retrieval.OverfetchFactor,
		SubSearchTimeout: time.Duration(cfg.Retrieval.SubSearchTimeoutMs) * time.Millisecond,
	}, logger)

	contextStore := buildContextStore(cfg.Session, store, logger)
	discovery := discoveryuc.NewService(contextStore, extractor, planner, engine, logger)

	healthSvc := healthuc.New(store, embeddingChecker)
	server := chiTransport.NewServer(discovery, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
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

// buildEmbedder assembles the decorator chain per provider:
// OpenAI -> Cached -> Instrumented, then primary/fallback on top.
func buildEmbedder(cfg config.EmbeddingConfig, store *dbRedis.Store, logger *zap.Logger) (domain.Embedder, healthuc.EmbeddingChecker) {
	var primaryBase *openaiT.Embedder

	build := func(p config.ProviderConfig) domain.Embedder {
		base := openaiT.NewEmbedder(&openaiT.EmbedderConfig{
			APIKey:     p.APIKey,
			BaseURL:    p.BaseURL,
			Model:      p.Model,
			Dimensions: p.Dimensions,
			Provider:   p.Name,
			Logger:     logger,
		})
		if primaryBase == nil {
			primaryBase = base
		}

		var embedder domain.Embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
		return embeddinguc.NewInstrumentedEmbedder(embedder, p.Name, p.Model, logger)
	}

	primary := build(cfg.Primary)

	var fallback domain.Embedder
	if cfg.Fallback.Model != "" {
		fallback = build(cfg.Fallback)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	return embeddinguc.NewFallbackEmbedder(primary, fallback, cfg.Fallback.Name, timeout, logger), primaryBase
}

// buildContextStore picks the session backend.
func buildContextStore(cfg config.SessionConfig, store *dbRedis.Store, logger *zap.Logger) discoveryuc.ContextStore {
	idleTTL := time.Duration(cfg.IdleTTLMin) * time.Minute
	switch cfg.Backend {
	case "redis":
		return sessionrepo.NewRedisStore(store, cfg.Window, idleTTL, logger)
	default:
		return sessionrepo.NewMemoryStore(cfg.Window, idleTTL)
	}
}

// timeoutIntentExtractor bounds each LLM extraction call.
type timeoutIntentExtractor struct {
	inner   extractuc.IntentExtractor
	timeout time.Duration
}

func (t *timeoutIntentExtractor) ExtractIntent(
	ctx context.Context, text string, recentQueries []string,
) (extractuc.LLMExtraction, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.ExtractIntent(ctx, text, recentQueries)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
