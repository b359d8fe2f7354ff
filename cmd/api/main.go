package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ElYoussoupha/TonToumaBot/internal/api/router"
	"github.com/ElYoussoupha/TonToumaBot/internal/artifacts"
	appconfig "github.com/ElYoussoupha/TonToumaBot/internal/config"
	"github.com/ElYoussoupha/TonToumaBot/internal/conversation"
	"github.com/ElYoussoupha/TonToumaBot/internal/http/handlers"
	"github.com/ElYoussoupha/TonToumaBot/internal/lam"
	"github.com/ElYoussoupha/TonToumaBot/internal/language"
	"github.com/ElYoussoupha/TonToumaBot/internal/observability/metrics"
	"github.com/ElYoussoupha/TonToumaBot/internal/rag"
	"github.com/ElYoussoupha/TonToumaBot/internal/scheduling"
	"github.com/ElYoussoupha/TonToumaBot/internal/speech"
	"github.com/ElYoussoupha/TonToumaBot/internal/translate"
	"github.com/ElYoussoupha/TonToumaBot/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting tontouma API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create db pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	chatMetrics := metrics.NewChatMetrics(prometheus.DefaultRegisterer)
	settings := language.NewSettings(cfg.GlobalLanguage)

	// Translation bridge with Redis-backed cache.
	var cache *translate.Cache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		cache = translate.NewCache(redis.NewClient(opts))
	}

	lamClient := lam.NewClient(cfg.LAMBaseURL, cfg.LAMUsername, cfg.LAMPassword, logger)
	var bridge *translate.Bridge
	if lamClient.Configured() {
		bridge = translate.NewBridge(lamClient, cache, cfg.BridgeLanguage, cfg.ProcessingLanguage, logger)
	} else {
		logger.Warn("LAfricaMobile not configured, translation bridge disabled")
	}

	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)

	// Audio artifact storage: S3 when a bucket is configured, local disk
	// otherwise.
	var artifactStore artifacts.Store
	if cfg.ArtifactS3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, "")),
		)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		artifactStore = artifacts.NewS3Store(s3.NewFromConfig(awsCfg), cfg.ArtifactS3Bucket)
	} else {
		fsStore, err := artifacts.NewFSStore(cfg.ArtifactDir, cfg.ArtifactDir)
		if err != nil {
			logger.Error("failed to create artifact dir", "error", err)
			os.Exit(1)
		}
		artifactStore = fsStore
	}

	// Speech gateway: the Wolof specialists front the general-purpose
	// providers.
	var bridgeSTT speech.Transcriber
	var bridgeTTS speech.Synthesizer
	if lamClient.Configured() {
		bridgeSTT = speech.NewWolofTranscriber(lamClient)
		bridgeTTS = speech.NewWolofSynthesizer(lamClient)
	}
	speechGateway := speech.NewGateway(speech.GatewayConfig{
		BridgeTranscriber:  bridgeSTT,
		GeneralTranscriber: speech.NewWhisperTranscriber(openaiClient, cfg.WhisperModelID),
		BridgeSynthesizer:  bridgeTTS,
		GeneralSynthesizer: speech.NewOpenAISynthesizer(openaiClient, cfg.TTSModelID, cfg.TTSVoice),
		BridgeLanguage:     cfg.BridgeLanguage,
		Artifacts:          artifactStore,
		Metrics:            chatMetrics,
		Logger:             logger,
		Timeout:            cfg.ProviderTimeout,
		Retries:            cfg.ProviderRetries,
	})

	// LLM.
	gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = gemini.Close() }()
	llm := conversation.NewFallbackLLMClient(gemini, nil, chatMetrics, logger)

	// Scheduling and tools.
	schedulingRepo := scheduling.NewRepository(pool)
	scheduler := scheduling.NewService(schedulingRepo, chatMetrics, logger)
	toolset := conversation.NewToolset(scheduler, chatMetrics, logger)

	convStore := conversation.NewStore(pool)
	engine := conversation.NewEngine(llm, toolset, convStore, cfg.GeminiModelID, chatMetrics, logger)

	conversations := conversation.NewService(conversation.ServiceConfig{
		Entities:           conversation.NewEntityStore(pool),
		Store:              convStore,
		Engine:             engine,
		Bridge:             bridge,
		Speech:             speechGateway,
		Embedder:           rag.NewOpenAIEmbedder(openaiClient, cfg.EmbeddingModel),
		Retriever:          rag.NewPGRetriever(pool),
		Settings:           settings,
		Artifacts:          artifactStore,
		TopK:               cfg.RAGTopK,
		ProcessingLanguage: cfg.ProcessingLanguage,
		Logger:             logger,
	})

	r := router.New(&router.Config{
		Logger:          logger,
		Chat:            handlers.NewChatHandler(conversations, logger),
		AdminLanguage:   handlers.NewAdminLanguageHandler(settings, logger),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
