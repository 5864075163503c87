package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"video-analyzer/api/rest/routes"
	"video-analyzer/config"
	"video-analyzer/core/batch"
	"video-analyzer/core/pipeline"
	"video-analyzer/core/repository"
	"video-analyzer/core/scoring"
	"video-analyzer/providers/analysis"
	"video-analyzer/providers/media"
	"video-analyzer/providers/youtube"
	"video-analyzer/storage"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg := config.Load()
	ctx := context.Background()

	// Database is optional; without it the service runs in-memory only
	var db *repository.DB
	if cfg.DatabaseURL != "" {
		db, err = repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			log.Fatalw("failed to run migrations", "error", err)
		}
		log.Info("database connected")
	} else {
		log.Warn("DATABASE_URL not set, persistence disabled")
	}

	// YouTube providers
	ytClient := youtube.NewClient(cfg.YouTubeAPIKey)
	if cfg.YouTubeAPIKey == "" {
		log.Warn("YOUTUBE_API_KEY not set, ingestion will fail")
	}

	// Report exporter: S3 when a bucket is configured, local files otherwise
	var exporter pipeline.Exporter
	if cfg.S3Bucket != "" {
		s3Exporter, err := storage.NewS3Exporter(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
		if err != nil {
			log.Fatalw("failed to initialize s3 exporter", "error", err)
		}
		exporter = s3Exporter
		log.Infow("exporting reports to s3", "bucket", cfg.S3Bucket)
	} else {
		exporter = storage.NewLocalExporter(cfg.ExportDir)
		log.Infow("exporting reports to local directory", "dir", cfg.ExportDir)
	}

	providers := pipeline.Providers{
		Ingestor:        youtube.NewIngestor(ytClient, log),
		SignalAnalyzer:  youtube.NewSignalAnalyzer(ytClient, log),
		Transcriber:     analysis.NewTranscriber(log),
		TextAnalyzer:    analysis.NewTextAnalyzer(log),
		PolicyChecker:   analysis.NewPolicyChecker(log),
		TrendMiner:      youtube.NewTrendMiner(ytClient, log),
		ChannelAnalyzer: youtube.NewChannelAnalyzer(ytClient, log),
		Recommender:     analysis.NewRecommender(log),
		Reporter:        analysis.NewReporter(log),
		Exporter:        exporter,
	}

	orchestrator := pipeline.NewOrchestrator(providers, scoring.NewEngine(), pipeline.Options{
		StageTimeout: cfg.StageTimeout,
		MaxRetries:   cfg.MaxRetries,
	}, log)

	downloader := media.NewDownloader(log)
	downloader.Path = cfg.YtdlpPath

	processor := batch.NewProcessor(orchestrator, downloader, media.NewProcessor(log), batch.Options{
		MaxConcurrent: cfg.MaxConcurrent,
		MinScore:      cfg.MinScore,
		OutputDir:     cfg.OutputDir,
	}, log)

	r := mux.NewRouter()
	routes.SetupRoutes(r, orchestrator, processor, db, log)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Infow("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}
