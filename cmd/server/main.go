package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/mealmate/internal/analyzer"
	"github.com/Freeeeeet/mealmate/internal/app"
	"github.com/Freeeeeet/mealmate/internal/config"
	"github.com/Freeeeeet/mealmate/internal/controller"
	"github.com/Freeeeeet/mealmate/internal/controller/api"
	"github.com/Freeeeeet/mealmate/internal/repository"
	"github.com/Freeeeeet/mealmate/internal/repository/base"
	"github.com/Freeeeeet/mealmate/internal/service"
	"github.com/Freeeeeet/mealmate/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting mealmate",
		zap.String("environment", cfg.Environment),
		zap.String("match_mode", string(cfg.MatchMode)),
		zap.String("timezone", cfg.Timezone.String()),
		zap.Bool("ai_analysis", cfg.AnalyzerEnabled()),
		zap.Bool("image_store", cfg.ImageStoreEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Connected to database")

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	timetableRepo := repository.NewTimetableRepository(pool, logger)
	requestRepo := repository.NewMatchRequestRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	txManager := base.NewTxManager(pool, logger)

	// Collaborators
	var images storage.ImageStore = storage.Demo{}
	if cfg.ImageStoreEnabled() {
		s3Store, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("init image store: %w", err)
		}
		images = s3Store
	}

	var courseAnalyzer analyzer.Analyzer = analyzer.Sample{}
	if cfg.AnalyzerEnabled() {
		courseAnalyzer = analyzer.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.OpenAIModel, logger)
	}

	// Services
	userService := service.NewUserService(userRepo, logger)
	timetableService := service.NewTimetableService(userRepo, timetableRepo, txManager, images, courseAnalyzer, logger)
	matchService := service.NewMatchService(
		userRepo,
		timetableRepo,
		requestRepo,
		matchRepo,
		txManager,
		cfg.MatchMode,
		cfg.Timezone,
		logger,
	)

	scheduler := app.NewScheduler(func() app.PoolStats {
		st := pool.Stat()
		return app.PoolStats{
			Total:    st.TotalConns(),
			Idle:     st.IdleConns(),
			Acquired: st.AcquiredConns(),
			Max:      st.MaxConns(),
		}
	}, time.Minute, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	handlers := api.NewHandlers(userService, timetableService, matchService, pool, cfg.MaxUploadBytes, logger)
	httpController := controller.NewHTTPController(cfg.HTTPAddr, controller.NewRouter(handlers, cfg.CORSAllowedOrigins), logger)

	return httpController.Start(ctx)
}
