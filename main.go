package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/clarifaisql/engine/pkg/config"
	"github.com/clarifaisql/engine/pkg/database"
	"github.com/clarifaisql/engine/pkg/handlers"
	"github.com/clarifaisql/engine/pkg/llm"
	"github.com/clarifaisql/engine/pkg/logging"
	"github.com/clarifaisql/engine/pkg/middleware"
	"github.com/clarifaisql/engine/pkg/repositories"
	"github.com/clarifaisql/engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Local development convenience; missing .env is not an error
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("addr", cfg.Addr()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("feedback_db", cfg.Database.Path))

	if err := database.RunMigrations(cfg.Database.Path, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open feedback database", zap.Error(err))
	}
	defer db.Close()

	feedbackRepo := repositories.NewFeedbackRepository(db)

	generator, err := llm.NewQueryGenerator(&cfg.LLM, logger)
	if err != nil {
		logger.Fatal("Failed to create query generator", zap.Error(err))
	}
	queryService := services.NewQueryService(generator, logger)

	mux := http.NewServeMux()

	admin := middleware.RequireAdminSecret(cfg.AdminSecret)
	handlers.NewHealthHandler(cfg, feedbackRepo, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(queryService, logger).RegisterRoutes(mux)
	handlers.NewFeedbackHandler(feedbackRepo, logger).RegisterRoutes(mux, admin)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.AdminSecretHeader},
	})

	handler := corsMiddleware.Handler(middleware.RequestLogger(logger)(mux))

	logger.Info("Starting clarifaisql-engine",
		zap.String("addr", cfg.Addr()),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(cfg.Addr(), handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
