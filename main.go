package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/config"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/handler"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/middleware"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/pkg/logger"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/service"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	minioSvc, err := service.NewMinioService(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize MINIO service", "error", err)
		os.Exit(1)
	}
	if err := minioSvc.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure MINIO bucket", "error", err)
		os.Exit(1)
	}

	// an absent API key means image content degrades to empty text
	var ocr service.Recognizer
	if cfg.OCR.APIKey != "" {
		ocr = service.NewVisionService(&cfg.OCR)
	} else {
		slog.Warn("no OCR API key configured, image text recognition disabled")
	}

	store, cleanup, err := newStore(&cfg.Store)
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	generator := service.NewOpenAIService(&cfg.OpenAI)
	extractor := service.NewExtractor(ocr)
	pipeline := service.NewPipeline(store, minioSvc, extractor, generator)

	jobHandler := handler.NewJobHandler(minioSvc, pipeline, store)
	scoreHandler := handler.NewScoreHandler(store)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(100, time.Minute))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/upload", jobHandler.Upload)
		api.POST("/generate", jobHandler.Generate)
		api.GET("/content/:id", jobHandler.Content)
		api.GET("/jobs", jobHandler.List)
		api.DELETE("/jobs/:id", jobHandler.Delete)
		api.GET("/user-scores", scoreHandler.List)
		api.POST("/save-score", scoreHandler.Save)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute, // generation runs inside the request
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// newStore selects the persistence backend by config driver. The cleanup
// func closes sqlite; the memory store has nothing to release.
func newStore(cfg *config.StoreConfig) (service.Store, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := service.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "", "memory":
		return service.NewMemoryStore(cfg), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
