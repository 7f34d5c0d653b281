package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propsearch/internal/config"
	"propsearch/internal/handler"
	"propsearch/internal/repository"
	"propsearch/internal/retriever"
	"propsearch/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("Property Search Service")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("✅ Connected to PostgreSQL database")

	// Initialize AI client
	aiClient := service.NewAIClient(&cfg.AI)
	if cfg.AI.Enabled {
		log.Printf("✅ AI client initialized")
		log.Printf("   - API Base: %s", cfg.AI.APIBase)
		log.Printf("   - Chat models: %v", cfg.AI.ChatModels)
		log.Printf("   - Embedding model: %s", cfg.AI.EmbeddingModel)
		log.Printf("   - Embedding dimensions: %d", cfg.AI.EmbeddingDimensions)
	} else {
		log.Println("⚠️  AI is disabled - search will return 503 until a key is configured")
		log.Println("   Set AI_API_KEY or GOOGLE_API_KEY environment variable to enable search")
	}

	// Initialize services
	ret := retriever.New(repo.DB(), aiClient)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ret.Initialize(ctx); err != nil {
			log.Printf("⚠️  Vector index not available: %v", err)
			log.Println("   Search endpoints will return 503 until the index is loaded")
			return
		}
		log.Println("✅ Vector index loaded")
	}()

	extractor := service.NewExtractor(aiClient, cfg.AI.ChatModels)
	searchService := service.NewSearchService(ret, extractor, repo)

	log.Println("✅ Services initialized")

	// Initialize handlers
	searchHandler := handler.NewSearchHandler(
		searchService,
		cfg.Search.DefaultK,
		cfg.Search.MaxK,
		cfg.Search.DefaultTemperature,
		cfg.Search.ListDefaultLimit,
		cfg.Search.ListMaxLimit,
	)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", searchHandler.Health)

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/search", searchHandler.Search)
		apiV1.POST("/search/raw", searchHandler.RawSearch)
		apiV1.GET("/properties", searchHandler.ListProperties)
		apiV1.GET("/properties/:id", searchHandler.GetProperty)
		apiV1.GET("/stats", searchHandler.Stats)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API base: http://localhost:%d/api/v1", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
