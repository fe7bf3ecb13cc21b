package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lunaria/gallery-backend/internal/config"
	"github.com/lunaria/gallery-backend/internal/handlers"
	"github.com/lunaria/gallery-backend/internal/middleware"
	"github.com/lunaria/gallery-backend/internal/models"
	"github.com/lunaria/gallery-backend/internal/services"
	"github.com/lunaria/gallery-backend/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize storage provider
	var blobs storage.Provider
	switch cfg.StorageType {
	case "s3":
		blobs, err = storage.NewS3Provider(cfg)
		if err != nil {
			log.Fatalf("Failed to init S3 storage: %v", err)
		}
	default:
		blobs = storage.NewLocalProvider(cfg.LocalStoragePath, cfg.LocalPublicURL)
	}
	log.Printf("Storage backend: %s", blobs.Type())

	// Initialize services
	authService := services.NewAuthService(db, cfg)
	cacheService := services.NewCacheService(redisClient, cfg.GalleryCacheTTL)
	galleryService := services.NewGalleryService(db, blobs, cacheService)
	geocoder := services.NewGeocodeService(cfg)
	ingestService := services.NewIngestService(galleryService, blobs, geocoder)

	// Create admin account if not exists
	if err := authService.EnsureDefaultAdmin(); err != nil {
		log.Printf("Failed to create default admin: %v", err)
	}

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg)
	galleryHandler := handlers.NewGalleryHandler(ingestService, galleryService, cacheService, cfg)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Serve local originals and thumbnails directly
	if cfg.StorageType == "local" {
		router.Static("/static", cfg.LocalStoragePath)
	}

	// Setup routes
	api := router.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		// Public gallery listing
		api.GET("/gallery", galleryHandler.List)

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(authService))
		admin.Use(middleware.AdminOnly())
		{
			admin.POST("/gallery/batch", galleryHandler.BatchUpload)
			admin.POST("/gallery/upload", galleryHandler.Upload)
			admin.POST("/gallery/bulk-update", galleryHandler.BulkUpdate)
			admin.POST("/gallery/bulk-delete", galleryHandler.BulkDelete)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // large multipart batches
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
