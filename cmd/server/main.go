// @title           MVATS Backend API
// @version         2.0.0
// @description     Backend API for the Multi-Video & Audio Tagging System. Handles media uploads, runs the external classification model on them and serves the resulting tags.

// @contact.name   API Support
// @contact.email  support@example.com

// @host      localhost:8080
// @BasePath  /

package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mvats-backend/internal/config"
	"mvats-backend/internal/database"
	"mvats-backend/internal/handlers"
	"mvats-backend/internal/inference"
	"mvats-backend/internal/pipeline"
	"mvats-backend/internal/storage"
	"mvats-backend/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set. Migrations will be skipped.")
		log.Println("Please set DATABASE_URL environment variable with your PostgreSQL connection string")
	}

	// Create database client and run migrations
	var dbClient *database.Client
	if cfg.DatabaseURL != "" {
		dbClient, err = database.NewClient(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize database client: %v", err)
			log.Println("Database operations will be limited. Please configure DATABASE_URL properly.")
			dbClient = nil
		} else {
			defer dbClient.Close()

			migrator, err := database.NewMigrator(cfg.DatabaseURL)
			if err != nil {
				log.Printf("Warning: Failed to initialize migrator: %v", err)
			} else {
				defer migrator.Close()
				if err := migrator.Run(); err != nil {
					log.Printf("Warning: Migration failed: %v", err)
				} else {
					log.Println("Migrations completed successfully")
				}
			}
		}
	}

	// Select the blob store backend
	var blobStore pipeline.BlobStore
	if cfg.StorageBackend == "supabase" {
		blobStore, err = supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
		if err != nil {
			log.Fatalf("Failed to initialize Supabase storage client: %v", err)
		}
	} else {
		blobStore, err = storage.NewDiskStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("Failed to initialize disk storage: %v", err)
		}
	}

	// Realtime events are published when Supabase is configured
	var events pipeline.Publisher
	if cfg.SupabaseURL != "" && cfg.SupabasePublishableKey != "" {
		realtimeClient, err := supabase.NewRealtimeClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Supabase realtime client: %v", err)
		} else {
			events = realtimeClient
		}
	}

	// Initialize the inference client and the ingestion pipeline
	inferenceClient := inference.NewClient(cfg.InferenceURL, cfg.InferenceTimeout)

	var ingestPipeline *pipeline.Pipeline
	if dbClient != nil {
		ingestPipeline = pipeline.New(blobStore, dbClient, inferenceClient, events)
	} else {
		log.Println("Warning: Ingestion pipeline not available without a database.")
	}

	// Initialize handlers (the store might be nil, handlers handle this)
	var recordStore handlers.RecordStore
	if dbClient != nil {
		recordStore = dbClient
	}
	uploadHandler := handlers.NewUploadHandler(ingestPipeline, cfg.MaxUploadSize)
	mediaHandler := handlers.NewMediaHandler(recordStore)
	tagsHandler := handlers.NewTagsHandler(recordStore)

	// Setup router
	router := gin.Default()

	// CORS for the Flutter client
	router.Use(cors.Default())

	// Health check
	router.GET("/health", handlers.HealthHandler)

	// Upload and queries
	router.POST("/video/upload", uploadHandler.Upload)
	router.GET("/video", mediaHandler.ListMedia)
	router.GET("/video/:media_id", mediaHandler.GetMedia)
	router.GET("/video/:media_id/tags", mediaHandler.GetMediaTags)

	// Tag records
	router.GET("/tags", tagsHandler.ListTags)
	router.GET("/tags/:tag_id", tagsHandler.GetTag)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
