package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagesnap/concert-app/internal/api"
	"stagesnap/concert-app/internal/config"
	"stagesnap/concert-app/internal/geocode"
	"stagesnap/concert-app/internal/media"
	"stagesnap/concert-app/internal/recognition"
	"stagesnap/concert-app/internal/repository/mongo"
	"stagesnap/concert-app/internal/service"
	"stagesnap/concert-app/internal/setlist"
	"stagesnap/concert-app/internal/storage"

	"github.com/gin-gonic/gin"
)

// @title StageSnap API
// @version 1.0
// @description API for uploading concert videos and browsing auto-matched concerts and setlists.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting StageSnap Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute) // Timeout for index creation
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureArtistIndexes(ctx, appDB.Collection("artists"))
		mongo.EnsureVenueIndexes(ctx, appDB.Collection("venues"))
		mongo.EnsureConcertIndexes(ctx, appDB.Collection("concerts"))
		mongo.EnsureSongIndexes(ctx, appDB.Collection("songs"))
		mongo.EnsureVideoIndexes(ctx, appDB.Collection("videos"))
		mongo.EnsureAttendeeIndexes(ctx, appDB.Collection("attendees"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	artistRepo := mongo.NewMongoArtistRepository(appDB)
	venueRepo := mongo.NewMongoVenueRepository(appDB)
	concertRepo := mongo.NewMongoConcertRepository(appDB)
	songRepo := mongo.NewMongoSongRepository(appDB)
	videoRepo := mongo.NewMongoVideoRepository(appDB)
	attendeeRepo := mongo.NewMongoAttendeeRepository(appDB)

	// --- Initialize External Clients ---
	log.Println("Initializing external clients...")
	geocoder := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent)
	eventSource := setlist.NewClient(cfg.Setlist.BaseURL, cfg.Setlist.APIKey)
	recognizer := recognition.NewClient(cfg.Recognition.BaseURL, cfg.Recognition.APIToken)
	extractor := media.NewExtractor(geocoder)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	setlistService := service.NewSetlistService(songRepo, eventSource)
	concertService := service.NewConcertService(concertRepo, venueRepo, artistRepo, songRepo, videoRepo, attendeeRepo, eventSource, setlistService, cfg.Matching)
	songService := service.NewSongService(videoRepo, songRepo, recognizer, cfg.Matching)
	ingestService := service.NewIngestService(videoRepo, artistRepo, venueRepo, fileStorage, extractor, concertService, songService)
	videoService := service.NewVideoService(videoRepo, fileStorage)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, ingestService, videoService, concertService)

	// --- Start HTTP Server ---
	server := newHTTPServer(cfg.Server.Address, router)

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

// newHTTPServer bounds only the header read. Uploads stream multi-hundred-MB
// bodies through the server and the pipeline then waits on external services,
// so body read and response write deadlines would cut off slow but healthy
// uploads; per-request deadlines live in the outbound clients instead.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
