package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/pixelpot/pixelpot-backend/api/routes"
	"github.com/pixelpot/pixelpot-backend/internal/config"
	"github.com/pixelpot/pixelpot-backend/internal/handlers"
	"github.com/pixelpot/pixelpot-backend/internal/repositories"
	memoryrepo "github.com/pixelpot/pixelpot-backend/internal/repositories/memory"
	mongorepo "github.com/pixelpot/pixelpot-backend/internal/repositories/mongodb"
	"github.com/pixelpot/pixelpot-backend/internal/services"
	mongodb "github.com/pixelpot/pixelpot-backend/pkg/mongodb"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Select the ledger driver. The memory driver keeps everything in-process
	// for local runs; mongodb is the durable default.
	var ledgerRepo repositories.LedgerRepository
	var mongoClient *mongodb.Client
	switch cfg.Storage.Driver {
	case "memory":
		ledgerRepo = memoryrepo.NewLedgerRepository(cfg.Game.BaseAmount)
	case "mongodb":
		mongoClient, err = mongodb.NewClient(cfg.MongoDB.URI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		db := mongoClient.Database(cfg.MongoDB.Database)
		repo := mongorepo.NewLedgerRepository(db, cfg.Game.BaseAmount)

		setupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = repo.Setup(setupCtx)
		cancel()
		if err != nil {
			log.Fatalf("Failed to set up ledger store: %v", err)
		}
		ledgerRepo = repo
	default:
		log.Fatalf("Unknown storage driver %q", cfg.Storage.Driver)
	}
	if mongoClient != nil {
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()
	}

	// Initialize services
	publisher := services.NewLogPublisher()
	targetService := services.NewTargetService(ledgerRepo, services.NewRandomCoordinateSource())
	gameService := services.NewGameService(ledgerRepo, targetService, publisher, cfg.Game)
	schedulerService := services.NewSchedulerService(ledgerRepo, publisher, cfg.Scheduler, cfg.Game)

	// Initialize handlers and router
	gameHandler := handlers.NewGameHandler(gameService, targetService, schedulerService)
	router := routes.SetupRouter(cfg, routes.HandlerDependencies{
		GameHandler: gameHandler,
	})

	// Start the periodic incrementer
	schedulerService.Start()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	slog.Info("Server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	schedulerService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	slog.Info("Server exiting")
}
