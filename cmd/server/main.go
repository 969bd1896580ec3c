package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Metalzoid/mon-view-grimoire-backend/internal/config"
	"github.com/Metalzoid/mon-view-grimoire-backend/internal/database"
	"github.com/Metalzoid/mon-view-grimoire-backend/internal/handlers"
	"github.com/Metalzoid/mon-view-grimoire-backend/internal/images"
	"github.com/Metalzoid/mon-view-grimoire-backend/internal/middleware"
	"github.com/Metalzoid/mon-view-grimoire-backend/internal/storage"
	"github.com/Metalzoid/mon-view-grimoire-backend/pkg/logger"
	"github.com/Metalzoid/mon-view-grimoire-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.UploadsDir, 0o755); err != nil {
		log.Fatalf("failed creating uploads directory: %v", err)
	}

	imageStore, err := storage.New(cfg.Storage, cfg.MinIO)
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}
	if minioStore, ok := imageStore.(*storage.MinIO); ok {
		if err := minioStore.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("failed ensuring minio bucket: %v", err)
		}
	}

	processor := images.NewProcessor(cfg.Server.ImageMaxSide, cfg.Server.ImageQuality)

	authHandler := handlers.NewAuthHandler(db)
	booksHandler := handlers.NewBooksHandler(db, imageStore, processor, cfg.Storage.UploadsDir)
	imagesHandler := handlers.NewImagesHandler(imageStore)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/images/:filename", imagesHandler.Serve)

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)

	bookRoutes := api.Group("/books")
	bookRoutes.Get("/", booksHandler.List)
	bookRoutes.Get("/bestrating", booksHandler.BestRating)
	bookRoutes.Get("/:id", booksHandler.Get)
	bookRoutes.Post("/", authMiddleware.RequireAuth, booksHandler.Create)
	bookRoutes.Post("/:id/rating", authMiddleware.RequireAuth, booksHandler.Rate)
	bookRoutes.Put("/:id", authMiddleware.RequireAuth, booksHandler.Update)
	bookRoutes.Delete("/:id", authMiddleware.RequireAuth, booksHandler.Delete)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
		"storage": cfg.Storage.Backend,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
