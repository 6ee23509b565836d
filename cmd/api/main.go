package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alfredoptarigan/assignment-grader/internal/bootstrap"
	"alfredoptarigan/assignment-grader/internal/config"
	"alfredoptarigan/assignment-grader/internal/handlers"
	applog "alfredoptarigan/assignment-grader/internal/logger"
	"alfredoptarigan/assignment-grader/internal/repositories"
	"alfredoptarigan/assignment-grader/internal/services"
)

func main() {
	cfg := config.Load()
	log := applog.New(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Str("env", cfg.Server.Env).Msg("Config loaded")

	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	batchRepo := repositories.NewBatchRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.ReportPath)
	if err := storageService.EnsureDirs(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage directories")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rubric := bootstrap.RubricSource(ctx, cfg, log)
	pipeline := bootstrap.Pipeline(cfg, rubric, log)

	evaluator := services.NewBatchEvaluator(
		batchRepo,
		storageService,
		pipeline,
		services.NewXLSXRenderer(),
		log,
	)

	worker := services.NewWorker(
		batchRepo,
		evaluator,
		services.WorkerOptions{
			Concurrency:    cfg.Worker.Concurrency,
			PollInterval:   cfg.Worker.PollInterval,
			FallbackAPIKey: cfg.Grader.APIKey,
		},
		log,
	)
	worker.Start(ctx)

	uploadHandler := handlers.NewUploadHandler(
		batchRepo,
		storageService,
		worker,
		cfg.Storage.MaxFileSize,
		cfg.Grader.APIKey,
		log,
	)
	resultHandler := handlers.NewResultHandler(batchRepo)

	app := fiber.New(fiber.Config{
		AppName:      "Assignment Grader API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxBatchBytes),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.APIKeyHeader,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/batches", uploadHandler.HandleCreateBatch)
	api.Get("/batches/:id", resultHandler.HandleGetBatch)
	api.Get("/batches/:id/report", resultHandler.HandleDownloadReport)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Assignment Grader API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/batches",
				"GET /api/v1/batches/:id",
				"GET /api/v1/batches/:id/report",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Shutting down server")
		worker.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("Server starting")

	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
