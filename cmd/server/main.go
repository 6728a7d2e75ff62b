package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/getbrandflow/brandflow/configs"
	"github.com/getbrandflow/brandflow/internal/api/handlers"
	"github.com/getbrandflow/brandflow/internal/api/middleware"
	"github.com/getbrandflow/brandflow/internal/engine"
	"github.com/getbrandflow/brandflow/internal/generation"
	job "github.com/getbrandflow/brandflow/internal/jobs"
	"github.com/getbrandflow/brandflow/internal/moderation"
	"github.com/getbrandflow/brandflow/internal/publisher"
	"github.com/getbrandflow/brandflow/internal/queue"
	"github.com/getbrandflow/brandflow/internal/repository"
	"github.com/getbrandflow/brandflow/internal/storage"
	"github.com/getbrandflow/brandflow/internal/trends"
	"github.com/getbrandflow/brandflow/pkg/secrets"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	cipher, err := secrets.NewCipher([]byte(cfg.SecretKey))
	if err != nil {
		log.Fatalf("Invalid secret key: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	brandRepo := repository.NewBrandRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	connectorRepo := repository.NewConnectorRepository(db)
	recordRepo := repository.NewPublishRecordRepository(db)
	assetRepo := repository.NewAssetRepository(db)

	store := storage.NewR2Store(*cfg)
	limiter := publisher.NewRateLimiter(connectorRepo)

	registry := publisher.NewRegistry(
		publisher.NewWebsitePublisher(store),
		publisher.NewFacebookPublisher(*cfg, connectorRepo, cipher, limiter),
		publisher.NewTwitterPublisher(*cfg, connectorRepo, cipher, limiter),
		publisher.NewLinkedinPublisher(*cfg, connectorRepo, cipher, limiter),
	)

	trendRegistry := trends.NewRegistry()
	for _, category := range []string{"news", "social", "search"} {
		trendRegistry.Register(trends.NewHTTPSource(category, cfg.GenerationAPIURL+"/v1/trends", cfg.GenerationAPIKey, cfg.PublishTimeout))
	}

	gate := moderation.NewGate(moderation.NewHTTPClassifier(cfg.ModerationAPIURL, cfg.ModerationAPIKey, cfg.PublishTimeout))
	genClient := generation.NewHTTPClient(cfg.GenerationAPIURL, cfg.GenerationAPIKey, cfg.PublishTimeout)
	scheduler := queue.NewScheduler(client)

	eng := engine.New(*cfg, brandRepo, draftRepo, topicRepo, variantRepo, connectorRepo,
		recordRepo, assetRepo, gate, genClient, registry, trendRegistry, scheduler)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	publish := handlers.NewPublishHandler(eng, draftRepo)
	api.Post("/publish", publish.PublishDraft)
	api.Post("/publish/all", publish.PublishAll)
	api.Post("/cleanup", publish.Cleanup)

	draft := handlers.NewDraftHandler(draftRepo, recordRepo)
	api.Get("/drafts", draft.ListDrafts)
	api.Get("/drafts/history", draft.DraftHistory)
	api.Post("/drafts/approve", draft.ApproveDraft)
	api.Post("/drafts/reject", draft.RejectDraft)

	brand := handlers.NewBrandHandler(eng, brandRepo)
	api.Get("/brands", brand.ListBrands)
	api.Post("/brands/:id/generate", brand.Generate)
	api.Post("/brands/:id/approve", brand.AutoApprove)

	topic := handlers.NewTopicHandler(eng, brandRepo, topicRepo)
	api.Post("/topics/discover", topic.Discover)
	api.Get("/topics", topic.ListTopics)

	connector := handlers.NewConnectorHandler(connectorRepo)
	api.Get("/connectors", connector.ListConnectors)
	api.Post("/connectors/remove", connector.RemoveConnector)

	asset := handlers.NewAssetHandler(assetRepo, store)
	api.Post("/assets/upload", asset.Upload)

	// cadence jobs; the runner guarantees no-overlap and single-node
	// execution per job
	refreshTokenJob := job.NewTokenRefreshJob(connectorRepo, registry, limiter, cfg.TokenRefreshLookahead)
	cadence := job.NewCadenceJobs(*cfg, brandRepo, eng)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.AddFunc("@every 6h00m00s", cadence.DiscoverTopics)
	c.AddFunc("0 0 8 * * *", cadence.GenerateContent)
	c.AddFunc("0 0 6,18 * * *", cadence.AutoApprove)
	c.AddFunc("0 0 4 * * 0", cadence.Cleanup)
	c.AddFunc("@every 00h15m00s", cadence.PublishDue)
	c.Start()

	// queue worker
	queueW := queue.NewWorker(eng)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishDraft, queueW.HandlePublishDraftTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
