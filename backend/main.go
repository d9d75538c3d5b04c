package main

import (
	"log"

	"quizmaster/backend/cache"
	"quizmaster/backend/config"
	"quizmaster/backend/flatstore"
	"quizmaster/backend/maintenance"
	"quizmaster/backend/middleware"
	"quizmaster/backend/migration"
	"quizmaster/backend/routes"
	"quizmaster/backend/store"
	"quizmaster/backend/syncqueue"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	// Initialize database
	db, err := store.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Flat key-value storage (legacy data, sync queue, archives)
	flat, err := flatstore.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("Error initializing flat store: %v", err)
	}

	readCache := cache.New(cfg.CacheCapacity, cfg.CacheTTL)
	defer readCache.Close()

	queue, err := syncqueue.New(flat, syncqueue.NewLogTransport(logger), logger, syncqueue.Options{
		ProbeURL:      cfg.SyncProbeURL,
		ProbeInterval: cfg.SyncProbeInterval,
		ProbeTimeout:  cfg.SyncProbeTimeout,
	})
	if err != nil {
		log.Fatalf("Error initializing sync queue: %v", err)
	}
	queue.Start()
	defer queue.Close()

	recordStore := store.New(db, readCache, queue, logger)
	if err := recordStore.SeedAchievements(); err != nil {
		log.Fatalf("Error seeding achievements: %v", err)
	}

	// The legacy migration runs ahead of all other access.
	runner := migration.NewRunner(recordStore, flat, logger)
	if err := runner.Run(); err != nil {
		log.Fatalf("Error migrating legacy data: %v", err)
	}

	maintSvc := maintenance.NewService(recordStore, flat, readCache, maintenance.Options{
		SessionRetention: cfg.SessionRetention,
		AttemptRetention: cfg.AttemptRetention,
		ArchiveEnabled:   cfg.ArchiveEnabled,
	})

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		Store:       recordStore,
		Sync:        queue,
		Maintenance: maintSvc,
		Cfg:         cfg,
	})

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
