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

	config "github.com/gcssytemsuser/socialai-backend/configs"
	"github.com/gcssytemsuser/socialai-backend/internal/api/handlers"
	"github.com/gcssytemsuser/socialai-backend/internal/api/middleware"
	"github.com/gcssytemsuser/socialai-backend/internal/dispatch"
	job "github.com/gcssytemsuser/socialai-backend/internal/jobs"
	"github.com/gcssytemsuser/socialai-backend/internal/platforms"
	"github.com/gcssytemsuser/socialai-backend/internal/queue"
	"github.com/gcssytemsuser/socialai-backend/internal/repository"
	"github.com/gcssytemsuser/socialai-backend/internal/scheduler"
	"github.com/gcssytemsuser/socialai-backend/internal/service"
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

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return origin == cfg.FrontendURL
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	platformPostRepo := repository.NewPlatformPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postingHistoryRepo := repository.NewPostingHistoryRepository(db)

	registry := platforms.NewRegistry(*cfg)
	dispatcher := dispatch.NewDispatcher(platformPostRepo, socialAccountRepo, postingHistoryRepo, registry, cfg.SecretKey, 60*time.Second)
	sched := scheduler.New(postRepo, dispatcher, nil)

	postService := service.NewPostService(db, postRepo, platformPostRepo, postingHistoryRepo, sched)
	accountService := service.NewAccountService(*cfg, socialAccountRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/remove", post.RemovePost)
	api.Post("/posts/schedule", post.SchedulePost)
	api.Post("/posts/unschedule", post.UnschedulePost)
	api.Post("/posts/publish", post.PublishNow)
	api.Get("/history", post.ListHistory)

	account := handlers.NewAccountHandler(accountService)
	api.Post("/accounts/connect", account.ConnectAccount)
	api.Get("/accounts", account.ListAccounts)
	api.Post("/accounts/remove", account.DisconnectAccount)

	// stale-claim recovery: once at boot, then on a cadence
	sweepJob := job.NewStaleSweepJob(postRepo, 15*time.Minute)
	sweepJob.Sweep()

	c := cron.New()
	c.AddFunc("@every 00h10m00s", sweepJob.Sweep)
	c.Start()

	if err := sched.Start(); err != nil {
		log.Fatalf("Could not start scheduler: %v", err)
	}
	defer sched.Stop()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		worker := queue.NewWorker(sched)
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeDispatchPost, worker.HandleDispatchPostTask)

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
