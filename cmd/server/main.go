package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/api/handlers"
	"github.com/maheshrc27/postpilot/internal/api/middleware"
	job "github.com/maheshrc27/postpilot/internal/jobs"
	"github.com/maheshrc27/postpilot/internal/lock"
	"github.com/maheshrc27/postpilot/internal/queue"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/pkg/calendar"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	// Infrastructure settings are read once. Services read the rest per call.
	cfg := config.LoadConfig()
	var provider config.Provider = config.LoadConfig

	if _, err := calendar.ParsePattern(cfg.Posting.Days, cfg.Posting.Time, cfg.Posting.Timezone); err != nil {
		log.Fatalf("Invalid posting schedule: %v", err)
	}

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

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 5 * time.Minute,
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

	// generated images saved without R2
	app.Static("/generated", filepath.Join(cfg.PublicDir, "generated"))

	postRepo := repository.NewPostRepository(db)
	attemptRepo := repository.NewPublishAttemptRepository(db)
	contentRepo := repository.NewContentSourceRepository(db)

	r2Service := service.NewR2Service(provider)
	imageService := service.NewImageService(provider, r2Service)
	generatorService := service.NewGeneratorService(provider, contentRepo, service.NewOpenAIModel)
	postService := service.NewPostService(provider, postRepo, attemptRepo, generatorService, imageService, queue.NewEnqueuer(client))
	schedulerService := service.NewSchedulerService(provider, postRepo, postService, generatorService)
	facebookService := service.NewFacebookService(provider, service.NewFacebookClient(), postRepo, attemptRepo)
	contentService := service.NewContentService(provider, contentRepo)

	dispatchJob := job.NewDispatchJob(postRepo, facebookService, lock.NewRedisLock(rdb))
	scheduleWeekJob := job.NewScheduleWeekJob(schedulerService)

	cronHandler := handlers.NewCronHandler(dispatchJob)
	cronAuth := middleware.CronAuth(provider)
	app.Get("/api/cron/post", cronAuth, cronHandler.DispatchDue)
	app.Post("/api/cron/post", cronAuth, cronHandler.DispatchDue)

	authMiddleware := middleware.NewAuthMiddleware(provider)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, schedulerService, facebookService)
	api.Get("/posts", post.ListPosts)
	api.Delete("/posts", post.RemovePost)
	api.Get("/posts/next-slot", post.NextSlot)
	api.Get("/posts/attempts", post.ListAttempts)
	api.Post("/posts/generate", post.GeneratePost)
	api.Post("/posts/schedule-week", post.ScheduleWeek)
	api.Post("/posts/publish", post.PublishPost)

	content := handlers.NewContentHandler(contentService)
	api.Get("/content", content.ListContent)
	api.Post("/content/fetch", content.FetchContent)

	facebook := handlers.NewFacebookHandler(facebookService)
	api.Get("/facebook/verify", facebook.VerifyCredentials)

	// cron jobs
	c := cron.New()
	if err := c.AddFunc(cfg.DispatchCron, dispatchJob.RunScheduled); err != nil {
		log.Fatalf("Invalid DISPATCH_CRON %q: %v", cfg.DispatchCron, err)
	}
	if err := c.AddFunc(cfg.ScheduleWeekCron, scheduleWeekJob.Run); err != nil {
		log.Fatalf("Invalid SCHEDULE_WEEK_CRON %q: %v", cfg.ScheduleWeekCron, err)
	}
	c.Start()
	defer c.Stop()

	//queue
	queueW := queue.NewQueue(postRepo, postService, facebookService)

	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 5,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTypeAttachImage, queueW.HandleAttachImageTask)
	mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

	log.Println("Starting the Asynq server...")
	if err := server.Start(mux); err != nil {
		log.Fatalf("Could not start Asynq server: %v", err)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, server)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}
	server.Shutdown()

	log.Println("Server shutdown complete.")
}
