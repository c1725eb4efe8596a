package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/autopost/configs"
	"github.com/maheshrc27/autopost/internal/api"
	job "github.com/maheshrc27/autopost/internal/jobs"
	"github.com/maheshrc27/autopost/internal/logging"
	"github.com/maheshrc27/autopost/internal/models"
	"github.com/maheshrc27/autopost/internal/queue"
	"github.com/maheshrc27/autopost/internal/repository"
	"github.com/maheshrc27/autopost/internal/service"
	"github.com/maheshrc27/autopost/pkg/utils"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout))

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		})
		if err != nil {
			log.Fatalf("sentry.Init: %s", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	cipher, err := utils.NewTokenCipher([]byte(cfg.SecretKey))
	if err != nil {
		log.Fatalf("Invalid secret key: %v", err)
	}

	clk := clock.New()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	youtubePostRepo := repository.NewYoutubePostRepository(db)
	facebookPostRepo := repository.NewFacebookPostRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	userRepo := repository.NewUserRepository(db)

	var r2Service *service.R2Service
	if cfg.R2.PublicURL != "" && cfg.R2.BucketName != "" {
		r2Service, err = service.NewR2Service(context.Background(), *cfg)
		if err != nil {
			log.Fatalf("Failed to set up R2: %v", err)
		}
	}

	tokenService := service.NewTokenService(*cfg, channelRepo, cipher, httpClient, clk)
	mediaService := service.NewMediaService(httpClient, r2Service)
	youtubeService := service.NewYoutubeService(*cfg, httpClient)
	facebookService := service.NewFacebookService(*cfg, httpClient)
	usageService := service.NewUsageService(userRepo, clk)

	youtubePublisher := queue.NewPublisher[*models.YoutubePost](
		models.PlatformYoutube,
		youtubePostRepo,
		queue.NewYoutubeWorker(channelRepo, tokenService, mediaService, youtubeService, cipher, clk),
		queue.NewLimiter(cfg.Scheduler.Concurrency),
		clk,
	)
	facebookPublisher := queue.NewPublisher[*models.FacebookPost](
		models.PlatformFacebook,
		facebookPostRepo,
		queue.NewFacebookWorker(channelRepo, facebookService, cipher, clk),
		queue.NewLimiter(cfg.Scheduler.Concurrency),
		clk,
	)

	scheduler := job.NewScheduler(clk, cfg.Scheduler.Interval, usageService, youtubePublisher, facebookPublisher)
	if cfg.Scheduler.AutoStart {
		scheduler.Start()
	}

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(channelRepo, tokenService, clk)

	c := cron.New()
	if err := c.AddFunc(cfg.Scheduler.TokenRefreshSpec, refreshTokenJob.RefreshTokens); err != nil {
		log.Fatalf("Invalid token refresh schedule: %v", err)
	}
	c.Start()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(logger.New())

	api.Register(app, *cfg, scheduler)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("Server is running", "port", cfg.Port)

	gracefulShutdown(app, scheduler, c, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, scheduler *job.Scheduler, c *cron.Cron, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	c.Stop()
	scheduler.Stop()

	if err := app.Shutdown(); err != nil {
		slog.Error("Failed to shut down server", "error", err)
	}

	closeDB(db)
	slog.Info("Server shutdown complete.")
}
