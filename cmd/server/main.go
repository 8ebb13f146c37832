package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/achievements/internal/config"
	"github.com/Dias221467/achievements/internal/database"
	"github.com/Dias221467/achievements/internal/handlers"
	"github.com/Dias221467/achievements/internal/metrics"
	"github.com/Dias221467/achievements/internal/notify"
	"github.com/Dias221467/achievements/internal/policy"
	"github.com/Dias221467/achievements/internal/repository"
	"github.com/Dias221467/achievements/internal/repository/memory"
	"github.com/Dias221467/achievements/internal/repository/postgres"
	"github.com/Dias221467/achievements/internal/router"
	"github.com/Dias221467/achievements/internal/services"
	"github.com/Dias221467/achievements/internal/storage"
	"github.com/Dias221467/achievements/pkg/email"
	"github.com/Dias221467/achievements/pkg/logger"
	"github.com/Dias221467/achievements/pkg/markdown"
	"github.com/Dias221467/achievements/pkg/middleware"
	"github.com/Dias221467/achievements/pkg/twitter"
	"github.com/rs/cors"
)

const listingPath = "/achievements"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid configuration")
	}

	logger.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Log.Info("Logger initialized")

	ctx := context.Background()

	// --- Repositories ---
	achievementRepo, userRepo, err := openStores(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Database connection error")
	}

	images, err := openImageStore(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Image storage error")
	}

	// --- Notifications ---
	var mailer notify.Mailer
	if cfg.SMTP.Enabled() {
		mailer = email.NewMailer(cfg.SMTP)
	} else {
		logger.Log.Warn("SMTP not configured, creation emails are skipped")
	}
	var poster notify.Poster
	if cfg.Twitter.Enabled() {
		poster = twitter.NewClient(cfg.Twitter)
	} else {
		logger.Log.Warn("Twitter credentials not configured, tweets are skipped")
	}
	dispatcher := notify.NewDispatcher(mailer, poster, metrics.Recorder{}, cfg.NotifyTimeout)

	// --- Services ---
	pol := policy.New(policy.Paths{Login: cfg.LoginPath, Listing: listingPath})
	achievementService := services.NewAchievementService(achievementRepo, userRepo, pol, images, markdown.NewRenderer(), dispatcher)
	userService := services.NewUserService(userRepo)

	// --- Handlers ---
	deps := router.Deps{
		Achievements: handlers.NewAchievementHandler(achievementService, listingPath),
		API:          handlers.NewAPIHandler(achievementService),
		Users:        handlers.NewUserHandler(userService, cfg),
		JWTSecret:    cfg.JWTSecret,
		LoginPath:    cfg.LoginPath,
		RateLimiter:  middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	}
	if cfg.StorageDriver == "local" {
		deps.UploadDir = cfg.UploadDir
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router.New(deps)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithField("port", cfg.Port).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}

	// let in-flight creation emails and tweets finish
	dispatcher.Wait()
	logger.Log.Info("Server stopped")
}

func openStores(ctx context.Context, cfg *config.Config) (repository.AchievementStore, repository.UserStore, error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := database.ConnectPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewAchievementRepository(db), postgres.NewUserRepository(db), nil

	case "memory":
		logger.Log.Warn("Using the in-memory store, data is lost on restart")
		store := memory.NewStore()
		return store, store, nil

	default:
		db, err := database.ConnectDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		achievements := repository.NewAchievementRepository(db)
		if err := achievements.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		users := repository.NewUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return achievements, users, nil
	}
}

func openImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.StorageDriver != "s3" {
		return storage.NewLocalStore(cfg.UploadDir), nil
	}
	return storage.NewS3Store(ctx, storage.S3Options{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		PublicURL: cfg.S3.PublicURL,
		PathStyle: cfg.S3.PathStyle,
	})
}
