package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fcs-go-api/internal/config"
	"github.com/noah-isme/fcs-go-api/internal/database"
	"github.com/noah-isme/fcs-go-api/internal/handler"
	"github.com/noah-isme/fcs-go-api/internal/middleware"
	"github.com/noah-isme/fcs-go-api/internal/models"
	"github.com/noah-isme/fcs-go-api/internal/repository"
	"github.com/noah-isme/fcs-go-api/internal/router"
	"github.com/noah-isme/fcs-go-api/internal/service"
	"github.com/noah-isme/fcs-go-api/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Student{}, &models.CounselingLog{}, &models.SystemConfig{}, &models.ActivityLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("no redis url configured, trend cache and roster fan-out run locally")
	}

	var natsConn *nats.Conn
	if cfg.NATSAddress != "" {
		natsConn, err = nats.Connect(cfg.NATSAddress)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	logRepo := repository.NewCounselingLogRepository(db)
	configRepo := repository.NewSystemConfigRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	store := session.NewStore(cfg.UnlockDeniedWindow, navigationLogger{logger: logger}, logger)

	rosterService := service.NewRosterService(studentRepo, redisClient, cfg.EventChannelBase, natsConn, logger)
	authService := service.NewAuthService(configRepo, store, cfg.JWTSecret, cfg.BootstrapAdminKey, cfg.BootstrapUnlockKey, logger)
	recordingService := service.NewRecordingService(logRepo, studentRepo, store, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	adminService := service.NewAdminService(studentRepo, logRepo, configRepo, rosterService, redisClient, cfg.TrendCacheTTL, activityService, validate, service.SeedDefaults{
		AdminKey:     cfg.BootstrapAdminKey,
		UnlockKey:    cfg.BootstrapUnlockKey,
		StudentID:    cfg.SeedStudentID,
		StudentName:  cfg.SeedStudentName,
		StudentClass: cfg.SeedStudentClass,
	}, logger)

	rootCtx, stopServices := context.WithCancel(context.Background())
	defer stopServices()
	rosterService.Start(rootCtx)

	authHandler := handler.NewAuthHandler(authService, store, validate, logger)
	sessionHandler := handler.NewSessionHandler(recordingService, store, validate, logger)
	studentHandler := handler.NewStudentHandler(rosterService, recordingService, store, validate, logger)
	adminHandler := handler.NewAdminHandler(adminService, authService, activityService, rosterService, store, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:    authHandler,
		SessionHandler: sessionHandler,
		StudentHandler: studentHandler,
		AdminHandler:   adminHandler,
		Store:          store,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// navigationLogger satisfies the store's navigation guard on the server
// side, where there is no history stack to manipulate; transitions are
// logged so connected terminals can be audited against them.
type navigationLogger struct {
	logger zerolog.Logger
}

func (n navigationLogger) PinLocation() {
	n.logger.Info().Msg("navigation pinned to lock screen")
}

func (n navigationLogger) ResetLocation() {
	n.logger.Info().Msg("navigation reset to login")
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
