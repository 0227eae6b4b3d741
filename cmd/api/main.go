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

	"github.com/aulahub/exam-go-api/internal/config"
	"github.com/aulahub/exam-go-api/internal/database"
	"github.com/aulahub/exam-go-api/internal/handler"
	"github.com/aulahub/exam-go-api/internal/middleware"
	"github.com/aulahub/exam-go-api/internal/models"
	"github.com/aulahub/exam-go-api/internal/repository"
	"github.com/aulahub/exam-go-api/internal/router"
	"github.com/aulahub/exam-go-api/internal/service"
	"github.com/aulahub/exam-go-api/pkg/rooms"
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

	if err := db.AutoMigrate(
		&models.Assessment{},
		&models.Question{},
		&models.Option{},
		&models.Attempt{},
		&models.AttemptQuestion{},
		&models.Answer{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	var access service.RoomAccessChecker = service.AllowAllAccess{}
	if cfg.RoomsServiceURL != "" {
		access = rooms.NewClient(cfg.RoomsServiceURL, cfg.RoomsAPIToken, cfg.RoomsTimeout, logger)
	} else {
		logger.Warn().Msg("no rooms service configured; membership checks disabled")
	}

	var events service.EventSink = service.NoopEventSink{}
	if redisClient != nil || natsConn != nil {
		events = service.NewBrokerEventSink(redisClient, natsConn, cfg.EventChannelBase, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assessmentRepo := repository.NewAssessmentRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	answerRepo := repository.NewAnswerRepository(db)

	assessmentService := service.NewAssessmentService(assessmentRepo, attemptRepo, access, validate, logger)
	questionService := service.NewQuestionService(questionRepo, assessmentRepo, attemptRepo, access, validate, logger)
	attemptService := service.NewAttemptService(attemptRepo, assessmentRepo, questionRepo, answerRepo, access, events, validate, logger)
	gradingService := service.NewGradingService(attemptRepo, assessmentRepo, questionRepo, answerRepo, access, events, validate, logger)

	assessmentHandler := handler.NewAssessmentHandler(assessmentService, logger)
	questionHandler := handler.NewQuestionHandler(questionService, logger)
	attemptHandler := handler.NewAttemptHandler(attemptService, gradingService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler: assessmentHandler,
		QuestionHandler:   questionHandler,
		AttemptHandler:    attemptHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
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
