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
	"github.com/rs/zerolog"

	"github.com/praxis-lms/grading-api/internal/config"
	"github.com/praxis-lms/grading-api/internal/database"
	"github.com/praxis-lms/grading-api/internal/handler"
	"github.com/praxis-lms/grading-api/internal/middleware"
	"github.com/praxis-lms/grading-api/internal/models"
	"github.com/praxis-lms/grading-api/internal/repository"
	"github.com/praxis-lms/grading-api/internal/router"
	"github.com/praxis-lms/grading-api/internal/service"
	"github.com/praxis-lms/grading-api/pkg/events"
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
		&models.Course{},
		&models.CourseStaff{},
		&models.Exercise{},
		&models.StaticCodeAnalysisCategory{},
		&models.Participation{},
		&models.Submission{},
		&models.TestCase{},
		&models.Result{},
		&models.Feedback{},
		&models.Complaint{},
		&models.ComplaintResponse{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// The broker is optional: without it the service still grades, it just
	// stops emitting events and cross-instance feed updates.
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, continuing without events")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	exerciseRepo := repository.NewExerciseRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	testCaseRepo := repository.NewTestCaseRepository(db)
	resultRepo := repository.NewResultRepository(db)
	ingestionRepo := repository.NewIngestionRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	publisher := events.NewPublisher(natsConn, cfg.ResultEventSubject, logger)
	feedService := service.NewResultFeedService(natsConn, cfg.ResultEventSubject+".feed", logger)
	normalizer := service.NewFeedbackNormalizer(logger)

	ingestionService := service.NewResultIngestionService(
		participationRepo,
		testCaseRepo,
		resultRepo,
		ingestionRepo,
		normalizer,
		publisher,
		feedService,
		validate,
		cfg.IngestRetries,
		logger,
	)
	testCaseService := service.NewTestCaseService(testCaseRepo, exerciseRepo, resultRepo, validate, logger)
	complaintService := service.NewComplaintService(complaintRepo, resultRepo, validate, logger)
	leaderboardService := service.NewLeaderboardService(courseRepo, statisticsRepo, logger)
	statisticsService := service.NewStatisticsService(courseRepo, statisticsRepo, redisClient, cfg.StatisticsCacheTTL, logger)

	ciResultHandler := handler.NewCIResultHandler(ingestionService, logger)
	testCaseHandler := handler.NewTestCaseHandler(testCaseService, logger)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, leaderboardService, logger)
	complaintHandler := handler.NewComplaintHandler(complaintService, logger)
	resultFeedHandler := handler.NewResultFeedHandler(feedService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CIResultHandler:   ciResultHandler,
		TestCaseHandler:   testCaseHandler,
		StatisticsHandler: statisticsHandler,
		ComplaintHandler:  complaintHandler,
		ResultFeedHandler: resultFeedHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		CITokenMiddleware: middleware.CIToken(cfg.CIWebhookToken),
	})

	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	feedService.Start(feedCtx)

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
