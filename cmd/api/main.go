package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/clhstestify/online-judge/internal/config"
	"github.com/clhstestify/online-judge/internal/database"
	"github.com/clhstestify/online-judge/internal/handler"
	"github.com/clhstestify/online-judge/internal/middleware"
	"github.com/clhstestify/online-judge/internal/repository"
	"github.com/clhstestify/online-judge/internal/router"
	"github.com/clhstestify/online-judge/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	contestRepo := repository.NewContestRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	contestSubmissionRepo := repository.NewContestSubmissionRepository(db)
	paperRepo := repository.NewPaperRepository(db)
	responseRepo := repository.NewResponseRepository(db)

	scoringService := service.NewScoringService(participationRepo, contestRepo, contestSubmissionRepo, paperRepo, responseRepo, logger)
	examService := service.NewExamService(participationRepo, paperRepo, responseRepo, scoringService, logger, nil)
	paperService := service.NewPaperService(paperRepo, logger)
	violationService := service.NewViolationService(participationRepo, logger)
	resolverService := service.NewResolverService(contestRepo, participationRepo, contestSubmissionRepo, redisClient, cfg.ScoreboardCacheTTL, nil, logger)

	examHandler := handler.NewExamHandler(examService, logger)
	paperHandler := handler.NewPaperHandler(paperService, logger)
	violationHandler := handler.NewViolationHandler(violationService, logger)
	resolverHandler := handler.NewResolverHandler(resolverService, logger)
	contestHandler := handler.NewContestHandler(contestRepo, scoringService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ExamHandler:      examHandler,
		PaperHandler:     paperHandler,
		ViolationHandler: violationHandler,
		ResolverHandler:  resolverHandler,
		ContestHandler:   contestHandler,
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
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
