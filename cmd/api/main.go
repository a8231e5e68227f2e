package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/vaxportal/booking-api/internal/config"
	"github.com/vaxportal/booking-api/internal/handler"
	assignmentHandler "github.com/vaxportal/booking-api/internal/handler/assignment"
	bookingHandler "github.com/vaxportal/booking-api/internal/handler/booking"
	healthHandler "github.com/vaxportal/booking-api/internal/handler/health"
	slotHandler "github.com/vaxportal/booking-api/internal/handler/slot"
	"github.com/vaxportal/booking-api/internal/middleware"
	"github.com/vaxportal/booking-api/internal/repository/postgres"
	"github.com/vaxportal/booking-api/internal/router"
	assignmentService "github.com/vaxportal/booking-api/internal/service/assignment"
	bookingService "github.com/vaxportal/booking-api/internal/service/booking"
	slotService "github.com/vaxportal/booking-api/internal/service/slot"
	"github.com/vaxportal/booking-api/pkg/auth"
	"github.com/vaxportal/booking-api/pkg/metrics"
)

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// The API only talks to the broker indirectly through the outbox; this
	// client exists so readiness can report the broker's actual state.
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid Redis URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Repositories
	slotRepo := postgres.NewSlotRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	staffRepo := postgres.NewStaffRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	centerRepo := postgres.NewCenterRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	m := metrics.NewMetrics("vaxportal", "booking_api")

	// Services
	bookingSvc := bookingService.NewService(slotRepo, bookingRepo, outboxRepo, log.Logger, m)
	slotSvc := slotService.NewService(slotRepo, centerRepo, outboxRepo, log.Logger)
	assignmentSvc := assignmentService.NewService(staffRepo, assignmentRepo, slotRepo, log.Logger)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, cfg.JWT.Issuer)
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	// Handlers
	h := handler.NewHandler()
	bookingH := bookingHandler.NewHandler(bookingSvc)
	slotH := slotHandler.NewHandler(slotSvc)
	assignmentH := assignmentHandler.NewHandler(assignmentSvc)
	healthH := healthHandler.NewHandler(db, redisClient)

	r := router.NewRouter(
		authMiddleware,
		bookingH,
		slotH,
		assignmentH,
		healthH,
		h,
		router.RouterConfig{
			RateLimit:     rate.Limit(cfg.HTTP.RateLimitRPS),
			RateBurst:     cfg.HTTP.RateLimitBurst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "booking_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting booking API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.TimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
