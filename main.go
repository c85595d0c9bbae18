package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"agency-backend/config"
	"agency-backend/controllers"
	"agency-backend/obs"
	"agency-backend/routes"
	"agency-backend/services"
)

const (
	serviceName = "agency-backend"
	version     = "0.1.0"
)

// newBootLogger logs before the configured logger exists.
func newBootLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("svc", serviceName).Logger()
}

func main() {
	// .env is optional
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := newBootLogger(os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := config.NewLogger(cfg)
	if envErr != nil {
		log.Info().Msg(".env not found or couldn't load it; continuing with environment variables")
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, version, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init tracer")
	}

	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	log.Info().Msg("database connection established and migrations applied")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	limiter := services.NewFixedWindowLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	go limiter.Run(ctx, 10*time.Minute)

	notifier := services.NewTelegramNotifier(services.TelegramConfig{
		BotToken: cfg.TelegramBotToken,
		ChatID:   cfg.TelegramChatID,
		APIURL:   cfg.TelegramAPIURL,
		Timeout:  cfg.NotifyTimeout,
	}, log)
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		log.Warn().Msg("Telegram is not configured; bookings will be stored without notifications")
	}

	bookingSvc := services.NewBookingService(services.NewGormBookingRepository(db), notifier, log)
	bookingSvc.Metrics = metrics
	bookingSvc.StoreTimeout = cfg.DBTimeout

	if cfg.RabbitURL != "" {
		pub, err := services.NewAMQPPublisher(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			log.Error().Err(err).Msg("booking events disabled")
		} else {
			defer pub.Close()
			bookingSvc.Events = pub
			log.Info().Str("exchange", cfg.EventsExchange).Msg("publishing booking events")
		}
	}

	bookingController := controllers.NewBookingController(bookingSvc, services.NewBookingValidator(), limiter, metrics, log)

	router := routes.SetupRouter(bookingController, routes.Options{
		CORSOrigins: cfg.CORSOrigins,
		Registry:    reg,
		Log:         log,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	<-ctx.Done()
	log.Warn().Msg("shutdown signal received, shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// let in-flight notifications finish before closing their dependencies
	bookingSvc.Wait()

	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("server stopped gracefully")
}
