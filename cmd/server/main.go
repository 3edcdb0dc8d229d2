package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spotmap/spot-api/internal/audit"
	"github.com/spotmap/spot-api/internal/config"
	"github.com/spotmap/spot-api/internal/database"
	"github.com/spotmap/spot-api/internal/handler"
	"github.com/spotmap/spot-api/internal/jobs"
	"github.com/spotmap/spot-api/internal/metrics"
	"github.com/spotmap/spot-api/internal/middleware"
	"github.com/spotmap/spot-api/internal/redis"
	"github.com/spotmap/spot-api/internal/repository"
	"github.com/spotmap/spot-api/internal/service"
)

const serviceName = "spot-api"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// A .env file is optional and only used for local runs.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("database connected")

	ctx, cancel = context.WithTimeout(context.Background(), config.DBPingTimeout)
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	metrics.MustRegister(prometheus.DefaultRegisterer, serviceName)

	sessionRepo := repository.NewSessionRepository(redisClient.Client, cfg.SessionKeyPrefix)
	userRepo := repository.NewUserRepository(db.DB, cfg.UsersTable)
	eventRepo := repository.NewEventRepository(db.DB, cfg.EventsTable)

	recorder := audit.NewRecorder(eventRepo)
	defer recorder.Wait()

	sessionService := service.NewSessionService(sessionRepo, recorder, cfg.SessionLifespan())
	oauthService := service.NewOAuthService(
		cfg, userRepo, sessionService, recorder,
		service.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthHTTPTimeout()),
	)
	profileService := service.NewProfileService(userRepo)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	sessionMiddleware := middleware.NewSessionMiddleware(sessionService, cfg.SameSite())
	loginLimitMiddleware := middleware.NewIPRateLimitMiddleware(rateLimiter, cfg.LoginRateLimitPerMin, time.Minute, "login")
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(oauthService, sessionService)
	profileHandler := handler.NewProfileHandler(profileService)
	healthHandler := handler.NewHealthHandler(config.DBPingTimeout, map[string]handler.Pinger{
		"postgres": db.Ping,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(config.GlobalRateLimitPerMin, time.Minute))
		r.Use(audit.Middleware)

		r.With(loginLimitMiddleware.Handler, sessionMiddleware.Handler).Get("/login/{service}", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware.Handler)
			r.Get("/auth/{service}", authHandler.Callback)
			r.Get("/logout", authHandler.Logout)
			r.Get("/profile", profileHandler.Get)
		})
	})

	if cfg.EventRetentionDays > 0 {
		cleanupJob := jobs.NewCleanupJob(eventRepo, cfg.EventRetention(), config.CleanupJobInterval)
		cleanupJob.Start()
		defer cleanupJob.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("unknown LOG_LEVEL, using info")
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
