package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TooLazyToCreate/passport-auth/config"
	"github.com/TooLazyToCreate/passport-auth/internal/hasher"
	"github.com/TooLazyToCreate/passport-auth/internal/metrics"
	appmiddleware "github.com/TooLazyToCreate/passport-auth/internal/middleware"
	"github.com/TooLazyToCreate/passport-auth/internal/repository"
	"github.com/TooLazyToCreate/passport-auth/internal/service"
	"github.com/TooLazyToCreate/passport-auth/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Stores struct {
	Users  repository.UserRepository
	Tokens repository.TokenRepository
}

type Components struct {
	Service  *service.AuthService
	Issuer   *token.Issuer
	Limiter  *appmiddleware.RateLimiter
	Metrics  *metrics.Collector
	Registry *prometheus.Registry
}

// Build wires the hasher, issuer, metrics and auth service on top of the given stores.
func Build(logger *zap.Logger, cfg *config.Config, stores Stores) (*Components, error) {
	h, err := hasher.New(hasher.Config{
		Algorithm:     cfg.Hasher.Algorithm,
		BcryptCost:    cfg.Hasher.BcryptCost,
		Argon2Time:    cfg.Hasher.Argon2.Time,
		Argon2Memory:  cfg.Hasher.Argon2.Memory,
		Argon2Threads: cfg.Hasher.Argon2.Threads,
	})
	if err != nil {
		return nil, err
	}

	users := stores.Users
	if cfg.UserCache.Size > 0 {
		users = repository.WithUserCache(logger, users, cfg.UserCache.Size, time.Duration(cfg.UserCache.TTL)*time.Second)
	}

	lifetime := time.Duration(cfg.Lifetime.AccessToken) * time.Second
	issuer, err := token.NewIssuer(logger, cfg.Secret, lifetime, users, stores.Tokens)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	authService, err := service.NewAuthService(logger, users, h, issuer, collector)
	if err != nil {
		return nil, err
	}

	limiter := appmiddleware.NewRateLimiter(logger, appmiddleware.RateLimiterConfig{
		PerMinute: cfg.RateLimit.PerMinute,
		Burst:     cfg.RateLimit.Burst,
	})

	return &Components{
		Service:  authService,
		Issuer:   issuer,
		Limiter:  limiter,
		Metrics:  collector,
		Registry: registry,
	}, nil
}

func NewRouter(logger *zap.Logger, cfg *config.Config, components *Components) http.Handler {
	router := chi.NewRouter()

	/* RealIP + StripPort выдают в RemoteAddr ip-адрес до переадресаций без порта.
	 * Заголовки прокси подделываются клиентом, поэтому RealIP только при trust_proxy */
	if cfg.TrustProxy {
		router.Use(middleware.RealIP)
	}
	router.Use(appmiddleware.StripPort)
	router.Use(appmiddleware.Recoverer(logger))

	/* Устанавливаем свой логгер запросов в дебаг режиме */
	if cfg.IsDev() {
		router.Use(appmiddleware.RequestLogger(logger))
	}

	authService := components.Service
	router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(components.Limiter.Middleware)
			r.Post("/register", authService.HandleRegister)
			r.Post("/login", authService.HandleLogin)
		})
		r.Group(func(r chi.Router) {
			r.Use(authService.Authenticate)
			r.Get("/get-user", authService.HandleUserInfo)
			r.Post("/logout", authService.HandleLogout)
		})
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler(components.Registry))

	return router
}

func openStores(ctx context.Context, logger *zap.Logger, cfg *config.Config) (Stores, func(), error) {
	if cfg.DatabaseUrl == "" {
		logger.Warn("DATABASE_URL is empty, users and tokens are kept in memory and lost on restart")
		return Stores{
			Users:  repository.NewMemoryUserRepository(),
			Tokens: repository.NewMemoryTokenRepository(),
		}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseUrl)
	if err != nil {
		return Stores{}, nil, fmt.Errorf("open database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return Stores{}, nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("Connected to database")

	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("Connection to database was closed with error", zap.Error(err))
		}
	}
	return Stores{
		Users:  repository.NewUserRepository(logger, db),
		Tokens: repository.NewTokenRepository(logger, db),
	}, closeDB, nil
}

// Run serves the API until ctx is cancelled, then shuts the server down gracefully.
func Run(ctx context.Context, logger *zap.Logger, cfg *config.Config) error {
	stores, closeStores, err := openStores(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	components, err := Build(logger, cfg, stores)
	if err != nil {
		return err
	}
	defer components.Limiter.Stop()

	sweeper, err := token.NewSweeper(logger, components.Issuer, cfg.Lifetime.Cleanup, components.Metrics)
	if err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	serverAddress := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           NewRouter(logger, cfg, components),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Will serve on " + serverAddress)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
