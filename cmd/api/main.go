package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/sellside/storefront/internal/cart"
	"github.com/sellside/storefront/internal/catalog"
	"github.com/sellside/storefront/internal/common"
	"github.com/sellside/storefront/internal/config"
	"github.com/sellside/storefront/internal/db"
	"github.com/sellside/storefront/internal/health"
	"github.com/sellside/storefront/internal/obs"
	"github.com/sellside/storefront/internal/order"
	"github.com/sellside/storefront/internal/pricing"
	"github.com/sellside/storefront/internal/ratelimit"
	"github.com/sellside/storefront/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "storefront-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	engine := pricing.NewEngine(cfg.PricingPolicy())

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Repo:         catalog.NewRepo(pool),
		Cache:        catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		DefaultLimit: cfg.CatalogPageLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalogService)

	validator := cart.Validator{Catalog: catalogService}
	cartStore := cart.NewStore(redisClient, cfg.CartTTL)
	cartHandler := &cart.Handler{
		Store:       cartStore,
		Validator:   validator,
		Agg:         cart.Aggregator{Engine: engine},
		GuestCookie: cfg.GuestCartCookie,
		CookieTTL:   cfg.CartTTL,
	}

	orderService := &order.Service{
		Repo:      order.NewRepo(pool),
		Engine:    engine,
		Validator: validator,
	}
	orderHandler := &order.Handler{
		Svc:         orderService,
		CartStore:   cartStore,
		GuestCookie: cfg.GuestCartCookie,
		Log:         logger,
	}

	healthHandler := health.Handler{Checker: health.Probes{Pool: pool, Redis: redisClient}}

	writeLimiter := ratelimit.Middleware{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:"},
		Window:  cfg.WriteRateWindow,
		Max:     cfg.WriteRateMax,
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(common.Identity)
	r.Use(security.Headers{}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(httpMetrics.Middleware)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", common.UserIDHeader},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", catalogHandler.Products)
		r.Get("/products/{slug}", catalogHandler.ProductDetail)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(writeLimiter.Handler)
				r.Post("/quote", cartHandler.Quote)
				r.Put("/", cartHandler.Sync)
				r.Delete("/", cartHandler.Clear)
				r.Post("/items", cartHandler.AddItem)
				r.Patch("/items/{productId}", cartHandler.UpdateQuantity)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{id}", orderHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(writeLimiter.Handler)
				r.Post("/", orderHandler.Create)
				r.Post("/{id}/pay", orderHandler.MarkPaid)
			})
		})
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown http server")
	}
	logger.Info().Msg("stopped")
}
