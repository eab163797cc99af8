// Package app wires configuration, storage, services and the HTTP engine.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/jintaekimmm/cn-bis/internal/config"
	"github.com/jintaekimmm/cn-bis/internal/handler"
	"github.com/jintaekimmm/cn-bis/internal/middleware"
	"github.com/jintaekimmm/cn-bis/internal/service"
	"github.com/jintaekimmm/cn-bis/internal/storage"
)

// DBError represents a database-related error.
type DBError struct {
	Op  string
	Err error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("db error during %q: %v", e.Op, e.Err)
}

func (e *DBError) Unwrap() error { return e.Err }

// App holds the application-level dependencies.
type App struct {
	DB     *pgxpool.Pool
	Router *gin.Engine

	handler http.Handler
	limiter *middleware.RateLimiter
	logger  *zap.Logger
}

// New connects to PostGIS, ensures the schema and builds the HTTP engine.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, &DBError{Op: "parse_dsn", Err: err}
	}
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, &DBError{Op: "connect", Err: err}
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, &DBError{Op: "ping", Err: err}
	}
	logger.Info("database connection pool established", zap.Int32("max_conns", cfg.DB.MaxConns))

	if err := storage.RunMigrations(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, &DBError{Op: "migrate", Err: err}
	}

	proximity := cfg.Proximity()
	a := newApp(cfg, logger,
		storage.NewStationsRepository(pool, proximity),
		storage.NewRouteStopsRepository(pool, proximity),
	)
	a.DB = pool
	return a, nil
}

// newApp builds everything above the repositories.
func newApp(cfg *config.Config, logger *zap.Logger, stations storage.StationsRepository, stops storage.RouteStopsRepository) *App {
	search := service.NewSearchService(
		service.NewStationLocator(stations, stops),
		service.NewDestinationResolver(stops),
		service.WithLogger(logger.Named("search")),
		service.WithDefaultRadius(cfg.Search.RadiusMeters),
		service.WithDefaultDistrict(cfg.Search.DestinationDistrict),
	)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Named("http")))
	router.Use(middleware.Recovery(logger))

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		router.Use(limiter.Middleware())
	}
	router.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	handler.New(search).Register(router)

	// An empty origin list lets every origin through.
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})

	logger.Info("http engine ready",
		zap.String("proximity", cfg.Proximity().String()),
		zap.Float64("default_radius_m", cfg.Search.RadiusMeters),
		zap.String("default_district", cfg.Search.DestinationDistrict),
		zap.Bool("rate_limited", limiter != nil),
	)

	return &App{
		Router:  router,
		handler: c.Handler(gzhttp.GzipHandler(router)),
		limiter: limiter,
		logger:  logger,
	}
}

// Handler returns the engine wrapped with CORS and gzip.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Shutdown stops background work and closes the database pool.
func (a *App) Shutdown() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.DB != nil {
		a.DB.Close()
		a.logger.Info("database connection pool closed")
	}
}
