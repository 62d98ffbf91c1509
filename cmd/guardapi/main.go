// Command guardapi serves the tenant access guard together with login, identity
// and health endpoints.
//
// @title                       Tenant Guard API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i3m/tenant-guard/internal/api"
	"github.com/i3m/tenant-guard/internal/api/handler"
	"github.com/i3m/tenant-guard/internal/api/middleware"
	"github.com/i3m/tenant-guard/internal/core/service"
	"github.com/i3m/tenant-guard/internal/infrastructure/config"
	"github.com/i3m/tenant-guard/internal/infrastructure/db/mongo"
	"github.com/i3m/tenant-guard/internal/infrastructure/db/redis"
	"github.com/i3m/tenant-guard/internal/infrastructure/token"
	"github.com/i3m/tenant-guard/pkg/logger"
)

const limiterIdle = 10 * time.Minute

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "guardapi",
	})

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "guardapi",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() { _ = mongo.Disconnect(mongoClient, 5*time.Second) }()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: "guardapi",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer func() { _ = rdb.Close() }()

	// --- Dependencies ---
	userRepo := mongo.NewAuthRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}
	tenantRepo := mongo.NewTenantRepository(db)
	tenantCache := redis.NewTenantCache(rdb, cfg.Redis.TenantCacheTTL)
	revocations := redis.NewRevocationList(rdb)

	jwt := token.New(token.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Leeway:     cfg.JWT.Leeway,
	})

	tenantService := service.NewTenantService(tenantRepo, tenantCache, logger.Component("tenants"))
	authService := service.NewAuthService(userRepo, tenantService, jwt, revocations, logger.Component("auth"))
	rateLimiter := middleware.NewTenantRateLimiter(nil)

	e := api.NewRouter(api.Dependencies{
		Logger:      log,
		Verifier:    jwt,
		Revocations: revocations,
		Tenants:     tenantService,
		Auth:        authService,
		RateLimiter: rateLimiter,
		Health:      handler.NewHealthHandler(handler.MongoCheck(db), handler.RedisCheck(rdb)),
	})

	address := ":" + cfg.Port
	log.Info().Str("address", address).Str("env", cfg.Env).Msg("starting guardapi server")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(limiterIdle)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				rateLimiter.Sweep(limiterIdle)
			}
		}
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("shutdown error")
		os.Exit(1)
	}

	log.Info().Msg("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
