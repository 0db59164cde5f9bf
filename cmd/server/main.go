package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/sentriq/sentriq-backend/internal/api/middleware"
	"github.com/sentriq/sentriq-backend/internal/api/rest"
	"github.com/sentriq/sentriq-backend/internal/api/websocket"
	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/config"
	"github.com/sentriq/sentriq-backend/internal/groups"
	"github.com/sentriq/sentriq-backend/internal/identity"
	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
	"github.com/sentriq/sentriq-backend/internal/pkg/redact"
	"github.com/sentriq/sentriq-backend/internal/pkg/tracing"
	"github.com/sentriq/sentriq-backend/internal/platform"
	"github.com/sentriq/sentriq-backend/internal/repository"
	"github.com/sentriq/sentriq-backend/internal/service"
	"github.com/sentriq/sentriq-backend/internal/telemetry"
	"github.com/sentriq/sentriq-backend/migrations"
)

func main() {
	log := logger.StdLogger()
	log.Info("sentriq backend starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Error("loading config", "error", err)
		os.Exit(1)
	}
	log.Info("configuration loaded",
		"port", cfg.Port,
		"driver", cfg.DatabaseDriver,
		"dsn", redact.DSN(cfg.DatabaseDSN),
		"platform", cfg.PlatformBaseURL)

	if cfg.OTLPEndpoint != "" {
		shutdown, err := tracing.Init("sentriq-backend", cfg.OTLPEndpoint, 1.0)
		if err != nil {
			log.Warn("tracing init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	repo, store, err := openDatabase(cfg)
	if err != nil {
		log.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	platformTimeout := time.Duration(cfg.PlatformTimeoutSec) * time.Second
	platformClient := platform.NewClient(cfg.PlatformBaseURL, cfg.PlatformAPIKey, platformTimeout, cfg.PlatformRetries)

	groupResolver := groups.NewResolver(repo, platformClient, platformTimeout)
	evaluator := authz.NewEvaluator(groupResolver, platformClient)
	identityResolver := identity.NewResolver(cfg.JWTSecret, repo)

	dispatcher := service.NewDispatcher(store)
	agentDetail := service.NewAgentDetailService(evaluator, dispatcher, platformClient)
	overview := service.NewOverviewService(evaluator, dispatcher)
	manage := service.NewManageService(repo, platformClient)
	modbus := service.NewModbusService(store)

	wsHub := websocket.NewHub(ctx)
	go wsHub.Run()
	wsHandler := websocket.NewHandler(ctx, wsHub, identityResolver, cfg.AllowedOrigins)

	router := mux.NewRouter()

	healthz := rest.NewHealthzHandler(repo)
	router.HandleFunc("/healthz/live", healthz.Live).Methods("GET")
	router.HandleFunc("/healthz/ready", healthz.Ready).Methods("GET")
	router.Handle("/metrics", rest.MetricsHandler()).Methods("GET")
	router.HandleFunc("/ws/modbus", wsHandler.ServeModbus).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	rest.NewAuthHandler(repo, identityResolver, cfg.JWTSecret).RegisterRoutes(apiRouter)
	rest.NewAgentDetailHandler(identityResolver, agentDetail, overview).RegisterRoutes(apiRouter)
	rest.NewModbusHandler(identityResolver, modbus, wsHub).RegisterRoutes(apiRouter)
	rest.NewManageHandler(identityResolver, manage).RegisterRoutes(apiRouter)

	oidcHandler, err := rest.NewOIDCHandler(cfg, repo)
	if err != nil {
		log.Warn("OIDC disabled", "error", err)
	}
	oidcHandler.RegisterRoutes(apiRouter)

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.SecureHeaders)
	router.Use(middleware.RateLimit())
	router.Use(middleware.MaxBodySize(middleware.DefaultStandardMaxBodyBytes, middleware.DefaultIngestMaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.StructuredLog)
	router.Use(middleware.AuditLog(repo))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})

	requestTimeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	wsHub.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", "error", err)
	}
	log.Info("server exited")
}

// openDatabase opens the configured driver, runs migrations, and builds the
// telemetry store on the same handle.
func openDatabase(cfg *config.Config) (repository.Repository, telemetry.Store, error) {
	migrationSQL, err := migrations.All()
	if err != nil {
		return nil, nil, fmt.Errorf("reading migrations: %w", err)
	}

	switch cfg.DatabaseDriver {
	case "postgres":
		repo, err := repository.NewPostgresRepository(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.RunMigrations(migrationSQL); err != nil {
			repo.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		return repo, telemetry.NewSQLStore(repo.DB()), nil
	default:
		repo, err := repository.NewSQLiteRepository(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.RunMigrations(migrationSQL); err != nil {
			repo.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		return repo, telemetry.NewSQLStore(repo.DB()), nil
	}
}
