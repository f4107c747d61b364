package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/clinicalrxq/member-portal/api/routes"
	"github.com/clinicalrxq/member-portal/internal/auth"
	"github.com/clinicalrxq/member-portal/internal/members"
	"github.com/clinicalrxq/member-portal/internal/resources"
	"github.com/clinicalrxq/member-portal/pkg/airtable"
	"github.com/clinicalrxq/member-portal/pkg/auth/session"
	"github.com/clinicalrxq/member-portal/pkg/config"
	"github.com/clinicalrxq/member-portal/pkg/env"
	"github.com/clinicalrxq/member-portal/pkg/instance"
	"github.com/clinicalrxq/member-portal/pkg/kv"
	"github.com/clinicalrxq/member-portal/pkg/logger"
	"github.com/clinicalrxq/member-portal/pkg/metrics"
	"github.com/clinicalrxq/member-portal/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]string{"env": cfg.App.Env, "instance": instance.ID()},
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store     kv.Store
		readiness interface{ Ping(context.Context) error }
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg.Component("kv"))
		if err != nil {
			return err
		}
		store, readiness = redisClient, redisClient
	} else {
		logg.Warn(ctx, "redis not configured, using in-process state store")
		store = kv.NewMemory()
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics := metrics.NewStoreMetrics(reg)

	runtime := airtable.NewRuntimeConfig(store, airtable.RuntimeOptionsFromConfig(cfg.Airtable), logg)
	client, err := airtable.NewClient(runtime, append(airtable.OptionsFromConfig(cfg.Airtable),
		airtable.WithLogger(logg.Component("airtable")),
		airtable.WithMetrics(storeMetrics),
	)...)
	if err != nil {
		return err
	}
	resolver := airtable.NewResolver(runtime, client, airtable.NewStateCache(store),
		airtable.WithMetadataTTL(cfg.Airtable.MetaCacheTTL),
		airtable.WithResolverLogger(logg.Component("schema")),
		airtable.WithResolverMetrics(storeMetrics),
	)

	sessionManager, err := session.NewManager(store, cfg.JWT)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Members:         members.NewRepository(resolver, client),
		SessionManager:  sessionManager,
		JWTConfig:       cfg.JWT,
		UpdateLastLogin: cfg.Airtable.UpdateLastLogin,
		Logger:          logg,
	})
	if err != nil {
		return err
	}
	resourceService := resources.NewService(resolver, client, logg)

	addr := ":" + env.Get("PORT", cfg.App.Port)
	logCtx := logg.WithFields(ctx, map[string]any{
		"addr":    addr,
		"base_id": runtime.BaseID(ctx),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, reg, metrics.NewHTTPMetrics(reg), store, readiness, sessionManager,
			authService, resourceService, client, runtime, resolver),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
