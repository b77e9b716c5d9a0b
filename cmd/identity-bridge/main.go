// Command identity-bridge serves employees to the identity provider as
// federated users.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"employee-directory/internal/bridge"
	"employee-directory/internal/config"
	"employee-directory/internal/db"
	"employee-directory/internal/handlers"
	"employee-directory/internal/logging"
	"employee-directory/internal/metrics"
	"employee-directory/internal/middleware"
	"employee-directory/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("missing required env: DATABASE_URL")
	}

	logger := logging.New(cfg.LogLevel, cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.BridgeSharedSecret == "" {
			logger.Warn("BRIDGE_SHARED_SECRET is empty; user endpoints are unauthenticated")
		}
	}
	if cfg.BridgeLegacyPlaintext {
		logger.Warn("Legacy plaintext password validation is enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		ApplicationName: "identity-bridge",
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
	})
	if err != nil {
		logger.WithError(err).Fatal("Database connection failed")
	}
	defer pool.Close()

	provider := bridge.NewEmployeeProvider(repository.NewEmployeeRepository(pool), bridge.ProviderConfig{
		ComponentID:     cfg.BridgeComponentID,
		LegacyPlaintext: cfg.BridgeLegacyPlaintext,
	}, logger)

	m := metrics.New("identity-bridge")
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(logger), middleware.RequestLogger(logger, m))
	r.GET("/health", handlers.Health(pool))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	bridge.NewHandler(provider, cfg.BridgeSharedSecret, logger).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.BridgePort,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.BridgePort).Info("Identity bridge listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}
