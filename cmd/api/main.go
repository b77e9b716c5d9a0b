// Command api serves the employee directory REST API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "employee-directory/docs"
	"employee-directory/internal/auth"
	"employee-directory/internal/config"
	"employee-directory/internal/db"
	"employee-directory/internal/handlers"
	"employee-directory/internal/logging"
	"employee-directory/internal/metrics"
	"employee-directory/internal/middleware"
	"employee-directory/internal/password"
	"employee-directory/internal/repository"
	"employee-directory/internal/router"
	"employee-directory/internal/services"

	"github.com/gin-gonic/gin"
)

// @title						Employee Directory API
// @version					1.0
// @description				Employee records with token based access control.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		ApplicationName: "employee-api",
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
	})
	if err != nil {
		logger.WithError(err).Fatal("Database connection failed")
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.WithError(err).Fatal("Schema setup failed")
	}

	issuer := ""
	if cfg.VerifyIssuer {
		issuer = cfg.Issuer()
	}
	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		PublicKey:  cfg.RealmPublicKey,
		HMACSecret: cfg.JWTSecret,
		Issuer:     issuer,
	})
	if err != nil {
		logger.WithError(err).Fatal("Token verifier setup failed")
	}

	m := metrics.New("employee-api")
	repo := repository.NewEmployeeRepository(pool)
	employeeService := services.NewEmployeeService(repo, password.NewBcryptHasher(cfg.BcryptCost), logger)
	authService := services.NewAuthService(services.AuthConfig{
		TokenURL:     cfg.TokenEndpoint(),
		ClientID:     cfg.KeycloakClientID,
		ClientSecret: cfg.KeycloakClientSecret,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	router.Setup(r, router.Deps{
		Logger:         logger,
		Metrics:        m,
		Auth:           middleware.NewAuthMiddleware(verifier, auth.DefaultPolicy(cfg.KeycloakClientID), m, logger),
		Employees:      handlers.NewEmployeeHandler(employeeService, m, cfg.MaxUploadBytes, logger),
		Login:          handlers.NewAuthHandler(authService, logger),
		DB:             pool,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Employee API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server error")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}
