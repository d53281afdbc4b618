package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"fidelis/internal/authority"
	"fidelis/internal/config"
	"fidelis/internal/handler"
	"fidelis/internal/heuristic"
	"fidelis/internal/metrics"
	"fidelis/internal/nfe"
	"fidelis/internal/repository/postgres"
	"fidelis/internal/router"
	"fidelis/internal/service"
	"fidelis/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Log.Level == "debug" {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	m := metrics.New()

	// Initialize the validation pipeline
	resolver := authority.NewResolver(&cfg.Resolver, m)
	for _, p := range cfg.Resolver.Providers() {
		log.Printf("registry provider enabled: %s", p.Name)
	}
	engine := validator.NewEngine(
		nfe.NewExtractor(cfg.Resolver.MaxWindows),
		resolver,
		heuristic.NewEngine(heuristic.PolicyFromConfig(&cfg.Heuristics)),
		m,
		cfg.Resolver.GeneratedKeyProbes,
	)
	engine.SetProbeBudget(cfg.Resolver.ProbeBudget())

	// Initialize repositories and services
	validationRepo := postgres.NewInvoiceValidationRepo(db)
	authSvc := service.NewAuthService(cfg.JWT)
	validationSvc := service.NewValidationService(engine, validationRepo)

	// Initialize handlers
	validationH := handler.NewValidationHandler(validationSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(authSvc, validationH, healthH, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
