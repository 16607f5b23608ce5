package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/agenthands/districtlinker/internal/config"
	"github.com/agenthands/districtlinker/internal/logger"
	"github.com/agenthands/districtlinker/internal/observability"
	"github.com/agenthands/districtlinker/internal/qanary"
	"github.com/agenthands/districtlinker/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg, err := logger.New(cfg.Telemetry.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()
	if cfg.Telemetry.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.InitOTel(ctx, logg, cfg.Component.Name, cfg.Telemetry)
	if err != nil {
		logg.Fatal("failed to initialize tracing", "error", err)
	}

	components, err := server.NewComponents(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("failed to initialize pipeline", "error", err)
	}

	about := server.About{
		Name:        cfg.Component.Name,
		Description: cfg.Component.Description,
		Language:    cfg.Component.Language,
		StartedAt:   time.Now().UTC(),
	}
	srv := server.NewServer(components.Resolver, components.Stores, about, logg, components.Options()...)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.SetupRouter(),
	}

	if cfg.Registration.AdminURL != "" {
		reg := qanary.NewRegistration(cfg.Component.Name, cfg.Server.ServiceURL, map[string]string{
			"description": cfg.Component.Description,
			"language":    cfg.Component.Language,
		})
		registrar := qanary.NewRegistrar(cfg.Registration.AdminURL, cfg.Registration.Username, cfg.Registration.Password,
			cfg.Registration.Interval.Duration, reg, logg.With("component", "registrar"))
		go registrar.Run(ctx)
	}

	go func() {
		logg.Info("starting server", "port", cfg.Server.Port, "knowledge_graph", cfg.KnowledgeGraph.Endpoint)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("server shutdown failed", "error", err)
	}
	if err := components.Close(shutdownCtx); err != nil {
		logg.Error("failed to close memgraph driver", "error", err)
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logg.Error("failed to flush traces", "error", err)
	}
}
