package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/voicekey/server/internal/api"
	"github.com/satriahrh/voicekey/server/internal/auth"
	"github.com/satriahrh/voicekey/server/internal/websocket"
	"github.com/satriahrh/voicekey/server/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port for the server (overrides PORT)")
}

func serve(ctx context.Context) error {
	// Initialize logger
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize adapters
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	analyzer, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// Initialize usecase services
	authService := usecase.NewAuthService(store, tokens, logger)
	securityService := usecase.NewSecurityService(analyzer, store, logger)

	if user, authenticated, err := authService.CurrentUser(ctx); err != nil {
		logger.Warn("Failed to restore stored user", zap.Error(err))
	} else if user != nil {
		logger.Info("Restored registered user", zap.String("userID", user.ID), zap.Bool("authenticated", authenticated))
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(cfg.Recorder(), logger)
	go hub.Run()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, hub, authService, securityService, logger)

	cleanup := usecase.NewSessionCleanupService(authService, usecase.DefaultCleanupInterval, logger)
	cleanup.Start()
	defer cleanup.Stop()

	addr := ":" + strconv.Itoa(cfg.Port)
	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	logger.Info("Server started",
		zap.Int("port", cfg.Port),
		zap.String("store", cfg.StoreBackend),
		zap.String("analyzer", cfg.Analyzer))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		hub.Shutdown()
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Server is shutting down...")

	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
