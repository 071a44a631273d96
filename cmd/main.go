package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/mehmetcc/agora/internal/admin"
	"github.com/mehmetcc/agora/internal/auth"
	"github.com/mehmetcc/agora/internal/config"
	"github.com/mehmetcc/agora/internal/course"
	"github.com/mehmetcc/agora/internal/guard"
	"github.com/mehmetcc/agora/internal/server"
	"github.com/mehmetcc/agora/internal/token"
	"github.com/mehmetcc/agora/internal/upstream"
	"go.uber.org/zap"
)

func main() {
	// init logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// load configuration
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// session token plumbing
	tokens := token.NewTokenService(logger, cfg.JWTConfig.Secret)
	g := guard.NewGuard(tokens, logger)

	// upstream clients share one http client
	httpClient := &http.Client{Timeout: cfg.UpstreamConfig.Timeout}
	users := upstream.NewUsersClient(cfg.UpstreamConfig, httpClient, logger)
	courses := upstream.NewCoursesClient(cfg.UpstreamConfig, httpClient, logger)
	search := upstream.NewSearchClient(cfg.UpstreamConfig, httpClient, logger)

	// handlers
	handlers := server.Handlers{
		Auth:    auth.NewAuthenticationHandler(users, g, cfg.CookieConfig, logger),
		Courses: course.NewCourseHandler(courses, users, search, g, logger),
		Admin:   admin.NewAdminHandler(courses, g, logger),
	}

	router := server.NewRouter(handlers, g, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.AppConfig.Port,
		Handler:      router,
		ReadTimeout:  cfg.AppConfig.ReadTimeout,
		WriteTimeout: cfg.AppConfig.WriteTimeout,
		IdleTimeout:  cfg.AppConfig.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("application started", zap.String("port", cfg.AppConfig.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppConfig.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
