package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/collegedash/college_dashboard/internal/apperr"
	"github.com/collegedash/college_dashboard/internal/config"
	"github.com/collegedash/college_dashboard/internal/es"
	"github.com/collegedash/college_dashboard/internal/events"
	"github.com/collegedash/college_dashboard/internal/handlers"
	"github.com/collegedash/college_dashboard/internal/logging"
	"github.com/collegedash/college_dashboard/internal/service/token"
	httpserver "github.com/collegedash/college_dashboard/internal/transport/http"
)

const collegesIndex = "colleges"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	prod := events.NewProducer([]string{cfg.KAFKA_ADDRESS})

	var esClient *elasticsearch.Client
	if cfg.ES_URL != "" {
		esClient, err = es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	} else {
		logger.Warn("ES_URL not set, college search disabled")
	}

	tokens := &token.Service{
		DB:            db,
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		Production:    cfg.IsProduction(),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		DB:              db,
		Tokens:          tokens,
		AuthHandler:     &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		CollegeHandler:  &handlers.CollegeHandler{DB: db, ES: esClient, Index: collegesIndex},
		ReviewHandler:   &handlers.ReviewHandler{DB: db, Producer: prod},
		FavoriteHandler: &handlers.FavoriteHandler{DB: db, Producer: prod},
		UserHandler:     &handlers.UserHandler{DB: db},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP_PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
