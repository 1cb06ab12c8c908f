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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/svm-engineering/storefront/internal/config"
	"github.com/svm-engineering/storefront/internal/es"
	"github.com/svm-engineering/storefront/internal/handlers"
	"github.com/svm-engineering/storefront/internal/logging"
	"github.com/svm-engineering/storefront/internal/middleware/ratelimit"
	"github.com/svm-engineering/storefront/internal/mykafka"
	"github.com/svm-engineering/storefront/internal/service/search"
	"github.com/svm-engineering/storefront/internal/service/token"
	httpserver "github.com/svm-engineering/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	var searchSvc *search.Service
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		} else {
			searchSvc = search.New(esClient, "products")
		}
	}

	tokens := &token.Service{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}

	limiter := ratelimit.New(rate.Limit(20), 40, jwtSecret)
	defer limiter.Close()

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     configuration.CORSOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := logging.IntoContext(req.Context(), logger.With(
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		DB:              db,
		JWTSecret:       jwtSecret,
		AuthHandler:     &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		ProductHandler:  &handlers.ProductHandler{DB: db, Producer: prod, Search: searchSvc},
		OrderHandler:    &handlers.OrderHandler{DB: db, Producer: prod},
		EmployeeHandler: &handlers.EmployeeHandler{DB: db},
		SearchHandler:   &handlers.SearchHandler{Svc: searchSvc},
		Limiter:         limiter,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
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
