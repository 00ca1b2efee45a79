// Package main provides the entry point for the shortClick URL shortener.
//
//	@title			shortClick URL Shortener API
//	@version		1.0.0
//	@description	A URL shortener with per-click analytics, cached owner listings and lazy QR codes.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"context"
	"fmt"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mikkybeardless/shortClick/internal/auth"
	"github.com/Mikkybeardless/shortClick/internal/cache"
	"github.com/Mikkybeardless/shortClick/internal/config"
	"github.com/Mikkybeardless/shortClick/internal/database"
	"github.com/Mikkybeardless/shortClick/internal/geo"
	httpHandler "github.com/Mikkybeardless/shortClick/internal/handler/http"
	"github.com/Mikkybeardless/shortClick/internal/heartbeat"
	"github.com/Mikkybeardless/shortClick/internal/qrcode"
	"github.com/Mikkybeardless/shortClick/internal/repository/postgres"
	"github.com/Mikkybeardless/shortClick/internal/service"
	"github.com/Mikkybeardless/shortClick/pkg/logger"
	"github.com/Mikkybeardless/shortClick/pkg/useragent"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting shortClick service", zap.String("env", cfg.Env))

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	// Cache store: Redis when configured, in-process otherwise. Cache
	// failures never take the service down, but a configured Redis that
	// cannot be reached at boot is a deployment error.
	var cacheStore cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("failed to close redis client", zap.Error(err))
			}
		}()
		cacheStore = redisCache
	} else {
		log.Info("no redis address configured, using in-memory cache")
		cacheStore = cache.NewMemory()
	}

	storage := postgres.New(db, log)
	geoResolver := geo.NewClient(cfg.Geo.APIURL, cfg.Geo.APIKey, cfg.Geo.Timeout, log)
	qrGenerator := qrcode.NewPNGGenerator(256)

	urlShortener := service.NewURLShortener(storage, cacheStore, geoResolver, qrGenerator, &cfg.URLShortener, log)

	jwtService := auth.NewJWTService([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer)
	uaParser := useragent.NewParser(log)

	server := httpHandler.NewServer(storage, urlShortener, jwtService, uaParser, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPServer.Port),
		Handler:      server.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(context.Background())
	defer stopHeartbeat()
	if cfg.Heartbeat.Enabled && cfg.Heartbeat.URL != "" {
		go heartbeat.New(cfg.Heartbeat.URL, cfg.Heartbeat.Interval, log).Run(heartbeatCtx)
	}

	log.Info("starting HTTP server", zap.Int("port", cfg.HTTPServer.Port))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down shortClick service...")

	stopHeartbeat()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}
