package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidhaven/vidhaven/internal/ads"
	"github.com/vidhaven/vidhaven/internal/config"
	"github.com/vidhaven/vidhaven/internal/database"
	"github.com/vidhaven/vidhaven/internal/geoip"
	"github.com/vidhaven/vidhaven/internal/player"
	"github.com/vidhaven/vidhaven/internal/realtime"
	"github.com/vidhaven/vidhaven/internal/server"
	"github.com/vidhaven/vidhaven/internal/storage"
	"github.com/vidhaven/vidhaven/internal/video"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DB.URL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.DB.URL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migrations applied")

	store, err := storage.New(ctx, storage.Config{
		Endpoint:       cfg.Storage.Endpoint,
		PublicEndpoint: cfg.Storage.PublicEndpoint,
		Bucket:         cfg.Storage.Bucket,
		AccessKey:      cfg.Storage.AccessKey,
		SecretKey:      cfg.Storage.SecretKey,
		Region:         cfg.Storage.Region,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatalf("storage bucket check failed: %v", err)
	}
	log.Println("storage bucket ready")

	geo, err := geoip.New(cfg.GeoIP.DatabasePath)
	if err != nil {
		log.Fatalf("geoip initialization failed: %v", err)
	}
	defer geo.Close()

	hub := realtime.NewHub()
	sessions := player.NewStore()

	srv := server.New(server.Config{
		DB:               db.Pool,
		Pinger:           db,
		Storage:          store,
		Hub:              hub,
		Geo:              geo,
		Sessions:         sessions,
		JWTSecret:        cfg.Auth.JWTSecret,
		HMACSecret:       cfg.Auth.HMACSecret,
		BaseURL:          cfg.Server.BaseURL,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		MaxUploadBytes:   cfg.Storage.MaxUploadBytes,
		S3PublicEndpoint: cfg.Storage.PublicEndpoint,
		AdSchedule: ads.Schedule{
			BaseDelaySeconds:     cfg.Ads.BaseDelaySeconds,
			IncrementSeconds:     cfg.Ads.DelayIncrementSec,
			OverlayPeriodSeconds: cfg.Ads.OverlayPeriodSec,
			OverlayVisibleSecs:   cfg.Ads.OverlayVisibleSec,
		},
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	video.StartCleanupLoop(workerCtx, db.Pool, store, time.Duration(cfg.Server.CleanupIntervalSecs)*time.Second)
	sessions.StartSweeper(workerCtx, time.Duration(cfg.Server.SessionSweepInterval)*time.Second)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("vidhaven listening on :%d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	log.Println("shutdown complete")
}
