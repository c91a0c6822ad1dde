package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/japperJ/geo2-ip-webserver/internal/api/routes"
	"github.com/japperJ/geo2-ip-webserver/internal/artifact"
	"github.com/japperJ/geo2-ip-webserver/internal/config"
	"github.com/japperJ/geo2-ip-webserver/internal/database"
	"github.com/japperJ/geo2-ip-webserver/internal/geoip"
	"github.com/japperJ/geo2-ip-webserver/internal/logger"
	"github.com/japperJ/geo2-ip-webserver/internal/server"
	"github.com/japperJ/geo2-ip-webserver/internal/services"
	"github.com/japperJ/geo2-ip-webserver/internal/version"
)

func main() {
	// Logging with rotation, to both stdout and file
	logDir := filepath.Join("data", "logs")
	_ = os.MkdirAll(logDir, 0o755)

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "geogate.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	mw := io.MultiWriter(os.Stdout, rotator)
	log.SetOutput(mw)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Init(cfg.Environment == "development", mw)

	log.Printf("starting %s %s", version.Name, version.Full())

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	geo, err := geoip.New(cfg.GeoIPDatabasePath, cfg.RedisURL)
	if err != nil {
		log.Fatalf("init geoip resolver: %v", err)
	}
	defer geo.Close()
	if geo.Enabled() {
		log.Printf("IP geolocation enrichment enabled (db: %s)", cfg.GeoIPDatabasePath)
	}

	deps := routes.Deps{
		Geo:      geo,
		Notifier: services.NewNotificationService(cfg.AlertURLs),
		BaseURL:  "http://localhost:" + cfg.HTTPPort,
	}

	if cfg.ScreenshotEnabled {
		capturer, err := artifact.NewBrowserCapturer(cfg.ArtifactDir, cfg.ScreenshotTimeout)
		if err != nil {
			log.Printf("WARNING: screenshot capture disabled: %v", err)
		} else {
			deps.Capturer = capturer
			defer capturer.Close()
		}
	}

	srv, err := server.New(db, cfg, deps)
	if err != nil {
		log.Fatalf("init server: %v", err)
	}

	auditService := services.NewAuditService(db)
	if cfg.AuditRetention > 0 {
		auditService.StartRetentionJob(cfg.AuditRetention, services.NewSettingService(db))
		defer auditService.StopRetentionJob()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}

	// Give in-flight artifact captures a moment to finish before exit.
	time.Sleep(100 * time.Millisecond)
	log.Println("shutdown complete")
}
