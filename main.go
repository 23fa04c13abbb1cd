package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"parlayTracker/config"
	"parlayTracker/database"
	"parlayTracker/scheduler"
	"parlayTracker/services"
	"parlayTracker/services/calendarService"
	"parlayTracker/services/catalogService"
	"parlayTracker/services/common"
	"parlayTracker/services/notifyService"
	"parlayTracker/services/parlayService"
	"parlayTracker/services/pickService"
	"parlayTracker/services/settlementService"
	"parlayTracker/web"
	"syscall"
	"time"

	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	cal, err := calendarService.NewCalendar(cfg.TimeZone)
	if err != nil {
		log.Fatalf("Error loading calendar: %v", err)
	}

	reporter := &common.ErrorReporter{}

	var db *gorm.DB
	var remote parlayService.RemoteStore
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, slips will only be kept locally")
	} else {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("%v", err)
		}
		reporter.DB = db
		remote = parlayService.NewGormRemote(db, cfg.PersistTimeout)
	}

	var cache catalogService.Cache = catalogService.NewMemoryCache()
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := catalogService.NewRedisCacheFromURL(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Printf("%v; falling back to in-memory cache", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	var notifier notifyService.Notifier = notifyService.NoopNotifier{}
	if cfg.DiscordWebhookURL != "" {
		discord, err := notifyService.NewDiscordNotifier(cfg.DiscordWebhookURL, cfg.CurrencySymbol)
		if err != nil {
			log.Printf("Error configuring Discord notifications: %v", err)
		} else {
			notifier = discord
		}
	}

	var mirror parlayService.Mirror
	if cfg.MirrorPath != "" {
		mirror = parlayService.NewFileMirror(cfg.MirrorPath)
	}

	store := parlayService.NewStore(remote, mirror, reporter)
	app := &services.App{
		Picks:    pickService.NewAssembly(),
		Store:    store,
		Settler:  settlementService.NewSettler(db, store, reporter, notifier, cfg.PersistTimeout),
		Catalog:  catalogService.NewCatalog(cfg.BallDontLieURL, cfg.BallDontLieAPIKey, cache, cfg.GamesCacheTTL, cal),
		Notifier: notifier,
		Calendar: cal,
		Reporter: reporter,
	}

	cronService, err := scheduler.SetupCron(app, cfg)
	if err != nil {
		log.Printf("Error scheduling jobs: %v", err)
	}
	defer cronService.Stop()

	srv := web.NewServer(":"+cfg.Port, web.NewRouter(app, cfg.CORSOrigins))

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Parlay tracker listening on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Printf("Received %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
}
