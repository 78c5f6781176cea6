package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"lightningtracker/internal/api"
	"lightningtracker/internal/config"
	"lightningtracker/internal/mapview"
	"lightningtracker/internal/observability"
	"lightningtracker/internal/postgres"
	"lightningtracker/internal/redis"
	"lightningtracker/internal/service/session"
	"lightningtracker/internal/service/viewport"
	"lightningtracker/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type backends struct {
	db        *gorm.DB
	fixLog    *postgres.FixLog
	publisher *redis.ViewportPublisher
}

func main() {
	cfg, err := loadConfiguration()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.LogFile)

	if err := config.ValidateRings(config.AlertZones); err != nil {
		log.Fatalf("Invalid alert zone configuration: %v", err)
	}
	if cfg.MapboxAccessToken == "" {
		log.Println("MAPBOX_ACCESS_TOKEN is not set, map sessions will fail to mount")
	}

	b := initializeDatabaseAndCache(cfg)

	metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	sessions := initializeServices(cfg, b, metrics)

	stopWorkers := worker.StartAllWorkers(sessions, worker.SweeperConfig{
		Interval: cfg.SweepInterval,
		TTL:      cfg.SessionTTL,
	})

	setupSignalHandler(func() {
		stopWorkers()
		sessions.Close()
		closeConnections(b)
	})

	reportMemoryStats()

	runAPIServer(cfg, b, sessions, metrics)
}

func setupLogging(path string) {
	// Set up logging to file and terminal
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	// The file stays open for the lifetime of the process

	// Use MultiWriter to output logs to both terminal and file
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)
	gin.DefaultWriter = multiWriter
}

func loadConfiguration() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}

	if cfg.MapStyle == "" {
		cfg.MapStyle = config.DefaultMapStyle
	}
	if cfg.LogFile == "" {
		cfg.LogFile = "lightning.log"
	}
	return cfg, nil
}

// initializeDatabaseAndCache connects the optional backends. Both are
// diagnostics only, the overlay engine runs without them.
func initializeDatabaseAndCache(cfg config.Config) backends {
	var b backends

	if cfg.DBUrl != "" {
		db, err := postgres.Init(cfg.DBUrl)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		b.db = db
		b.fixLog = postgres.NewFixLog(db)
	} else {
		log.Println("DB_URL is not set, location fix history disabled")
	}

	if cfg.RedisUrl != "" {
		client, err := redis.NewClient(cfg.RedisUrl)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		b.publisher = redis.NewViewportPublisher(client)
	} else {
		log.Println("REDIS_URL is not set, viewport publishing disabled")
	}

	return b
}

func initializeServices(cfg config.Config, b backends, metrics *observability.Metrics) *session.Service {
	opts := viewport.Options{
		Container:     config.DefaultContainer,
		Style:         cfg.MapStyle,
		AccessToken:   cfg.MapboxAccessToken,
		DefaultCenter: config.DefaultCenter,
		DefaultZoom:   config.DefaultZoom,
		FixZoom:       config.FixZoom,
		Rings:         config.AlertZones,
	}

	// Typed nils must not leak into the interfaces
	var publisher session.ViewportPublisher
	if b.publisher != nil {
		publisher = b.publisher
	}
	var recorders session.RecorderFactory
	if b.fixLog != nil {
		recorders = b.fixLog
	}

	return session.NewService(opts, mapview.NewMemoryFactory(), publisher, recorders, metrics)
}

func runAPIServer(cfg config.Config, b backends, sessions *session.Service, metrics *observability.Metrics) {
	// Initialize Gin router
	r := gin.Default()

	deps := api.Deps{
		Info: map[string]string{
			"port":             cfg.Port,
			"mapStyle":         cfg.MapStyle,
			"tokenConfigured":  strconv.FormatBool(cfg.MapboxAccessToken != ""),
			"redisConfigured":  strconv.FormatBool(b.publisher != nil),
			"historyAvailable": strconv.FormatBool(b.fixLog != nil),
		},
		Sessions: sessions,
		Zones:    config.AlertZones,
		Metrics:  metrics.Handler(),
	}
	if b.fixLog != nil {
		deps.History = b.fixLog
	}
	api.SetupRouter(r, deps)

	// Start the server
	if err := r.Run(cfg.Port); err != nil {
		log.Fatalf("API server stopped: %v", err)
	}
}

func reportMemoryStats() {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			log.Printf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
				m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
		}
	}()
}

func closeConnections(b backends) {
	if b.db != nil {
		if err := postgres.Close(b.db); err != nil {
			log.Printf("Error closing PostgreSQL connection: %v", err)
		}
	}

	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}

	log.Println("Connections closed successfully")
}

func setupSignalHandler(shutdown func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutdown signal received, closing connections...")
		shutdown()
		os.Exit(0)
	}()
}
