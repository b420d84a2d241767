package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecell/certportal/internal/api"
	"github.com/ecell/certportal/internal/config"
	"github.com/ecell/certportal/internal/pkg/logger"
	"github.com/ecell/certportal/internal/progress"
	"github.com/ecell/certportal/internal/qr"
	"github.com/ecell/certportal/internal/render"
	"github.com/ecell/certportal/internal/repository/postgres"
	"github.com/ecell/certportal/internal/service/certificate"
	"github.com/ecell/certportal/internal/service/event"
	"github.com/ecell/certportal/internal/storage"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check failed: %v", err)
	}

	// Database
	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Redis progress tracker (optional; generation works without it)
	var tracker *progress.Tracker
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("Redis unavailable at %s, progress tracking disabled: %v", cfg.Redis.Addr, err)
		rdb.Close()
	} else {
		tracker = progress.NewTracker(rdb)
		defer rdb.Close()
		log.Println("Connected to Redis")
	}
	pingCancel()

	// S3 artifact store
	store, err := storage.NewS3Store(context.Background(),
		cfg.Storage.S3Bucket, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
	if err != nil {
		log.Fatalf("Failed to initialize S3 store: %v", err)
	}
	if store.Ready() != nil {
		log.Println("S3 storage not configured; certificate generation will be rejected")
	}

	// PDF renderer (headless Chrome, launched lazily on first render)
	renderer, err := render.New(cfg.Render.ChromePath, cfg.Render.Timeout())
	if err != nil {
		log.Fatalf("Failed to initialize renderer: %v", err)
	}
	defer renderer.Close()

	// Services
	events := event.NewService(postgres.NewEventRepo(db), render.TemplateIDs())
	certs := certificate.NewService(
		postgres.NewCertificateRepo(db),
		events,
		renderer,
		store,
		qr.NewEncoder(),
		cfg.Server.BaseURL,
	)

	handlers := api.NewHandlers(events, certs, tracker)
	server := api.NewServer(cfg.Server, handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
