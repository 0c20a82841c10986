package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appbatch "github.com/bryanwahyu/medalyze/internal/application/batch"
	appnotify "github.com/bryanwahyu/medalyze/internal/application/notify"
	appreport "github.com/bryanwahyu/medalyze/internal/application/report"
	"github.com/bryanwahyu/medalyze/internal/config"
	"github.com/bryanwahyu/medalyze/internal/domain/analysis"
	"github.com/bryanwahyu/medalyze/internal/domain/history"
	agentclient "github.com/bryanwahyu/medalyze/internal/infra/backend/agent"
	restclient "github.com/bryanwahyu/medalyze/internal/infra/backend/rest"
	mysqlp "github.com/bryanwahyu/medalyze/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/medalyze/internal/infra/db/postgres"
	"github.com/bryanwahyu/medalyze/internal/infra/httpserver"
	"github.com/bryanwahyu/medalyze/internal/infra/session"
	minioStore "github.com/bryanwahyu/medalyze/internal/infra/storage"
	"github.com/bryanwahyu/medalyze/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Printf("config error: %v", e)
		}
		log.Fatalf("invalid configuration")
	}

	ctx := context.Background()
	timeout := time.Duration(cfg.Backend.TimeoutMS) * time.Millisecond

	// pick the transport strategy once; the rest of the service never
	// branches on the backend shape
	var backend analysis.Backend
	switch cfg.Backend.Mode {
	case "agent":
		backend = agentclient.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, timeout, agentclient.Agents{
			Upload: cfg.Backend.Agents.Upload,
			Fetch:  cfg.Backend.Agents.Fetch,
			Notify: cfg.Backend.Agents.Notify,
		})
	default:
		backend = restclient.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, timeout)
	}

	// optional batch history
	var historyRepo history.Repository
	var db *sql.DB
	checkers := map[string]middleware.HealthChecker{}
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		historyRepo = mysqlp.NewHistoryRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		historyRepo = postgresp.NewHistoryRepository(db)
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// optional heatmap archive
	var archive appnotify.Archive
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		archive = store
	}

	sessions := session.NewStore()

	batchSvc := &appbatch.Service{
		Backend:  backend,
		Sessions: sessions,
		History:  historyRepo,
		Clock:    appbatch.SystemClock{},
	}
	reportSvc := &appreport.Service{
		Backend:  backend,
		Sessions: sessions,
	}
	notifySvc := &appnotify.Service{
		Backend: backend,
		Archive: archive,
		History: historyRepo,
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys))
	mux.Use(middleware.RateLimitMiddleware(cfg.Server.RateCapacity, cfg.Server.RateRefill))
	mux.Mount("/", httpserver.NewRouter(batchSvc, reportSvc, notifySvc, sessions, historyRepo, checkers, cfg.Upload.MaxFileBytes))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  timeout + 15*time.Second,
		WriteTimeout: timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s (backend mode=%s)", addr, cfg.Backend.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
