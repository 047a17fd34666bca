// main is the entry point of the student register server.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured backing store
//  4. Build the record store and the editor, then load saved records
//  5. Register the JSON API and the HTML page on one chi router
//  6. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// RUNNING THE SERVER:
//
//	go run ./cmd/student-register --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/student-register
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aanand-mishra/student-register/internal/config"
	"github.com/aanand-mishra/student-register/internal/editor"
	"github.com/aanand-mishra/student-register/internal/http/handlers/page"
	"github.com/aanand-mishra/student-register/internal/http/handlers/student"
	"github.com/aanand-mishra/student-register/internal/http/middleware"
	"github.com/aanand-mishra/student-register/internal/records"
	"github.com/aanand-mishra/student-register/internal/storage"
	"github.com/aanand-mishra/student-register/internal/storage/file"
	"github.com/aanand-mishra/student-register/internal/storage/memory"
	"github.com/aanand-mishra/student-register/internal/storage/minio"
	"github.com/aanand-mishra/student-register/internal/storage/postgres"
	"github.com/aanand-mishra/student-register/internal/storage/redis"
	"github.com/aanand-mishra/student-register/internal/storage/sqlite"
)

const connectTimeout = 10 * time.Second

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting student-register",
		slog.String("env", cfg.Env),
		slog.String("backend", cfg.Storage.Backend),
	)

	// ── 3. Open Storage ───────────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	backend, err := openStorage(ctx, cfg.Storage)
	cancel()
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("backend", cfg.Storage.Backend),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backend.Close()

	log.Info("storage initialised", slog.String("backend", cfg.Storage.Backend))

	// ── 4. Records + Editor ───────────────────────────────────────────────
	store := records.New(backend,
		records.WithKey(cfg.Records.Key),
		records.WithLogger(log))
	ctrl := editor.New(store,
		editor.WithLogger(log),
		editor.WithUniqueStudentIDs(cfg.Records.UniqueStudentID))

	ctrl.OnChange(func(ch editor.Change) {
		log.Debug("records changed",
			slog.String("op", string(ch.Op)),
			slog.Int("index", ch.Index),
			slog.Int("count", ch.Count))
	})

	// A failed load is not fatal: the editor starts empty and shows why.
	if _, err := ctrl.RequestInitialLoad(context.Background()); err != nil {
		log.Warn("starting with an empty register", slog.String("error", err.Error()))
	}

	// ── 5. Routes ─────────────────────────────────────────────────────────
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      newRouter(log, ctrl),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 6. Serve ──────────────────────────────────────────────────────────
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// newRouter wires the JSON API and the HTML page onto one router.
//
//	GET    /                          page
//	POST   /submit | /cancel          page forms
//	POST   /edit/{index}              page forms
//	POST   /delete/{index}            page forms
//	GET    /api/students              list
//	POST   /api/students              create or update
//	POST   /api/students/load         reload from the backing store
//	POST   /api/students/{index}/edit start editing
//	DELETE /api/students/{index}      delete
//	GET    /api/editor                editor state
//	DELETE /api/editor                cancel edit
func newRouter(log *slog.Logger, ctrl *editor.Controller) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimw.Recoverer)

	page.Register(r, ctrl)
	student.Register(r, ctrl)
	return r
}

// openStorage returns the backing store named by cfg.Backend.
func openStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		return file.New(cfg.File.Dir, file.WithPretty(cfg.File.Pretty))
	case config.BackendSQLite:
		return sqlite.New(cfg.SQLite.Path)
	case config.BackendPostgres:
		return postgres.New(ctx, cfg.Postgres.DSN)
	case config.BackendRedis:
		rc := redis.DefaultConfig()
		rc.Addr = cfg.Redis.Addr
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		rc.Prefix = cfg.Redis.Prefix
		return redis.New(ctx, rc)
	case config.BackendMinio:
		return minio.New(ctx, minio.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// dev: text at DEBUG. staging: JSON at DEBUG. prod: JSON at INFO.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
