package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brgy-santafe/registry/internal/adapters/cityhall"
	caseapi "github.com/brgy-santafe/registry/internal/case/api"
	"github.com/brgy-santafe/registry/internal/case/domain"
	caseinfra "github.com/brgy-santafe/registry/internal/case/infrastructure"
	"github.com/brgy-santafe/registry/internal/docrequest"
	"github.com/brgy-santafe/registry/internal/notification"
	"github.com/brgy-santafe/registry/internal/official"
	"github.com/brgy-santafe/registry/internal/payments"
	"github.com/brgy-santafe/registry/internal/sequence"
	"github.com/brgy-santafe/registry/internal/shared/auth"
	"github.com/brgy-santafe/registry/internal/shared/config"
	"github.com/brgy-santafe/registry/internal/shared/database"
	"github.com/brgy-santafe/registry/internal/shared/events"
	"github.com/brgy-santafe/registry/internal/shared/metrics"
	secmiddleware "github.com/brgy-santafe/registry/internal/shared/middleware"
)

// App holds all application dependencies.
type App struct {
	Config    *config.Config
	DB        *database.DB
	Bus       events.EventBus
	Directory cityhall.Directory
}

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Event bus degrades to in-process delivery when EventStoreDB is
	// not reachable, so notices still go out in a single-node setup.
	if bus, err := events.NewBus(ctx, cfg.EventStore); err != nil {
		logger.Warn("eventstore not available, using in-process bus", "error", err)
		app.Bus = events.NewMemoryBus()
	} else {
		app.Bus = bus
		defer bus.Close()
	}

	// City hall resident directory. Optional: without it, notices that
	// need an email lookup are skipped.
	if cfg.CityHall.Enabled {
		directory, err := cityhall.NewMSSQLDirectory(ctx, cfg.CityHall)
		if err != nil {
			logger.Error("city hall directory connection failed", "error", err)
			os.Exit(1)
		}
		app.Directory = directory
		defer directory.Close()
	} else {
		app.Directory = cityhall.NewMemoryDirectory()
	}

	// Case pipeline.
	stores, err := caseinfra.NewPostgresStores(db)
	if err != nil {
		logger.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	engine := domain.NewEngine(stores)
	caseHandler := caseapi.NewHandler(stores, engine,
		domain.BlotterNumberDomain(stores, sequence.PrefixFormat(cfg.Barangay.CasePrefix)),
		domain.CFANumberDomain(stores, sequence.BareFormat()),
		app.Bus, logger)

	// Document requests and barangay IDs.
	docRepo := docrequest.NewPostgresRepository(db)
	docHandler := docrequest.NewHandler(docRepo,
		docrequest.IGPNumberDomain(docRepo, sequence.PaddedFormat(cfg.Barangay.IDPrefix, cfg.Barangay.IDPadding)),
		payments.NewClient(cfg.PayMongo), app.Directory, app.Bus, logger)

	// Officials roster.
	officialHandler := official.NewHandler(official.NewPostgresRepository(db))

	// Notifications ride on the event bus.
	notifier := notification.New(
		notification.LogProvider{Logger: logger},
		app.Directory, cfg.Barangay, logger)
	if err := notifier.Start(ctx, app.Bus); err != nil {
		logger.Error("notification service failed to start", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.RateLimiter(50, 100))
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.CORS)

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())
	r.Get("/", infoHandler(cfg))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.Env == "production" {
			r.Use(auth.Middleware(cfg.Auth))
		}

		r.Mount("/", caseHandler.Routes())
		r.Mount("/requests", docHandler.Routes())
		r.Mount("/officials", officialHandler.Routes())
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		close(done)
	}()

	logger.Info("barangay registry started",
		"env", cfg.Server.Env,
		"addr", fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		"barangay", cfg.Barangay.Name)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}

func infoHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"name":     "Barangay Registry",
			"barangay": cfg.Barangay.Name,
			"city":     cfg.Barangay.City,
			"docs":     "/api/v1",
		})
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.DB.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
		} else {
			checks["database"] = "ready"
		}

		if err := app.Bus.Health(); err != nil {
			checks["events"] = "not ready: " + err.Error()
		} else {
			checks["events"] = "ready"
		}

		if err := app.Directory.Health(r.Context()); err != nil {
			checks["cityhall"] = "not ready: " + err.Error()
		} else {
			checks["cityhall"] = "ready"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
