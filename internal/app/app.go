// Package app wires configuration, persistence and the palette together for
// the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bbernstein/lacylights-palette/internal/api"
	"github.com/bbernstein/lacylights-palette/internal/config"
	"github.com/bbernstein/lacylights-palette/internal/database"
	"github.com/bbernstein/lacylights-palette/internal/database/repositories"
	"github.com/bbernstein/lacylights-palette/internal/favorites"
	"github.com/bbernstein/lacylights-palette/internal/graphql/resolvers"
	"github.com/bbernstein/lacylights-palette/internal/logger"
	"github.com/bbernstein/lacylights-palette/internal/palette"
	"github.com/bbernstein/lacylights-palette/internal/services/pubsub"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// App is a generated palette with its favorites.
type App struct {
	Config    *config.Config
	DB        *gorm.DB
	Store     *palette.Store
	Favorites *favorites.Service
	PubSub    *pubsub.PubSub
}

// New generates the palette described by cfg and loads its favorites.
// Configuration errors are reported before the database is touched.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	opts, err := cfg.Palette()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	store, err := palette.Build(opts)
	if err != nil {
		return nil, err
	}
	log := logger.Named("app")
	log.Info("palette generated",
		zap.String("signature", store.Signature()),
		zap.Int("records", store.Len()),
		zap.Int("levels", store.Levels()),
		zap.Duration("took", time.Since(start)))

	db, err := database.Connect(database.Config{
		URL:         cfg.DatabaseURL,
		MaxIdleConn: 5,
		MaxOpenConn: 10,
		Debug:       cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db, Store: store}
	if err := database.Migrate(db); err != nil {
		_ = a.Close()
		return nil, err
	}

	ps := pubsub.New()
	favs := favorites.NewService(store,
		repositories.NewFavoriteRepository(db),
		repositories.NewSettingRepository(db),
		ps)
	if err := favs.Load(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Favorites = favs
	a.PubSub = ps
	return a, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Router builds the HTTP handler with middleware, health check, the JSON
// API and the GraphQL endpoint.
func (a *App) Router() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger.Named("http")))
	router.Use(middleware.Recoverer)

	// CORS
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{a.Config.CORSOrigin, "http://localhost:3000", "http://localhost:4000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		Debug:            a.Config.IsDevelopment(),
	})
	router.Use(corsMiddleware.Handler)

	router.Get("/health", HealthCheckHandler)

	api.NewServer(a.Store, a.Favorites, a.PubSub).Routes(router)
	router.Handle("/graphql", resolvers.NewHandler(resolvers.NewResolver(a.Store, a.Favorites, a.PubSub)))

	return router
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	log := logger.Named("server")
	httpServer := &http.Server{
		Addr:        ":" + a.Config.Port,
		Handler:     a.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", "http://localhost:"+a.Config.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// HealthCheckHandler returns the server health status.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := fmt.Sprintf(`{
  "status": "ok",
  "timestamp": "%s",
  "version": "%s"
}`, time.Now().UTC().Format(time.RFC3339), Version)

	_, _ = w.Write([]byte(response))
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
					zap.String("requestId", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
