package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/grenades/internal/config"
	"github.com/Vovarama1992/grenades/internal/delivery"
	ws "github.com/Vovarama1992/grenades/internal/delivery/ws"
	"github.com/Vovarama1992/grenades/internal/domain"
	"github.com/Vovarama1992/grenades/internal/infra"
	"github.com/Vovarama1992/grenades/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// LOGGER
	zcore, _ := zap.NewProduction()
	defer zcore.Sync()
	zl := logger.NewZapLogger(zcore.Sugar())

	if err := rootCommand(zl).Execute(); err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "command failed",
			Error:   err,
		})
		os.Exit(1)
	}
}

func rootCommand(zl *logger.ZapLogger) *cobra.Command {
	var configFile string

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(viper.New(), configFile)
		if err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, zl)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and seed default maps",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := infra.NewPgxPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			return migrate(cmd.Context(), pool, true, zl)
		},
	}

	root := &cobra.Command{
		Use:           "grenades",
		Short:         "Grenade throw catalog service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml)")
	root.AddCommand(serveCmd, migrateCmd)
	return root
}

func migrate(ctx context.Context, pool *pgxpool.Pool, seed bool, zl *logger.ZapLogger) error {
	if err := infra.Migrate(ctx, pool); err != nil {
		return err
	}
	if !seed {
		return nil
	}
	n, err := infra.Seed(ctx, infra.NewPostgresMapRepo(pool), infra.NewPostgresThrowRepo(pool), infra.DefaultMaps)
	if err != nil {
		return err
	}
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "schema ready",
		Fields:  map[string]any{"seededMaps": n},
	})
	return nil
}

func serve(parent context.Context, cfg *config.Config, zl *logger.ZapLogger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// POSTGRES
	pool, err := infra.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrate(ctx, pool, cfg.Seed, zl); err != nil {
		return err
	}

	// METRICS
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	// STORAGE
	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	mediaFS := afero.NewBasePathFs(afero.NewOsFs(), cfg.MediaDir)
	storage := infra.NewFSMediaStorage(mediaFS, cfg.PublicBaseURL, cfg.MaxUploadBytes(), m)

	// SERVICES
	authService := domain.NewAuthService(infra.NewPostgresUserRepo(pool), cfg.AuthSecret)
	catalog := domain.NewCatalogService(
		infra.NewPostgresMapRepo(pool),
		infra.NewPostgresThrowRepo(pool),
		infra.NewPostgresFavoriteRepo(pool),
		storage,
		cfg.CacheTTL,
		zl,
		m,
	)
	submissions := domain.NewSubmissionService(catalog)

	// WS HUB
	hub := ws.NewHub()

	// HANDLERS
	handlers := delivery.Handlers{
		Auth:      delivery.NewAuthHandler(authService, zl),
		Maps:      delivery.NewMapHandler(catalog, zl),
		Throws:    delivery.NewThrowHandler(catalog, submissions, zl, cfg.MaxUploadBytes()),
		Favorites: delivery.NewFavoriteHandler(catalog, zl),
		Media:     delivery.NewMediaHandler(catalog, zl, cfg.MaxUploadBytes()),
		Settings:  delivery.NewSettingsHandler(authService, catalog, zl),
	}

	// ROUTER
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(delivery.MetricsMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Auth"},
		AllowCredentials: true,
	}))

	delivery.RegisterRoutes(r, authService, handlers)

	r.With(delivery.AuthMiddleware(authService)).Get("/ws", ws.WSHandler(hub, m))
	r.Handle("/media/*", http.StripPrefix("/media", storage.Handler()))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// BROADCAST LISTENER
	g.Go(func() error {
		hub.Forward(catalog.Events())
		return nil
	})

	g.Go(func() error {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "server started",
			Fields:  map[string]any{"port": cfg.Port},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		catalog.Close()
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "server stopped",
		})
		return err
	})

	return g.Wait()
}
