package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/opd-ai/bookwriter/bookcompiler"
	"github.com/opd-ai/bookwriter/config"
	"github.com/opd-ai/bookwriter/srv/generator"
	srvtls "github.com/opd-ai/bookwriter/srv/tls"
	"github.com/opd-ai/bookwriter/srv/ui"
	bookwriter "github.com/opd-ai/bookwriter/src"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the book writer web UI",
	Long: `Start the password-protected web UI.

Every visitor logs in with server.password and then walks through the
stages: book details, outline, chapters and the compiled PDF. Sessions
live in memory or, with session.store=redis, in Redis.

The server provides:
  - /healthz - liveness check
  - /metrics - Prometheus metrics (metrics.path, when metrics.enabled)

Examples:
  bookwriter serve
  BOOKWRITER_SERVER_ADDR=:8443 BOOKWRITER_SERVER_TLS=true bookwriter serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.Server.Password == "" {
			return errors.New("server.password is required (set APP_PASSWORD or BOOKWRITER_SERVER_PASSWORD)")
		}

		client, err := bookwriter.NewClient(cfg.ClientConfig(), logger)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		controller := generator.NewController(client, bookcompiler.NewBookCompiler(), generator.NewMetrics(reg), logger)

		store, err := newStore(ctx, cfg)
		if err != nil {
			return err
		}

		opts := ui.Options{
			Controller: controller,
			Store:      store,
			Password:   cfg.Server.Password,
			SessionTTL: cfg.Session.TTL,
			Logger:     logger,
		}
		if cfg.Metrics.Enabled {
			opts.Gatherer = reg
			opts.MetricsPath = cfg.Metrics.Path
		}
		handler, err := ui.NewGeneratorUI(opts)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.Server.WriteTimeout,
		}
		return run(ctx, srv, cfg, logger)
	},
}

func newStore(ctx context.Context, cfg *config.Config) (ui.Store, error) {
	if cfg.Session.Store != config.StoreRedis {
		return ui.NewMemoryStore(cfg.Session.TTL), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return ui.NewRedisStore(rdb, cfg.Session.TTL), nil
}

// run serves until ctx is cancelled and then drains in-flight requests.
func run(ctx context.Context, srv *http.Server, cfg *config.Config, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "tls", cfg.Server.TLS)
		if cfg.Server.TLS {
			errCh <- srvtls.ListenAndServeTLS(srv, cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
