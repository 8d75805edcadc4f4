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

	gocache "github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"plantcare/internal/auth"
	"plantcare/internal/care"
	"plantcare/internal/config"
	"plantcare/internal/metrics"
	"plantcare/internal/server"
	"plantcare/internal/storage/sqlite"
	"plantcare/internal/weather"
)

const version = "1.0.0"

func main() {
	if err := rootCommand(config.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *sqlite.Store
	metrics *metrics.Metrics
	care    *care.Service
}

func rootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "plantcare",
		Short:         "Plant care scheduling backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("db", "data/plantcare.db", "Path to sqlite database file")
	flags.String("static", "web/dist", "Directory with built frontend")
	flags.BoolP("debug", "d", false, "Enable debug logging")
	for key, name := range map[string]string{
		"server.addr":   "addr",
		"database.path": "db",
		"static.dir":    "static",
		"debug":         "debug",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	root.AddCommand(serveCommand(v), generateCommand(v), seedCommand(v))
	return root
}

func serveCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(v)
			if err != nil {
				return err
			}
			defer a.store.Close()
			return a.serve()
		},
	}
}

func generateCommand(v *viper.Viper) *cobra.Command {
	var ownerID string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Materialize upcoming care tasks for an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner := auth.OwnerID(ownerID)
			if owner == "" {
				return fmt.Errorf("owner %q has no usable characters", ownerID)
			}
			a, err := setup(v)
			if err != nil {
				return err
			}
			defer a.store.Close()

			res, err := a.care.GenerateTasks(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d, created %d\n", res.Generated, res.Created)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner username")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func seedCommand(v *viper.Viper) *cobra.Command {
	var ownerID string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in plant catalog for an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner := auth.OwnerID(ownerID)
			if owner == "" {
				return fmt.Errorf("owner %q has no usable characters", ownerID)
			}
			a, err := setup(v)
			if err != nil {
				return err
			}
			defer a.store.Close()

			res, err := a.care.Seed(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plants created %d, nudged %d, tasks generated %d\n",
				res.PlantsCreated, res.Nudged, res.TasksGenerated)
			return nil
		},
	}
	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner username")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

// setup loads configuration and opens the store, metrics and care service.
func setup(v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		return nil, err
	}

	m, err := metrics.New()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	opts := care.Options{
		Metrics:     m,
		Logger:      logger,
		Location:    loc,
		HorizonDays: cfg.Schedule.HorizonDays,
		NudgeLimit:  cfg.Seed.NudgeLimit,
		Unit:        cfg.Weather.Units,
	}
	if cfg.Weather.APIKey != "" {
		ttl := cfg.Weather.CacheTTL
		opts.Weather = weather.NewClient(weather.Config{
			APIKey:   cfg.Weather.APIKey,
			Endpoint: cfg.Weather.Endpoint,
			TTL:      ttl,
		}, gocache.New(ttl, 2*ttl), weather.WithRecorder(m))
	} else {
		logger.Warn("no OpenWeather API key configured; weather lookups disabled")
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		metrics: m,
		care:    care.New(store, opts),
	}, nil
}

func (a *app) serve() error {
	a.logger.Info("plantcare", slog.String("version", version))

	sessions := auth.NewSessions(a.cfg.Session.TTL, time.Hour)
	srv := server.New(a.care, sessions, a.metrics, a.logger, a.cfg.Static.Dir)

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-errCh:
		if ok {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
		return err
	}

	a.logger.Info("server stopped")
	return nil
}
