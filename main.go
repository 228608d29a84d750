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

	"task-manager/backend/config"
	"task-manager/backend/handlers"
	"task-manager/backend/logging"
	"task-manager/backend/services"
	"task-manager/backend/store"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:           "task-manager",
	Short:         "Task and project management backend",
	Long:          `REST API for users, projects, tasks and issues backed by MongoDB.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()
		return serve(cmd.Context(), cfg)
	},
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close(context.Background())
		return st.EnsureIndexes(ctx)
	},
}

func setup() (config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	closer, err := logging.Init(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, func() {
		if closer != nil {
			_ = closer.Close()
		}
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logging.Logger.Warnf("Event ID: MEMORY_STORE, Description: Using the in-memory store, data is lost on exit")
		return store.NewMemoryStore(), nil
	}
	return store.NewMongoStore(ctx, store.MongoOptions{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDBName,
		Transactions:   cfg.MongoTransactions,
		BreakerTimeout: cfg.BreakerTimeout,
	})
}

func serve(ctx context.Context, cfg config.Config) error {
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting task manager...")

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	st, err := openStore(connectCtx, cfg)
	if err != nil {
		cancel()
		return err
	}
	err = st.EnsureIndexes(connectCtx)
	cancel()
	if err != nil {
		_ = st.Close(context.Background())
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
		}
	}()

	authService := services.NewAuthService(st, services.NewJWTService(cfg.JWTSecret), cfg.BcryptCost)
	router, err := handlers.NewRouter(handlers.RouterDeps{
		Auth:       authService,
		Projects:   services.NewProjectService(st),
		Tasks:      services.NewTaskService(st),
		Issues:     services.NewIssueService(st),
		Health:     st,
		CORSOrigin: cfg.CORSOrigin,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Event ID: SERVER_LISTENING, Description: Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logging.Logger.Infof("Event ID: SERVER_SHUTDOWN, Description: Received %s, shutting down", sig)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logging.Logger.Info("Event ID: SERVER_STOPPED, Description: Server stopped")
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (defaults to $CONFIG_FILE)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexesCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
