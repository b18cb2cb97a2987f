package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"household-app-go/internal/app"
	"household-app-go/internal/config"
	"household-app-go/internal/db"
	"household-app-go/internal/transport/httpserver/handler"
	"household-app-go/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd(log logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "household-app",
		Short:         "Shared household expenses and chores API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), log)
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), log)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd, log)
			},
		},
		newRecurringCmd(log),
	)

	return root
}

func newRecurringCmd(log logger.Logger) *cobra.Command {
	recurring := &cobra.Command{
		Use:   "recurring",
		Short: "Recurring chore maintenance",
	}
	recurring.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Create chores for every due recurring template once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, log)
			if err != nil {
				return err
			}
			defer closeApp(application, log)

			report, err := application.RunRecurring(ctx)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(handler.ToBatchReportResponse(report))
		},
	})
	return recurring
}

func serve(parent context.Context, log logger.Logger) error {
	log.Info("app: starting")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	srv := application.HTTPServer()
	log.Info("http: listening", "addr", srv.Addr)

	serverErrCh := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	application.StartRecurringLoop(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("app: shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			log.Critical("http: server failed", "addr", srv.Addr, "err", err)
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http: graceful shutdown failed", "err", err)
		runErr = errors.Join(runErr, err)
	}

	if err := application.Close(); err != nil {
		log.Error("app: close failed", "err", err)
		runErr = errors.Join(runErr, err)
	}

	if runErr == nil {
		log.Info("app: stopped")
	}
	return runErr
}

func migrate(cmd *cobra.Command, log logger.Logger) error {
	cfg, err := config.Load(log)
	if err != nil {
		return err
	}

	conn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := db.Migrate(conn); err != nil {
		return err
	}

	version, dirty, err := db.MigrationVersion(conn)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
	return nil
}

func closeApp(application *app.App, log logger.Logger) {
	if err := application.Close(); err != nil {
		log.Error("app: close failed", "err", err)
	}
}
