package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant API server",
		Long:  "Start the HTTP API, the notification socket and the timer expiry sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrateFirst, _ := cmd.Flags().GetBool("migrate")
			return runServer(cmd.Context(), migrateFirst)
		},
	}

	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving (postgres driver only)")
	return cmd
}

func runServer(parent context.Context, migrateFirst bool) error {
	cfg, appLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Errorw("Failed to initialize application", "error", err)
		return err
	}
	defer app.close()

	if migrateFirst && app.db != nil {
		applied, err := app.db.MigrateUp()
		if err != nil {
			return err
		}
		appLogger.Infow("Migrations checked", "applied", applied)
	}

	appLogger.Infow("Starting assistant API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"database", cfg.Database.Driver,
		"llm", cfg.LLM.Provider,
		"sweep", app.sweeper != nil,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.server.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	})

	if app.sweeper != nil {
		g.Go(func() error {
			return app.sweeper.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		app.hub.Close()
		return app.server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Errorw("Server stopped with error", "error", err)
		return err
	}

	appLogger.Infow("Server stopped")
	return nil
}
