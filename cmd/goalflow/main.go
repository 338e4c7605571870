// @title			Goalflow API
// @version		1.0
// @description	Goals, tasks with dependencies, and a conflict-free personal schedule.
// @BasePath		/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/goalflow/internal/config"
	"github.com/mtlprog/goalflow/internal/database"
	"github.com/mtlprog/goalflow/internal/eventlog"
	"github.com/mtlprog/goalflow/internal/handler"
	"github.com/mtlprog/goalflow/internal/logger"
	"github.com/mtlprog/goalflow/internal/repository"
)

func main() {
	// Flags read the environment while parsing, so .env must be loaded first.
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flushLogs := func() {}

	app := &cli.App{
		Name:  "goalflow",
		Usage: "Personal goal, task and schedule planner",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   config.DefaultLogLevel,
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
			&cli.IntFlag{
				Name:    "db-max-conns",
				Value:   database.DefaultMaxConns,
				Usage:   "Maximum open database connections",
				EnvVars: []string{"DB_MAX_CONNS"},
			},
			&cli.IntFlag{
				Name:    "db-min-conns",
				Usage:   "Idle database connections kept open (default min(2, max))",
				EnvVars: []string{"DB_MIN_CONNS"},
			},
			&cli.StringFlag{
				Name:    "sentry-dsn",
				Usage:   "Sentry DSN for error reporting (disabled when empty)",
				EnvVars: []string{"SENTRY_DSN"},
			},
			&cli.StringFlag{
				Name:    "jwt-secret",
				Usage:   "HMAC secret for access tokens (required by serve)",
				EnvVars: []string{"JWT_SECRET"},
			},
			&cli.DurationFlag{
				Name:    "jwt-expiry",
				Value:   config.DefaultJWTExpiry,
				Usage:   "Access token lifetime",
				EnvVars: []string{"JWT_EXPIRY"},
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "HTTP server port",
				EnvVars: []string{"PORT"},
			},
		},
		Before: func(c *cli.Context) error {
			flushLogs = logger.Setup(logger.ParseLevel(c.String("log-level")), c.String("sentry-dsn"))
			return nil
		},
		After: func(c *cli.Context) error {
			flushLogs()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web server",
				Action: runServe,
			},
			{
				Name:  "migrate",
				Usage: "Apply database migrations and exit",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "down",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: runMigrate,
			},
			{
				Name:  "events",
				Usage: "Print a user's event log as JSON lines, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Value:   config.DefaultEventsLimit,
						Usage:   "Maximum number of events (1-500)",
					},
				},
				Action: runEvents,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		flushLogs()
		os.Exit(1)
	}
}

// openDB connects using the global database flags.
func openDB(c *cli.Context) (*database.DB, error) {
	return database.NewWithOptions(c.Context, c.String("database-url"), database.Options{
		MaxConns: int32(c.Int("db-max-conns")),
		MinConns: int32(c.Int("db-min-conns")),
	})
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}
	jwtSecret := c.String("jwt-secret")
	if jwtSecret == "" {
		return errors.New("jwt-secret is required (flag --jwt-secret or JWT_SECRET)")
	}

	db, err := openDB(c)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	h := handler.New(db.Pool(), jwtSecret, c.Duration("jwt-expiry"))

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runMigrate(c *cli.Context) error {
	ctx := c.Context

	db, err := openDB(c)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if c.Bool("down") {
		return database.RollbackMigration(ctx, db.Pool())
	}
	return database.RunMigrations(ctx, db.Pool())
}

func runEvents(c *cli.Context) error {
	ctx := c.Context

	limit := c.Int("limit")
	if limit < 1 || limit > config.MaxEventsLimit {
		return fmt.Errorf("limit must be between 1 and %d", config.MaxEventsLimit)
	}

	db, err := openDB(c)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	events := eventlog.New(repository.NewEventLogRepository(db.Pool()), eventlog.NewDispatcher())

	entries, err := events.FindByUser(ctx, c.String("user"), limit)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	enc := json.NewEncoder(c.App.Writer)
	for _, e := range entries {
		line := map[string]any{
			"id":         e.ID,
			"type":       e.Type,
			"payload":    e.Payload,
			"created_at": e.CreatedAt,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}

	return nil
}
