// Package main provides the entry point for the Shoppermo API server.
//
//	@title						Shoppermo API
//	@version					1.0
//	@description				Public intake, merchant login and admin endpoints.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // postgres driver

	"github.com/shoppermo/shoppermo-server/internal/server"
	"github.com/shoppermo/shoppermo-server/pkg/database/migrate"
	"github.com/shoppermo/shoppermo-server/pkg/platform"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath  string
	address     string
	envFile     string
	showVersion bool
	migrateOnly bool
}

func parseFlags(args []string) (serverOptions, error) {
	opts := serverOptions{}
	flags := flag.NewFlagSet("shoppermo-server", flag.ContinueOnError)
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.address, "address", "", "Listen address, overrides config and PORT")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file loaded before the config")
	flags.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flags.BoolVar(&opts.migrateOnly, "migrate-only", false, "Apply database migrations and exit")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadEnvFile loads a dotenv file if present. Existing variables win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func newLogger(cfg platform.LogConfig, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

func loadConfig(opts serverOptions) (*platform.Config, error) {
	if err := loadEnvFile(opts.envFile); err != nil {
		return nil, err
	}
	cfg, err := platform.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.address != "" {
		cfg.Server.Address = opts.address
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	if opts.showVersion {
		_, _ = fmt.Fprintln(stdout, server.VersionString())
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stderr))

	if opts.migrateOnly {
		return runMigrations(cfg.Database)
	}

	ctx, stop := setupSignalHandler()
	defer stop()

	return serve(ctx, cfg)
}

func runMigrations(cfg platform.DatabaseConfig) error {
	if cfg.DSN == "" {
		return errors.New("database dsn is required for -migrate-only")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrate.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	version, dirty, err := migrate.Version(db)
	if err != nil {
		return fmt.Errorf("reading migration version: %w", err)
	}
	slog.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

func serve(ctx context.Context, cfg *platform.Config) error {
	slog.Info("starting shoppermo-server", "version", server.Version, "commit", server.Commit)

	p, err := platform.New(platform.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("creating platform: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			slog.Error("closing platform", "error", err)
		}
	}()

	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("starting platform: %w", err)
	}

	go func() {
		<-ctx.Done()
		p.Health().SetDraining()
	}()

	serveErr := server.New(cfg.Server, p.Handler()).Run(ctx)

	// The listener is closed; give background work the same grace period.
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	stopErr := p.Stop(stopCtx)

	slog.Info("shoppermo-server stopped")
	return errors.Join(serveErr, stopErr)
}
