// Package server wires configuration, storage, services and the HTTP API
// together and runs them until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/netx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/config"
	"github.com/dmitrijs2005/dashkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dashkeeper/internal/server/rest"
	"github.com/dmitrijs2005/dashkeeper/internal/server/services"
	"github.com/dmitrijs2005/dashkeeper/internal/server/telemetry"
)

const serviceName = "dashkeeper"

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	server      *rest.HTTPServer
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	prober := netx.NewProber(nil)

	svc := rest.Services{
		Users:      services.NewUserService(db, m, c, logger),
		Resets:     services.NewResetService(db, m, newNotifier(c, logger), c, logger),
		Dashboards: services.NewDashboardService(db, m, logger),
		Exports:    services.NewExportService(db, m, c, logger),
		Sources:    services.NewSourceService(db, m, prober, logger),
		General:    services.NewGeneralService(db, m, prober, logger),
	}

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: m,
		server:      rest.NewHTTPServer(c.HTTPAddr, logger, c.SecretKey, svc),
	}, nil
}

// newNotifier sends through SendGrid when an API key is configured and only
// logs otherwise.
func newNotifier(c *config.Config, logger logging.Logger) mailer.Notifier {
	if c.SendGridAPIKey == "" {
		return mailer.NewLogNotifier(logger)
	}
	return mailer.NewSendGridNotifier(c.SendGridAPIKey, c.MailFrom)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run migrates the schema and serves until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close failed", "error", err)
		}
	}()

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	shutdownTracer, err := telemetry.InitTracer(serviceName, app.config.TraceStdout, os.Stdout)
	if err != nil {
		return fmt.Errorf("tracer init: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			app.logger.Error(ctx, "tracer shutdown failed", "error", err)
		}
	}()

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return nil
}
