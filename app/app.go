package app

import (
	"context"

	"log/slog"

	"github.com/ifooddash/dashboard/config"
	httpapi "github.com/ifooddash/dashboard/internal/api/http"
	"github.com/ifooddash/dashboard/internal/apisrv/auth"
	"github.com/ifooddash/dashboard/internal/apisrv/dashboard"
	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/metricsjob"
	"github.com/ifooddash/dashboard/internal/ordersource"
	"github.com/ifooddash/dashboard/internal/store"
)

// App is the main application
type App struct {
	hs   *httpapi.Server
	db   dependency.Repository
	job  *metricsjob.Worker
	c    *config.Config
	done chan struct{}
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

// Start starts the app
func (a *App) Start(ctx context.Context) error {
	var err error
	slog.Default().InfoContext(ctx, "starting dashboard service")

	a.db, err = store.New(ctx, a.c.DB)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't connect to mysql",
			slog.String("err", err.Error()))
		return err
	}

	authS, err := auth.New(&a.c.Auth, a.db)
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to create auth server",
			slog.String("err", err.Error()))
		return err
	}

	source := ordersource.NewMock()
	dashboardS := dashboard.New(a.db, source, authS.Limiter())

	a.job, err = metricsjob.New(a.db, source, &a.c.MetricsJob)
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to create metrics worker",
			slog.String("err", err.Error()))
		return err
	}
	if err := a.job.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start metrics worker",
			slog.String("err", err.Error()))
		return err
	}

	a.hs = httpapi.New(&a.c.HTTP)
	if err = a.hs.Start(ctx, authS, dashboardS); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server",
			slog.String("err", err.Error()))
		return err
	}

	go func() {
		<-a.hs.Done()
		close(a.done)
	}()

	return nil
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.job != nil {
		a.job.Stop()
	}
	if a.hs != nil {
		a.hs.Stop(ctx)
	}
	if a.db != nil {
		a.db.Close()
	}
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() chan struct{} {
	return a.done
}
