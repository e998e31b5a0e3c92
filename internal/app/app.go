// Package app wires the voiceout service together.
package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/code19m/errx"
	"github.com/spf13/afero"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/voiceout/broadcast"
	"github.com/rise-and-shine/voiceout/filestore"
	"github.com/rise-and-shine/voiceout/filestore/localfs"
	"github.com/rise-and-shine/voiceout/filestore/miniowr"
	"github.com/rise-and-shine/voiceout/filestore/pgblob"
	"github.com/rise-and-shine/voiceout/http/server"
	"github.com/rise-and-shine/voiceout/http/server/middleware"
	"github.com/rise-and-shine/voiceout/internal/voiceout/api"
	"github.com/rise-and-shine/voiceout/internal/voiceout/repo"
	"github.com/rise-and-shine/voiceout/observability/logger"
	"github.com/rise-and-shine/voiceout/observability/tracing"
	"github.com/rise-and-shine/voiceout/pg"
	"github.com/rise-and-shine/voiceout/upload"
)

const pgblobMediaRoute = "/api/media"

// App owns every long lived resource of the service.
type App struct {
	cfg Config
	log logger.Logger

	db  *bun.DB
	hub *broadcast.Hub
	bus *broadcast.Bus
	srv *server.HTTPServer

	stopConsume    context.CancelFunc
	shutdownTracer func() error
	closeOnce      sync.Once
}

// New builds the service. The global logger must already be set.
func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg, log: logger.Named("app")}

	var err error
	a.shutdownTracer, err = tracing.InitGlobalTracer(cfg.Tracing, cfg.Service.Name, cfg.Service.Version)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	a.db, err = pg.NewBunDB(ctx, cfg.Postgres)
	if err != nil {
		return nil, a.abort(err)
	}

	if cfg.Postgres.AutoMigrate {
		if err = a.migrate(ctx); err != nil {
			return nil, a.abort(err)
		}
	}

	store, mediaRoute, refPrefix, err := a.newMediaStore(ctx)
	if err != nil {
		return nil, a.abort(err)
	}

	a.hub = broadcast.NewHub()
	a.bus = broadcast.NewBus()

	consumeCtx, cancel := context.WithCancel(context.Background())
	a.stopConsume = cancel
	if err = a.hub.Consume(consumeCtx, a.bus); err != nil {
		return nil, a.abort(err)
	}

	acceptor := upload.NewAcceptor(store, cfg.Media.Upload, upload.NewNamer(),
		upload.WithMaxImageWidth(cfg.Media.MaxImageWidth),
	)

	a.srv = server.NewHTTPServer(cfg.HTTPServer, a.middlewares())
	a.srv.RegisterRouter(api.NewRouter(api.Deps{
		Posts:          repo.NewPostRepo(a.db),
		Feedbacks:      repo.NewFeedbackRepo(a.db),
		Media:          store,
		Acceptor:       acceptor,
		Publisher:      a.bus,
		Hub:            a.hub,
		MediaRoute:     mediaRoute,
		MediaRefPrefix: refPrefix,
	}))

	return a, nil
}

func (a *App) middlewares() []server.Middleware {
	httpLog := logger.Named("http")
	return []server.Middleware{
		middleware.NewRecoveryMW(httpLog),
		middleware.NewCORSMW(),
		middleware.NewTracingMW(),
		middleware.NewTimeoutMW(a.cfg.HTTPServer.HandleTimeout),
		middleware.NewMetaInjectMW(a.cfg.Service.Name, a.cfg.Service.Version),
		middleware.NewLoggerMW(httpLog),
		middleware.NewErrorHandlerMW(a.cfg.HTTPServer.HideErrorDetails),
	}
}

func (a *App) migrate(ctx context.Context) error {
	if err := repo.Migrate(ctx, a.db); err != nil {
		return errx.Wrap(err)
	}
	if a.cfg.Media.Backend == BackendPGBlob {
		if err := pgblob.Migrate(ctx, a.db); err != nil {
			return errx.Wrap(err)
		}
	}
	a.log.Info("database schema is up to date")
	return nil
}

// newMediaStore returns the configured sink with the route it is served from
// and the prefix that turns a served name back into a ref.
func (a *App) newMediaStore(ctx context.Context) (filestore.FileStore, string, string, error) {
	cfg := a.cfg.Media

	switch cfg.Backend {
	case BackendLocal:
		store, err := localfs.New(afero.NewOsFs(), cfg.Local)
		if err != nil {
			return nil, "", "", errx.Wrap(err)
		}
		prefix := strings.Trim(cfg.Local.RefPrefix, "/")
		return store, "/" + prefix, prefix + "/", nil

	case BackendPGBlob:
		return pgblob.New(a.db, cfg.PGBlob), pgblobMediaRoute, "", nil

	case BackendMinio:
		if cfg.Minio == nil {
			return nil, "", "", errx.New("media.minio section is required for the minio backend")
		}
		client, err := miniowr.New(*cfg.Minio)
		if err != nil {
			return nil, "", "", errx.Wrap(err)
		}
		if err = client.EnsureBucket(ctx); err != nil {
			return nil, "", "", errx.Wrap(err)
		}
		// objects are fetched from the bucket's public URL
		return client, "", "", nil
	}

	return nil, "", "", errx.New("unknown media backend", errx.WithDetails(errx.D{"backend": cfg.Backend}))
}

// Run serves HTTP until ctx is done, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.With("address", a.cfg.HTTPServer.Address()).Info("http server is listening")
		errCh <- a.srv.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-errCh:
		runErr = errx.Wrap(runErr)
	}

	return errors.Join(runErr, a.Close())
}

// Close releases every resource. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		// websocket connections are hijacked and would keep Stop waiting
		if a.hub != nil {
			a.hub.Close()
		}
		if a.srv != nil {
			errs = append(errs, a.srv.Stop())
		}
		if a.stopConsume != nil {
			a.stopConsume()
		}
		if a.bus != nil {
			errs = append(errs, a.bus.Close())
		}
		if a.db != nil {
			errs = append(errs, a.db.Close())
		}
		if a.shutdownTracer != nil {
			errs = append(errs, a.shutdownTracer())
		}
	})
	return errx.Wrap(errors.Join(errs...))
}

func (a *App) abort(err error) error {
	if closeErr := a.Close(); closeErr != nil {
		a.log.Warnx(closeErr)
	}
	return errx.Wrap(err)
}
