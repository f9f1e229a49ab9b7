// Package app wires configuration, storage, notification delivery and the
// HTTP server into a runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/folioapp/portfolio-api/internal/api"
	"github.com/folioapp/portfolio-api/internal/api/handler"
	"github.com/folioapp/portfolio-api/internal/core/ports"
	"github.com/folioapp/portfolio-api/internal/core/service"
	"github.com/folioapp/portfolio-api/internal/infrastructure/config"
	"github.com/folioapp/portfolio-api/internal/infrastructure/db/mongo"
	"github.com/folioapp/portfolio-api/internal/infrastructure/db/postgres"
	"github.com/folioapp/portfolio-api/internal/infrastructure/db/redis"
	"github.com/folioapp/portfolio-api/internal/infrastructure/notify"
	"github.com/folioapp/portfolio-api/internal/infrastructure/queue"
	"github.com/folioapp/portfolio-api/internal/infrastructure/security/password"
	"github.com/folioapp/portfolio-api/internal/infrastructure/security/token"
)

const shutdownTimeout = 10 * time.Second

// store bundles the repositories of one backend with its health check.
type store struct {
	users      ports.UserRepository
	portfolios ports.PortfolioRepository
	check      handler.DependencyCheck
	close      func(context.Context) error
}

type App struct {
	cfg *config.Config
	log zerolog.Logger
}

func New(cfg *config.Config, log zerolog.Logger) *App {
	return &App{cfg: cfg, log: log}
}

// Run serves HTTP until ctx is cancelled, then drains the server and the
// notification workers.
func (a *App) Run(ctx context.Context) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			a.log.Error().Err(err).Msg("close store")
		}
	}()

	checks := []handler.DependencyCheck{st.check}

	sink, sinkCheck, closeSink, err := a.openNotifier(ctx)
	if err != nil {
		return err
	}
	defer closeSink()
	if sinkCheck != nil {
		checks = append(checks, *sinkCheck)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(sink, queue.Options{
		Workers:     a.cfg.Notify.Workers,
		Timeout:     a.cfg.Notify.Timeout,
		MaxAttempts: a.cfg.Notify.MaxAttempts,
	}, a.log)
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	codec, err := token.NewCodec(a.cfg.Token.Secret, token.TTLs{
		Access:        a.cfg.Token.AccessTTL,
		EmailVerify:   a.cfg.Token.EmailVerifyTTL,
		PasswordReset: a.cfg.Token.PasswordResetTTL,
		AccountDelete: a.cfg.Token.AccountDeleteTTL,
	})
	if err != nil {
		return err
	}
	hasher := password.NewBcryptHasher(a.cfg.Token.BcryptCost)

	sessions := service.NewSessionService(st.users, codec)
	accounts := service.NewAccountService(st.users, hasher, codec, sessions, dispatcher, service.MailOptions{
		AppName:     a.cfg.AppName,
		FrontendURL: a.cfg.FrontendURL,
	}, a.log)
	portfolios := service.NewPortfolioService(st.portfolios, st.users, a.log)
	admin := service.NewAdminService(st.users, st.portfolios, hasher, a.log)

	e := api.NewRouter(api.Deps{
		Accounts:      accounts,
		Sessions:      sessions,
		Portfolios:    portfolios,
		Admin:         admin,
		Checks:        checks,
		FrontendURL:   a.cfg.FrontendURL,
		AuthRateLimit: a.cfg.AuthRateLimit,
		Logger:        a.log,
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.cfg.Port).Str("store", a.cfg.Store.Driver).Str("notifier", a.cfg.Notify.Driver).Msg("starting server")
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func (a *App) openStore(ctx context.Context) (*store, error) {
	switch a.cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      a.cfg.Mongo.URI,
			Database: a.cfg.Mongo.Database,
			AppName:  a.cfg.AppName,
		})
		if err != nil {
			return nil, err
		}
		users, portfolios := mongo.NewUserRepository(db), mongo.NewPortfolioRepository(db)
		if err := mongo.EnsureIndexes(ctx, users, portfolios); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &store{
			users:      users,
			portfolios: portfolios,
			check: handler.DependencyCheck{Name: "mongodb", Ping: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			}},
			close: client.Disconnect,
		}, nil

	default:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: a.cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &store{
			users:      postgres.NewUserRepository(db),
			portfolios: postgres.NewPortfolioRepository(db),
			check:      handler.DependencyCheck{Name: "postgres", Ping: db.PingContext},
			close:      func(context.Context) error { return db.Close() },
		}, nil
	}
}

func (a *App) openNotifier(ctx context.Context) (ports.Notifier, *handler.DependencyCheck, func(), error) {
	if a.cfg.Notify.Driver != config.NotifierDriverRedis {
		return notify.NewLogNotifier(a.log), nil, func() {}, nil
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	check := &handler.DependencyCheck{Name: "redis", Ping: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
	return redis.NewOutbox(rdb, a.cfg.Notify.Stream, a.log), check, func() { _ = rdb.Close() }, nil
}
