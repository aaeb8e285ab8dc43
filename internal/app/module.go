package app

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/shtorm-im/shtorm/internal/bus"
	"github.com/shtorm-im/shtorm/internal/config"
	"github.com/shtorm-im/shtorm/internal/dispatch"
	"github.com/shtorm-im/shtorm/internal/lock"
	"github.com/shtorm-im/shtorm/internal/logging"
	"github.com/shtorm-im/shtorm/internal/session"
	"github.com/shtorm-im/shtorm/internal/status"
	"github.com/shtorm-im/shtorm/internal/store"
	intsync "github.com/shtorm-im/shtorm/internal/sync"
	"github.com/shtorm-im/shtorm/internal/transport"
	"github.com/shtorm-im/shtorm/internal/tui"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
}

// Module returns the fx module for the client, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("shtorm",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideTransport,
			provideSessionManager,
			provideSyncEngine,
			provideDispatcher,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideConfig(logger *zap.Logger) *config.Config {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("config unreadable, using defaults", zap.Error(err))
		}
		return config.Default()
	}
	return cfg
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.Store, error) {
	dbPath := session.DBPath(p.SessionName)
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := st.Migrate()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return st, nil
}

func provideTransport(cfg *config.Config, logger *zap.Logger) *transport.Client {
	return transport.New(cfg.AuthURL, cfg.ChatsURL, logger)
}

func provideSessionManager(st *store.Store, client *transport.Client, machine *status.Machine, logger *zap.Logger) *session.Manager {
	return session.NewManager(st, client, machine, logger)
}

func provideSyncEngine(cfg *config.Config, client *transport.Client, sessions *session.Manager, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	interval := time.Duration(cfg.PollIntervalMS) * time.Millisecond
	return intsync.NewEngine(client, sessions, b, logger, interval)
}

func provideDispatcher(client *transport.Client, engine *intsync.Engine, sessions *session.Manager, b *bus.Bus, logger *zap.Logger) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(client, engine, sessions, b, logger)
}

func provideApp(p Params, b *bus.Bus, sessions *session.Manager, engine *intsync.Engine, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *tui.App {
	return tui.NewApp(b, sessions, engine, dispatcher, logger, p.SessionName)
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, app *tui.App, sessions *session.Manager, engine *intsync.Engine, st *store.Store, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Restore persisted credentials before the UI decides which
			// page to show first.
			sessions.Restore()

			go func() {
				if err := app.Run(); err != nil {
					logger.Error("ui error", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			app.Stop()
			engine.Stop()
			if err := st.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
