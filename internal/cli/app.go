package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"kidflix/internal/config"
	"kidflix/internal/featureflags"
	"kidflix/internal/kvstore"
	"kidflix/internal/notifications"
	"kidflix/internal/observability"
	"kidflix/internal/query"
	"kidflix/internal/session"
	"kidflix/internal/store"
)

const serviceName = "kidflix"

// App is the wired set of components one command runs against.
type App struct {
	Config *config.Config
	KV     kvstore.Store
	Store  *store.Store
	Gate   *session.Gate
	Views  *query.Views
	Flags  *featureflags.Manager

	logCloser       io.Closer
	shutdownTracing func(context.Context) error
}

// AppOptions controls process-level wiring.
type AppOptions struct {
	Version string
	// LogOutput receives console log records. Nil discards them; the
	// optional LOG_FILE sink is unaffected.
	LogOutput io.Writer
	// Stderr receives the terminal bell.
	Stderr io.Writer
}

// OpenApp loads configuration, sets up logging and tracing, opens the
// configured snapshot backend and rehydrates the store from it.
func OpenApp(ctx context.Context, opts AppOptions) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	out := opts.LogOutput
	if out == nil {
		out = io.Discard
	}
	logCloser := observability.SetupLogging(observability.LogOptions{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Output:     out,
	})

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: opts.Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		SamplerRatio:   cfg.TracingRatio,
	})
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	kv, err := kvstore.Open(cfg)
	if err != nil {
		_ = shutdown(ctx)
		_ = logCloser.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageDriver, err)
	}

	st := store.New(kv, cfg.SnapshotKey)
	if err := st.Load(ctx); err != nil {
		_ = kv.Close()
		_ = shutdown(ctx)
		_ = logCloser.Close()
		return nil, err
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	notifications.NewWatcher(chimeFor(kv, opts.Stderr), flags).Attach(st)

	observability.GlobalLogger.InfoContext(ctx, "app opened",
		slog.String("driver", kv.Driver()),
		slog.String("env", cfg.Env),
		slog.String("correlation_id", observability.ExtractCorrelationID(ctx)),
	)

	return &App{
		Config:          cfg,
		KV:              kv,
		Store:           st,
		Gate:            session.New(st),
		Views:           query.New(st),
		Flags:           flags,
		logCloser:       logCloser,
		shutdownTracing: shutdown,
	}, nil
}

// chimeFor publishes chimes over redis when that is the backend, and
// rings the terminal bell otherwise.
func chimeFor(kv kvstore.Store, stderr io.Writer) notifications.Chime {
	if r, ok := kv.(*kvstore.Redis); ok {
		return notifications.NewPublisher(r.Client())
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return notifications.NewBell(stderr)
}

// Close releases the backend, flushes tracing and closes the log file.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(
		a.KV.Close(),
		a.shutdownTracing(ctx),
		a.logCloser.Close(),
	)
}
