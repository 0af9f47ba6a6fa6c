package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/grocerly/grocerly/internal/config"
	"github.com/grocerly/grocerly/internal/connectivity"
	"github.com/grocerly/grocerly/internal/kv"
	"github.com/grocerly/grocerly/internal/queue"
	"github.com/grocerly/grocerly/internal/reconcile"
	"github.com/grocerly/grocerly/internal/retry"
	"github.com/grocerly/grocerly/internal/rowstore"
)

// App wires the core subsystems together for one CLI invocation.
//
// CLI commands run locally against SQLite, so the connectivity observer is
// manual and reports online; the drain path is still the same code the app
// runs against the hosted backend.
type App struct {
	Config     config.Config
	Log        *slog.Logger
	Store      *rowstore.SQLite
	KV         *kv.Badger
	Net        *connectivity.Manual
	Queue      *queue.Queue
	Reconciler *reconcile.Reconciler
}

// openApp loads config and opens every subsystem.
func openApp(opts *RootOptions) (*App, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load config", err)
		}
		cfg = loaded
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := rowstore.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}

	kvStore, err := kv.OpenBadger(kv.DefaultConfig(cfg.QueuePath))
	if err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "open queue store", err)
	}

	net := connectivity.NewManual(true)
	q := queue.New(kvStore, net,
		queue.WithLogger(log),
		queue.WithCeiling(cfg.Queue.Ceiling),
		queue.WithSettleDelay(cfg.Queue.Settle()),
	)
	rec := reconcile.New(store, reconcile.WithLogger(log))

	app := &App{
		Config:     cfg,
		Log:        log,
		Store:      store,
		KV:         kvStore,
		Net:        net,
		Queue:      q,
		Reconciler: rec,
	}
	app.registerHandlers()
	return app, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.KV != nil {
		a.KV.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

// Wire formats for the generic row-operation handlers. These are the
// payloads the mobile app enqueues while offline.

type filterArg struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  any    `json:"value"`
}

func (f filterArg) filter() rowstore.Filter {
	return rowstore.Filter{Column: f.Column, Op: rowstore.Op(f.Op), Value: f.Value}
}

type insertArgs struct {
	Table string         `json:"table"`
	Rows  []rowstore.Row `json:"rows"`
}

type updateArgs struct {
	Table   string       `json:"table"`
	Patch   rowstore.Row `json:"patch"`
	Filters []filterArg  `json:"filters"`
}

type deleteArgs struct {
	Table   string      `json:"table"`
	Filters []filterArg `json:"filters"`
}

// registerHandlers binds the generic row-operation replay handlers.
// Each handler wraps its remote call in the retry engine so a drain
// tolerates transient failures without spending the queue's attempt budget.
func (a *App) registerHandlers() {
	retryOpts := func() []retry.Option {
		return []retry.Option{
			retry.WithMaxRetries(a.Config.Retry.MaxRetries),
			retry.WithInitialDelay(a.Config.Retry.InitialDelay()),
		}
	}

	a.Queue.RegisterHandler("rowstore.insert", func(ctx context.Context, raw json.RawMessage) error {
		var args insertArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return err
		}
		_, err := retry.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, a.Store.InsertMany(ctx, args.Table, args.Rows)
		}, retryOpts()...)
		return err
	})

	a.Queue.RegisterHandler("rowstore.update", func(ctx context.Context, raw json.RawMessage) error {
		var args updateArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return err
		}
		filters := make([]rowstore.Filter, len(args.Filters))
		for i, f := range args.Filters {
			filters[i] = f.filter()
		}
		_, err := retry.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, a.Store.UpdateWhere(ctx, args.Table, args.Patch, filters...)
		}, retryOpts()...)
		return err
	})

	a.Queue.RegisterHandler("rowstore.delete", func(ctx context.Context, raw json.RawMessage) error {
		var args deleteArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return err
		}
		filters := make([]rowstore.Filter, len(args.Filters))
		for i, f := range args.Filters {
			filters[i] = f.filter()
		}
		_, err := retry.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, a.Store.DeleteWhere(ctx, args.Table, filters...)
		}, retryOpts()...)
		return err
	})
}
