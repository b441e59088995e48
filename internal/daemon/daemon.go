// Package daemon wires the window state subsystem together and runs it
// under a suture supervisor: the X11 connection, the state store, the
// window manager surface, the topology tracker and the IPC server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/phsym/console-slog"
	"github.com/thejerf/suture/v4"

	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/ipc"
	"github.com/winkeep/winkeep/internal/runtimepath"
	"github.com/winkeep/winkeep/internal/state"
	"github.com/winkeep/winkeep/internal/tracker"
	"github.com/winkeep/winkeep/internal/windows"
	"github.com/winkeep/winkeep/internal/x11"
)

// resyncInterval is the safety-net period for topology reconciliation,
// catching changes whose RandR notifications were missed.
const resyncInterval = 30 * time.Second

// Options configures a daemon run.
type Options struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string
	Debug      bool
}

// Run starts the daemon and blocks until ctx is cancelled or a fatal
// error occurs. State is flushed on the way out.
func Run(ctx context.Context, opts Options) error {
	logger := newLogger(opts.Debug)
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	statePath := cfg.StateFile
	if statePath == "" {
		statePath, err = runtimepath.StatePath()
		if err != nil {
			return fmt.Errorf("failed to resolve state path: %w", err)
		}
	}

	conn, err := x11.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	registry := x11.NewRegistry(conn)
	if n, err := registry.Discover(); err != nil {
		logger.Warn("window discovery failed", "error", err)
	} else {
		logger.Info("discovered live windows", "count", n)
	}

	store := state.NewStore(statePath, cfg, conn, logger)
	store.Load()
	defer func() {
		if err := store.Flush(); err != nil {
			logger.Error("final state flush failed", "error", err)
		}
	}()

	manager := windows.NewManager(store, cfg, conn, registry, logger)
	track := tracker.New(store, conn, conn, registry, logger)

	if err := watchLiveWindows(registry, manager, logger); err != nil {
		logger.Warn("geometry watch setup failed", "error", err)
	}

	reloadChan := make(chan *config.Config, 1)
	server, err := ipc.NewServer(manager, store, reloadChan)
	if err != nil {
		return err
	}

	super := suture.New("winkeep", suture.Spec{
		EventHook: eventHook(logger),
	})
	super.Add(sanitize{server})
	super.Add(sanitize{track})
	super.Add(sanitize{&resyncService{tracker: track}})
	super.Add(sanitize{&reloadService{
		manager: manager,
		tracker: track,
		ch:      reloadChan,
		logger:  logger,
	}})

	logger.Info("winkeep daemon starting", "state_path", statePath)
	err = super.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// watchLiveWindows subscribes the manager to ConfigureNotify events of
// every discovered window, feeding the debounced persistence path.
func watchLiveWindows(registry *x11.Registry, manager *windows.Manager, logger *slog.Logger) error {
	for _, kind := range state.Kinds() {
		if _, ok := registry.LiveHandle(kind.String()); !ok {
			continue
		}
		err := registry.WatchGeometry(kind.String(), func(bounds geometry.Rect) {
			if err := manager.HandleGeometryChange(kind, bounds); err != nil {
				logger.Error("failed to record geometry change", "window", kind, "error", err)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: level,
	}))
}
