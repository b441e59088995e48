package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/tracker"
	"github.com/winkeep/winkeep/internal/windows"
)

// resyncService periodically reconciles window records against the
// topology, as a safety net for missed RandR notifications.
type resyncService struct {
	tracker *tracker.Tracker
}

func (s *resyncService) String() string { return "resync" }

func (s *resyncService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(resyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.tracker.Reconcile(); n > 0 {
				slog.Info("periodic resync corrected windows", "corrected", n)
			}
		}
	}
}

// reloadService applies configs pushed by the IPC RELOAD command. The
// IPC server has already swapped the store's config and revalidated;
// this propagates the config to the manager and re-runs reconciliation.
type reloadService struct {
	manager *windows.Manager
	tracker *tracker.Tracker
	ch      chan *config.Config
	logger  *slog.Logger
}

func (s *reloadService) String() string { return "config-reload" }

func (s *reloadService) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cfg := <-s.ch:
			s.manager.SetConfig(cfg)
			s.tracker.Reconcile()
			s.logger.Info("configuration reloaded")
		}
	}
}

// eventHook routes supervisor events to slog.
func eventHook(logger *slog.Logger) suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventStopTimeout:
			logger.Info("service failed to terminate in a timely manner",
				slog.String("supervisor", e.SupervisorName), slog.String("service", e.ServiceName))
		case suture.EventServicePanic:
			logger.Warn("caught a service panic")
			logger.Info(e.Stacktrace, slog.String("panic", e.PanicMsg))
		case suture.EventServiceTerminate:
			logger.Error("service failed",
				slog.Any("error", e.Err), slog.String("supervisor", e.SupervisorName), slog.String("service", e.ServiceName))
		case suture.EventBackoff:
			logger.Debug("too many service failures, entering backoff", slog.String("supervisor", e.SupervisorName))
		case suture.EventResume:
			logger.Debug("exiting backoff", slog.String("supervisor", e.SupervisorName))
		default:
			b, _ := json.Marshal(e)
			logger.Warn("unknown supervisor event", "event", string(b))
		}
	}
}

// sanitize prevents a service's non-context error from being mistaken
// for a context error, which would stop the service instead of
// restarting it.
type sanitize struct {
	service
}

type service interface {
	String() string
	suture.Service
}

func (s sanitize) Serve(ctx context.Context) error {
	err := s.service.Serve(ctx)
	if err == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.New(err.Error())
	}
	return err
}
