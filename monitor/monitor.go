package monitor

import (
	"context"
	"log/slog"
	"time"

	"tgmonitor/models"
)

// Options tunes a Monitor.
type Options struct {
	RecordOutgoing bool
	TTL            time.Duration
	SweepInterval  time.Duration
}

// Monitor serializes arrival recording, deletion reconciliation and
// retention sweeps on a single loop.
type Monitor struct {
	log        *slog.Logger
	recorder   *Recorder
	reconciler *Reconciler
	sweeper    *Sweeper
}

// New wires a Monitor over a store and a chat service.
func New(store MessageStore, chat ChatService, log *slog.Logger, opts Options) *Monitor {
	return &Monitor{
		log:        log,
		recorder:   NewRecorder(store, log.With("component", "recorder"), opts.RecordOutgoing),
		reconciler: NewReconciler(store, chat, log.With("component", "reconciler")),
		sweeper:    NewSweeper(store, log.With("component", "sweeper"), opts.TTL, opts.SweepInterval),
	}
}

// Run sweeps once, then consumes events until ctx is cancelled or the events
// channel is closed, sweeping every interval. Storage errors stop the loop.
func (m *Monitor) Run(ctx context.Context, events <-chan models.Event) error {
	if _, err := m.sweeper.Sweep(); err != nil {
		return err
	}

	ticker := time.NewTicker(m.sweeper.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("Monitor stopped")
			return nil
		case event, ok := <-events:
			if !ok {
				m.log.Info("Event stream closed")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			if err := m.Handle(ctx, event); err != nil {
				return err
			}
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			if _, err := m.sweeper.Sweep(); err != nil {
				return err
			}
		}
	}
}

// Handle dispatches a single event.
func (m *Monitor) Handle(ctx context.Context, event models.Event) error {
	switch {
	case event.Arrival != nil:
		_, err := m.recorder.Record(*event.Arrival)
		return err
	case event.Deletion != nil:
		_, err := m.reconciler.Reconcile(ctx, *event.Deletion)
		return err
	default:
		return nil
	}
}
