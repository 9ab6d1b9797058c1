package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/controlcenter/internal/applet"
	"github.com/jmylchreest/controlcenter/internal/config"
)

// step is one observed turn of the applet loop.
type step struct {
	ev      applet.Event
	effects []applet.Effect
	snap    applet.Snapshot
}

// session runs the coordinator headless for the non-interactive commands.
type session struct {
	bus    *bus
	loop   *applet.Loop
	steps  chan step
	cancel context.CancelFunc
	done   chan error
	last   step
}

// startSession starts the applet loop. The caller must call stop.
func startSession(ctx context.Context, c *config.Config, logger *slog.Logger) *session {
	runCtx, cancel := context.WithCancel(ctx)

	s := &session{
		bus:    newBus(c, logger),
		steps:  make(chan step, 16),
		cancel: cancel,
		done:   make(chan error, 1),
	}

	s.loop = applet.NewLoop(applet.LoopOptions{
		Connect:   s.bus.connect,
		Subscribe: s.bus.subscribe,
		Logger:    logger,
		Observer: applet.ObserverFunc(func(ev applet.Event, effects []applet.Effect, snap applet.Snapshot) {
			select {
			case s.steps <- step{ev: ev, effects: effects, snap: snap}:
			case <-runCtx.Done():
			}
		}),
	})

	go func() {
		s.done <- s.loop.Run(runCtx)
	}()
	return s
}

// errConnectFailed wraps the connection error reported by the coordinator.
var errConnectFailed = errors.New("failed to connect to session bus")

// waitUntil consumes steps until match accepts one, the connection attempt
// fails or ctx is done. It returns the last step seen either way.
func (s *session) waitUntil(ctx context.Context, match func(step) bool) (step, error) {
	for {
		select {
		case st := <-s.steps:
			s.last = st
			if match(st) {
				return st, nil
			}
			if _, failed := st.ev.(applet.ConnectionFailed); failed {
				return st, fmt.Errorf("%w: %s", errConnectFailed, st.snap.Error)
			}
		case <-ctx.Done():
			return s.last, ctx.Err()
		}
	}
}

// dispatch sends a UI command to the loop.
func (s *session) dispatch(ctx context.Context, ev applet.Event) error {
	return s.loop.Dispatch(ctx, ev)
}

// stop releases every subscription, waits for the loop and closes the bus.
func (s *session) stop() error {
	s.cancel()
	err := <-s.done
	if cerr := s.bus.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close bus connection: %w", cerr)
	}
	return err
}
