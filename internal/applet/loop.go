package applet

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmylchreest/controlcenter/internal/daemon"
	"github.com/jmylchreest/controlcenter/internal/subscription"
)

// ErrLoopStopped is returned by Dispatch once the loop has exited.
var ErrLoopStopped = errors.New("applet loop stopped")

// ConnectFunc makes the single bus connection attempt.
type ConnectFunc func(ctx context.Context) (Connection, error)

// Observer receives every step of the loop, on the loop goroutine.
// ev and effects are nil for the initial snapshot.
type Observer interface {
	Observe(ev Event, effects []Effect, snap Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event, effects []Effect, snap Snapshot)

// Observe calls f.
func (f ObserverFunc) Observe(ev Event, effects []Effect, snap Snapshot) {
	f(ev, effects, snap)
}

// LoopOptions configures a Loop.
type LoopOptions struct {
	Connect   ConnectFunc
	Subscribe SubscribeFunc
	Observer  Observer
	Logger    *slog.Logger
}

// Loop is a headless single-threaded runtime for a Coordinator.
type Loop struct {
	coord     *Coordinator
	connect   ConnectFunc
	subscribe SubscribeFunc
	observer  Observer
	logger    *slog.Logger

	commands chan Event
	done     chan struct{}
}

// NewLoop creates a Loop with a fresh Coordinator.
func NewLoop(opts LoopOptions) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = ObserverFunc(func(Event, []Effect, Snapshot) {})
	}
	return &Loop{
		coord:     NewCoordinator(logger),
		connect:   opts.Connect,
		subscribe: opts.Subscribe,
		observer:  observer,
		logger:    logger,
		commands:  make(chan Event, 16),
		done:      make(chan struct{}),
	}
}

// Dispatch queues a UI command for the loop.
// It must not be called from the Observer.
func (l *Loop) Dispatch(ctx context.Context, ev Event) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case l.commands <- ev:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run issues the connection attempt and processes events until ctx is done.
// On return every daemon subscription has been released. Run must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	subs := subscription.NewSet[daemon.Event](ctx, 16, l.logger)
	defer subs.Close()

	results := make(chan Event, 1)
	if l.coord.Begin() {
		go func() {
			results <- l.connect.Attempt(ctx)
		}()
	}

	l.observer.Observe(nil, nil, l.coord.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-results:
			l.step(subs, ev)

		case ev := <-subs.Events():
			if mapped := FromDaemon(ev); mapped != nil {
				l.step(subs, mapped)
			}

		case ev := <-l.commands:
			l.step(subs, ev)
		}
	}
}

// Attempt runs the connection attempt and turns its outcome into exactly one
// event. A nil ConnectFunc fails.
func (f ConnectFunc) Attempt(ctx context.Context) Event {
	if f == nil {
		return ConnectionFailed{Err: errors.New("no bus connector configured")}
	}
	conn, err := f(ctx)
	if err != nil {
		return ConnectionFailed{Err: err}
	}
	if conn == nil {
		return ConnectionFailed{Err: errors.New("bus connector returned no connection")}
	}
	return ConnectionEstablished{Conn: conn}
}

// step applies one event, recomposes subscriptions and notifies the observer.
func (l *Loop) step(subs *subscription.Set[daemon.Event], ev Event) {
	effects := l.coord.Update(ev)

	if started, stopped := subs.Recompose(l.coord.Subscriptions(l.subscribe)); started+stopped > 0 {
		l.logger.Debug("subscriptions recomposed", "started", started, "stopped", stopped)
	}

	l.observer.Observe(ev, effects, l.coord.Snapshot())
}
