package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/controlcenter/internal/applet"
	"github.com/jmylchreest/controlcenter/internal/config"
	"github.com/jmylchreest/controlcenter/internal/daemon"
	"github.com/jmylchreest/controlcenter/internal/dbus"
)

// bus wires the session bus and the settings daemon into the applet runtime.
// It keeps the connection it hands out so it can be closed on exit.
type bus struct {
	cfg       *config.Config
	logger    *slog.Logger
	connector *dbus.Connector

	mu   sync.Mutex
	conn *dbus.Connection
}

func newBus(c *config.Config, logger *slog.Logger) *bus {
	return &bus{
		cfg:       c,
		logger:    logger,
		connector: dbus.NewConnector(logger),
	}
}

func (b *bus) target() dbus.Target {
	return dbus.Target{
		Service:   b.cfg.Daemon.Service,
		Path:      b.cfg.Daemon.Path,
		Interface: b.cfg.Daemon.Interface,
	}
}

// connect is an applet.ConnectFunc.
func (b *bus) connect(ctx context.Context) (applet.Connection, error) {
	conn, err := b.connector.Connect(ctx)
	if err != nil {
		// Never hand a typed nil back as an interface
		return nil, err
	}

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()
	return conn, nil
}

// subscribe is an applet.SubscribeFunc.
func (b *bus) subscribe(ctx context.Context, conn applet.Connection) <-chan daemon.Event {
	c, ok := conn.(*dbus.Connection)
	if !ok {
		b.logger.Error("unexpected connection type", "id", conn.ID())
		out := make(chan daemon.Event)
		close(out)
		return out
	}

	proxy := dbus.NewSettingsDaemon(c, b.target(), b.logger)
	return daemon.Subscribe(ctx, proxy, daemon.Options{
		QueueSize: b.cfg.Daemon.RequestQueue,
		Logger:    b.logger,
	})
}

// daemonAvailable reports whether the settings daemon owns its bus name.
// It returns false when no connection has been made.
func (b *bus) daemonAvailable(ctx context.Context) (bool, error) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	if conn == nil {
		return false, nil
	}
	return dbus.NewSettingsDaemon(conn, b.target(), b.logger).Available(ctx)
}

// Close closes the bus connection, if one was made.
func (b *bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.conn.Close()
	b.conn = nil
	return err
}
