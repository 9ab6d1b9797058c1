package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Connection is a live session-bus connection.
// It is shared by reference between the coordinator and the daemon subscription.
type Connection struct {
	conn *dbus.Conn
}

// ID returns the connection's unique bus name (e.g. ":1.42").
// Two handles with the same ID refer to the same session.
func (c *Connection) ID() string {
	if c == nil || c.conn == nil {
		return ""
	}
	names := c.conn.Names()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// Conn returns the underlying godbus connection.
func (c *Connection) Conn() *dbus.Conn {
	return c.conn
}

// Close closes the connection. Closing also closes any registered signal channels.
func (c *Connection) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Connector establishes session-bus connections.
type Connector struct {
	logger *slog.Logger
}

// NewConnector creates a new Connector.
func NewConnector(logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{logger: logger}
}

// Connect makes a single attempt to open a private session-bus connection.
// There is no retry; ctx bounds the attempt only if the caller gives it a deadline.
func (c *Connector) Connect(ctx context.Context) (*Connection, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	handle := &Connection{conn: conn}
	c.logger.Debug("connected to session bus", "unique_name", handle.ID())
	return handle, nil
}
