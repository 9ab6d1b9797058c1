package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// SettingsDaemon is a client proxy for the settings daemon's brightness properties.
type SettingsDaemon struct {
	conn   *dbus.Conn
	obj    dbus.BusObject
	target Target
	logger *slog.Logger
}

// NewSettingsDaemon creates a proxy for target over conn.
func NewSettingsDaemon(conn *Connection, target Target, logger *slog.Logger) *SettingsDaemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsDaemon{
		conn:   conn.Conn(),
		obj:    conn.Conn().Object(target.Service, dbus.ObjectPath(target.Path)),
		target: target,
		logger: logger,
	}
}

// Available reports whether the daemon's bus name currently has an owner.
func (d *SettingsDaemon) Available(ctx context.Context) (bool, error) {
	var hasOwner bool
	err := d.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, d.target.Service).Store(&hasOwner)
	if err != nil {
		return false, fmt.Errorf("failed to query owner of %s: %w", d.target.Service, err)
	}
	return hasOwner, nil
}

// MaxDisplayBrightness reads the MaxDisplayBrightness property.
func (d *SettingsDaemon) MaxDisplayBrightness(ctx context.Context) (int32, error) {
	return d.getInt32(ctx, PropMaxDisplayBrightness)
}

// DisplayBrightness reads the DisplayBrightness property.
func (d *SettingsDaemon) DisplayBrightness(ctx context.Context) (int32, error) {
	return d.getInt32(ctx, PropDisplayBrightness)
}

// SetDisplayBrightness writes the DisplayBrightness property.
func (d *SettingsDaemon) SetDisplayBrightness(ctx context.Context, value int32) error {
	err := d.obj.CallWithContext(ctx, PropertiesInterface+".Set", 0,
		d.target.Interface, PropDisplayBrightness, dbus.MakeVariant(value)).Err
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", PropDisplayBrightness, err)
	}
	return nil
}

// getInt32 reads an integer property from the target interface.
func (d *SettingsDaemon) getInt32(ctx context.Context, name string) (int32, error) {
	var v dbus.Variant
	err := d.obj.CallWithContext(ctx, PropertiesInterface+".Get", 0, d.target.Interface, name).Store(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", name, err)
	}

	n, ok := variantInt32(v)
	if !ok {
		return 0, fmt.Errorf("invalid %s type: %s", name, v.Signature())
	}
	return n, nil
}

// WatchProperties registers a match rule for PropertiesChanged on the target
// object and streams decoded changes until ctx is cancelled or the connection
// closes. The returned channel is closed only after the match rule and the
// signal channel have been released.
func (d *SettingsDaemon) WatchProperties(ctx context.Context) (<-chan PropertyChange, error) {
	path := dbus.ObjectPath(d.target.Path)
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(PropertiesInterface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, d.target.Interface),
	}

	if err := d.conn.AddMatchSignal(opts...); err != nil {
		return nil, fmt.Errorf("failed to add match rule: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	d.conn.Signal(signals)

	out := make(chan PropertyChange, 4)
	go func() {
		defer close(out)
		defer func() {
			d.conn.RemoveSignal(signals)
			if err := d.conn.RemoveMatchSignal(opts...); err != nil {
				d.logger.Debug("failed to remove match rule", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					d.logger.Debug("signal channel closed", "path", d.target.Path)
					return
				}
				if !isPropertiesChanged(sig, path) {
					continue
				}
				change, ok := ParsePropertiesChanged(sig.Body, d.target.Interface)
				if !ok {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	d.logger.Debug("watching daemon properties", "service", d.target.Service, "path", d.target.Path)
	return out, nil
}
