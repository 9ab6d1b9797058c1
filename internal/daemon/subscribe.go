package daemon

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/controlcenter/internal/dbus"
)

// Proxy is the daemon surface a subscription needs.
// *dbus.SettingsDaemon implements it.
type Proxy interface {
	MaxDisplayBrightness(ctx context.Context) (int32, error)
	DisplayBrightness(ctx context.Context) (int32, error)
	SetDisplayBrightness(ctx context.Context, value int32) error
	WatchProperties(ctx context.Context) (<-chan dbus.PropertyChange, error)
}

// Options configures a subscription.
type Options struct {
	QueueSize int // Request queue size; values < 1 mean 1
	Logger    *slog.Logger
}

// Subscribe opens a subscription to the daemon behind proxy.
//
// The returned channel yields SenderReady first, then the initial
// MaxBrightnessChanged and BrightnessChanged, then one event per pushed
// change. Cancelling ctx releases the property watch, closes the sender and
// finally closes the channel.
func Subscribe(ctx context.Context, proxy Proxy, opts Options) <-chan Event {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	out := make(chan Event)
	s := &subscription{
		proxy:  proxy,
		sender: newQueueSender(opts.QueueSize),
		out:    out,
		logger: logger,
	}
	go s.run(ctx)
	return out
}

type subscription struct {
	proxy  Proxy
	sender *queueSender
	out    chan<- Event
	logger *slog.Logger
}

func (s *subscription) run(ctx context.Context) {
	defer close(s.out)
	defer s.sender.close()

	if !s.emit(ctx, SenderReady{Sender: s.sender}) {
		return
	}

	// Watch before the initial read so a change in between is not lost.
	changes, err := s.proxy.WatchProperties(ctx)
	if err != nil {
		s.logger.Warn("failed to watch daemon properties", "error", err)
		changes = nil
	}
	defer func() {
		if changes == nil {
			return
		}
		// Wait for the watch to release its match rule.
		for range changes {
		}
	}()

	if !s.refresh(ctx, dbus.PropMaxDisplayBrightness) || !s.refresh(ctx, dbus.PropDisplayBrightness) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case req := <-s.sender.ch:
			s.handleRequest(ctx, req)

		case change, ok := <-changes:
			if !ok {
				s.logger.Warn("daemon property stream ended")
				changes = nil
				continue
			}
			if !s.handleChange(ctx, change) {
				return
			}
		}
	}
}

// handleChange emits events for a property change, maximum first.
func (s *subscription) handleChange(ctx context.Context, change dbus.PropertyChange) bool {
	for _, prop := range []string{dbus.PropMaxDisplayBrightness, dbus.PropDisplayBrightness} {
		if !change.Has(prop) {
			continue
		}
		if v, ok := change.Values[prop]; ok {
			if !s.emit(ctx, propertyEvent(prop, v)) {
				return false
			}
			continue
		}
		if !s.refresh(ctx, prop) {
			return false
		}
	}
	return true
}

// refresh reads prop and emits it. A read error is logged and skipped.
func (s *subscription) refresh(ctx context.Context, prop string) bool {
	var (
		v   int32
		err error
	)
	switch prop {
	case dbus.PropMaxDisplayBrightness:
		v, err = s.proxy.MaxDisplayBrightness(ctx)
	default:
		v, err = s.proxy.DisplayBrightness(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.logger.Warn("failed to read daemon property", "property", prop, "error", err)
		return true
	}
	return s.emit(ctx, propertyEvent(prop, v))
}

func (s *subscription) handleRequest(ctx context.Context, req Request) {
	switch r := req.(type) {
	case SetDisplayBrightness:
		if err := s.proxy.SetDisplayBrightness(ctx, r.Value); err != nil {
			s.logger.Debug("failed to set display brightness", "value", r.Value, "error", err)
		}
	default:
		s.logger.Debug("ignoring unknown request", "request", req)
	}
}

func (s *subscription) emit(ctx context.Context, ev Event) bool {
	select {
	case s.out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func propertyEvent(prop string, v int32) Event {
	if prop == dbus.PropMaxDisplayBrightness {
		return MaxBrightnessChanged{Value: v}
	}
	return BrightnessChanged{Value: v}
}
