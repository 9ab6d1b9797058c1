package applet

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/controlcenter/internal/daemon"
	"github.com/jmylchreest/controlcenter/internal/subscription"
)

// SubscribeFunc opens the daemon event stream over conn.
type SubscribeFunc func(ctx context.Context, conn Connection) <-chan daemon.Event

// Coordinator applies events to the session state one at a time.
// It is not safe for concurrent use; callers own the single thread.
type Coordinator struct {
	state  State
	logger *slog.Logger

	newSurfaceID func() (SurfaceID, error)
	now          func() time.Time
}

// NewCoordinator creates a Coordinator in the disconnected phase.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		logger:       logger,
		newSurfaceID: newSurfaceID,
		now:          time.Now,
	}
}

// Begin marks the single connection attempt as issued.
// It returns false if the attempt was already issued, so callers connect at most once.
func (c *Coordinator) Begin() bool {
	if c.state.phase != PhaseDisconnected || c.state.connectErr != nil {
		return false
	}
	c.state.phase = PhaseConnecting
	return true
}

// Snapshot returns a read-only copy of the state.
func (c *Coordinator) Snapshot() Snapshot {
	return c.state.Snapshot()
}

// HasSender reports whether brightness requests are deliverable.
func (c *Coordinator) HasSender() bool {
	return c.state.HasSender()
}

// Update applies ev and returns the effects to perform.
func (c *Coordinator) Update(ev Event) []Effect {
	switch e := ev.(type) {
	case PopupClosed:
		c.popupClosed(e.ID)

	case TogglePopup:
		return c.togglePopup()

	case SetBrightness:
		c.setBrightness(e.Value)

	case ConnectionFailed:
		c.logger.Error("failed to connect to session bus", "error", e.Err)
		c.state.phase = PhaseDisconnected
		c.state.connectErr = e.Err

	case ConnectionEstablished:
		if e.Conn == nil {
			return nil
		}
		if c.state.conn != nil {
			c.logger.Warn("ignoring second bus connection", "id", e.Conn.ID())
			return nil
		}
		c.logger.Info("got session bus connection", "id", e.Conn.ID())
		c.state.conn = e.Conn
		c.state.connectedAt = c.now()
		c.state.phase = PhaseConnectedNoSubscription

	case DaemonSubscriptionReady:
		c.logger.Info("got settings daemon sender")
		c.state.sender = e.Sender
		c.state.phase = PhaseConnectedSubscribed

	case DaemonMaxBrightness:
		c.logger.Debug("max brightness changed", "value", e.Value)
		v := e.Value
		c.state.bounds.Maximum = &v

	case DaemonBrightness:
		c.logger.Debug("brightness changed", "value", e.Value)
		v := e.Value
		c.state.bounds.Current = &v

	case nil:
		// Unknown daemon event mapped by FromDaemon

	default:
		c.logger.Debug("ignoring unknown event", "event", fmt.Sprintf("%T", ev))
	}
	return nil
}

// Subscriptions returns the external subscriptions the current state needs.
// The daemon subscription exists exactly while a connection is held and is
// keyed by the connection, so recomposing from the same handle is a no-op.
func (c *Coordinator) Subscriptions(subscribe SubscribeFunc) []subscription.Spec[daemon.Event] {
	conn := c.state.conn
	if conn == nil || subscribe == nil {
		return nil
	}
	return []subscription.Spec[daemon.Event]{{
		Key: "settings-daemon:" + conn.ID(),
		Start: func(ctx context.Context) <-chan daemon.Event {
			return subscribe(ctx, conn)
		},
	}}
}

// newSurfaceID allocates a unique popup surface id.
func newSurfaceID() (SurfaceID, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate surface id: %w", err)
	}
	return SurfaceID(id.String()), nil
}
