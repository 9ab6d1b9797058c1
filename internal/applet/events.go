package applet

import (
	"github.com/jmylchreest/controlcenter/internal/daemon"
)

// Connection is the bus session handle held by the coordinator.
type Connection interface {
	// ID identifies the session; equal IDs mean the same connection.
	ID() string
}

// Event is an input to the coordinator.
type Event interface {
	isEvent()
}

// PopupClosed reports that the popup surface with ID was closed by the shell.
type PopupClosed struct {
	ID SurfaceID
}

// TogglePopup is the panel button being pressed.
type TogglePopup struct{}

// SetBrightness is the slider being moved to Value.
type SetBrightness struct {
	Value int32
}

// DaemonSubscriptionReady delivers the capability to send daemon requests.
type DaemonSubscriptionReady struct {
	Sender daemon.RequestSender
}

// DaemonMaxBrightness carries a new maximum brightness.
type DaemonMaxBrightness struct {
	Value int32
}

// DaemonBrightness carries a new current brightness.
type DaemonBrightness struct {
	Value int32
}

// ConnectionEstablished is the successful result of the bus connection attempt.
type ConnectionEstablished struct {
	Conn Connection
}

// ConnectionFailed is the failed result of the bus connection attempt.
type ConnectionFailed struct {
	Err error
}

func (PopupClosed) isEvent()             {}
func (TogglePopup) isEvent()             {}
func (SetBrightness) isEvent()           {}
func (DaemonSubscriptionReady) isEvent() {}
func (DaemonMaxBrightness) isEvent()     {}
func (DaemonBrightness) isEvent()        {}
func (ConnectionEstablished) isEvent()   {}
func (ConnectionFailed) isEvent()        {}

// FromDaemon maps a daemon subscription event to a coordinator event.
// It returns nil for events the coordinator does not know.
func FromDaemon(ev daemon.Event) Event {
	switch e := ev.(type) {
	case daemon.SenderReady:
		return DaemonSubscriptionReady{Sender: e.Sender}
	case daemon.MaxBrightnessChanged:
		return DaemonMaxBrightness{Value: e.Value}
	case daemon.BrightnessChanged:
		return DaemonBrightness{Value: e.Value}
	default:
		return nil
	}
}

// Effect is a side effect the presentation layer performs after a step.
type Effect interface {
	isEffect()
}

// OpenPopup asks the shell to create the popup surface ID.
type OpenPopup struct {
	ID SurfaceID
}

// DestroyPopup asks the shell to destroy the popup surface ID.
type DestroyPopup struct {
	ID SurfaceID
}

func (OpenPopup) isEffect()    {}
func (DestroyPopup) isEffect() {}
