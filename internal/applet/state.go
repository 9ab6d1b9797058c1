package applet

import (
	"time"

	"github.com/jmylchreest/controlcenter/internal/daemon"
)

// Phase is the coordinator's connection state.
type Phase int

const (
	// PhaseDisconnected is the initial state, and the terminal state after a failed connect.
	PhaseDisconnected Phase = iota
	// PhaseConnecting means the one connection attempt is in flight.
	PhaseConnecting
	// PhaseConnectedNoSubscription means the bus is up but no sender has arrived.
	PhaseConnectedNoSubscription
	// PhaseConnectedSubscribed is the steady state.
	PhaseConnectedSubscribed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnectedNoSubscription:
		return "connected"
	case PhaseConnectedSubscribed:
		return "subscribed"
	default:
		return "unknown"
	}
}

// SurfaceID identifies a popup surface. Empty means no popup.
type SurfaceID string

// Bounds holds the daemon-reported brightness values. Nil means not yet known.
type Bounds struct {
	Current *int32
	Maximum *int32
}

// State is the session state. Only the Coordinator mutates it.
type State struct {
	phase       Phase
	conn        Connection
	sender      daemon.RequestSender
	bounds      Bounds
	popup       SurfaceID
	connectedAt time.Time
	connectErr  error
}

// HasSender reports whether a daemon request is deliverable.
func (s *State) HasSender() bool {
	return s.sender != nil
}

// Snapshot is an immutable copy of State for the presentation layer.
type Snapshot struct {
	Phase       Phase     `json:"-" yaml:"-"`
	PhaseName   string    `json:"phase" yaml:"phase"`
	Current     *int32    `json:"current" yaml:"current"`
	Maximum     *int32    `json:"maximum" yaml:"maximum"`
	PopupOpen   bool      `json:"popup_open" yaml:"popup_open"`
	PopupID     SurfaceID `json:"popup_id,omitempty" yaml:"popup_id,omitempty"`
	HasSender   bool      `json:"has_sender" yaml:"has_sender"`
	ConnectedAt time.Time `json:"connected_at,omitzero" yaml:"connected_at,omitempty"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Snapshot returns a copy of the state that shares nothing mutable with it.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:       s.phase,
		PhaseName:   s.phase.String(),
		Current:     copyInt(s.bounds.Current),
		Maximum:     copyInt(s.bounds.Maximum),
		PopupOpen:   s.popup != "",
		PopupID:     s.popup,
		HasSender:   s.sender != nil,
		ConnectedAt: s.connectedAt,
	}
	if s.connectErr != nil {
		snap.Error = s.connectErr.Error()
	}
	return snap
}

// SliderVisible reports whether both bounds are known, which is when the
// presentation layer shows the brightness slider.
func (s Snapshot) SliderVisible() bool {
	return s.Current != nil && s.Maximum != nil
}

// Percent returns the current brightness as a fraction of the maximum.
func (s Snapshot) Percent() (float64, bool) {
	if !s.SliderVisible() || *s.Maximum <= 0 {
		return 0, false
	}
	return float64(*s.Current) / float64(*s.Maximum), true
}

func copyInt(v *int32) *int32 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
