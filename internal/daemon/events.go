package daemon

// Event is an item of a daemon subscription stream.
type Event interface {
	isEvent()
}

// SenderReady delivers the capability to send requests to the daemon.
type SenderReady struct {
	Sender RequestSender
}

// MaxBrightnessChanged carries the daemon's maximum display brightness.
type MaxBrightnessChanged struct {
	Value int32
}

// BrightnessChanged carries the daemon's current display brightness.
type BrightnessChanged struct {
	Value int32
}

func (SenderReady) isEvent()          {}
func (MaxBrightnessChanged) isEvent() {}
func (BrightnessChanged) isEvent()    {}

// Request is an outbound request to the daemon.
type Request interface {
	isRequest()
}

// SetDisplayBrightness asks the daemon to change the display brightness.
type SetDisplayBrightness struct {
	Value int32
}

func (SetDisplayBrightness) isRequest() {}
