package applet

import (
	"github.com/jmylchreest/controlcenter/internal/daemon"
)

// setBrightness updates the local value first, then notifies the daemon if a
// sender is held. Without a sender the request is dropped.
func (c *Coordinator) setBrightness(value int32) {
	v := value
	c.state.bounds.Current = &v

	if c.state.sender == nil {
		return
	}
	if err := c.state.sender.Send(daemon.SetDisplayBrightness{Value: value}); err != nil {
		c.logger.Debug("brightness request not delivered", "value", value, "error", err)
	}
}

// togglePopup closes the open popup or opens a new one.
func (c *Coordinator) togglePopup() []Effect {
	if id := c.state.popup; id != "" {
		c.state.popup = ""
		return []Effect{DestroyPopup{ID: id}}
	}

	id, err := c.newSurfaceID()
	if err != nil {
		c.logger.Error("failed to open popup", "error", err)
		return nil
	}
	c.state.popup = id
	return []Effect{OpenPopup{ID: id}}
}

// popupClosed forgets the popup only if id is the one being tracked.
func (c *Coordinator) popupClosed(id SurfaceID) {
	if c.state.popup != "" && c.state.popup == id {
		c.state.popup = ""
	}
}
