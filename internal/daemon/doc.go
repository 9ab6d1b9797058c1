// Package daemon subscribes to the settings daemon's event stream.
// A subscription first yields a RequestSender capability, then the current
// brightness bounds, then every change the daemon pushes, and executes
// requests sent through the capability for as long as it is alive.
package daemon
