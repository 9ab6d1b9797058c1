// Package applet implements the session/event coordinator of the control
// center applet.
//
// The Coordinator is a single-threaded reducer: it applies one Event at a time
// to the session State and returns the popup Effects the presentation layer
// must perform. Loop is a headless runtime that merges the bus connection
// result, the daemon subscription and UI commands into one ordered stream for
// the Coordinator.
package applet
