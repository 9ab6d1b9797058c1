// Package dbus provides the session-bus plumbing for controlcenter.
// It establishes the bus connection and exposes a proxy for the COSMIC
// settings daemon's brightness properties, including a watch over
// org.freedesktop.DBus.Properties.PropertiesChanged.
package dbus
