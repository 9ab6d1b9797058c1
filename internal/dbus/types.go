package dbus

import (
	"github.com/godbus/dbus/v5"
)

const (
	// PropertiesInterface is the standard properties interface.
	PropertiesInterface = "org.freedesktop.DBus.Properties"
	// PropertiesChangedSignal is the fully qualified PropertiesChanged signal name.
	PropertiesChangedSignal = PropertiesInterface + ".PropertiesChanged"

	// PropDisplayBrightness is the current display brightness (i32, read/write).
	PropDisplayBrightness = "DisplayBrightness"
	// PropMaxDisplayBrightness is the maximum display brightness (i32, read-only).
	PropMaxDisplayBrightness = "MaxDisplayBrightness"
)

// Target identifies the settings daemon object on the bus.
type Target struct {
	Service   string // Well-known bus name
	Path      string // Object path
	Interface string // Interface owning the brightness properties
}

// PropertyChange is a decoded PropertiesChanged signal for the target interface.
// Values only holds properties whose value is an integer; Invalidated lists
// properties whose new value must be fetched.
type PropertyChange struct {
	Values      map[string]int32
	Invalidated []string
}

// Has reports whether the change touches the named property.
func (c PropertyChange) Has(name string) bool {
	if _, ok := c.Values[name]; ok {
		return true
	}
	for _, p := range c.Invalidated {
		if p == name {
			return true
		}
	}
	return false
}

// variantInt32 converts an integer variant to int32.
// The daemon publishes i32, but tolerate other integer encodings.
func variantInt32(v dbus.Variant) (int32, bool) {
	switch val := v.Value().(type) {
	case int32:
		return val, true
	case uint32:
		return int32(val), true
	case int64:
		return int32(val), true
	case uint64:
		return int32(val), true
	case int16:
		return int32(val), true
	case uint16:
		return int32(val), true
	case byte:
		return int32(val), true
	case int:
		return int32(val), true
	}
	return 0, false
}
