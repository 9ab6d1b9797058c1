package dbus

import (
	"github.com/godbus/dbus/v5"
)

// ParsePropertiesChanged decodes the body of a PropertiesChanged signal.
// Body layout: (s interface_name, a{sv} changed_properties, as invalidated_properties).
// ok is false when the body is malformed or belongs to another interface.
func ParsePropertiesChanged(body []interface{}, iface string) (PropertyChange, bool) {
	if len(body) < 2 {
		return PropertyChange{}, false
	}

	name, ok := body[0].(string)
	if !ok || name != iface {
		return PropertyChange{}, false
	}

	changed, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return PropertyChange{}, false
	}

	change := PropertyChange{Values: make(map[string]int32, len(changed))}
	for prop, v := range changed {
		if n, ok := variantInt32(v); ok {
			change.Values[prop] = n
		}
	}

	if len(body) > 2 {
		if invalidated, ok := body[2].([]string); ok {
			change.Invalidated = invalidated
		}
	}

	return change, true
}

// isPropertiesChanged reports whether sig is a PropertiesChanged signal on path.
func isPropertiesChanged(sig *dbus.Signal, path dbus.ObjectPath) bool {
	return sig != nil && sig.Name == PropertiesChangedSignal && sig.Path == path
}
