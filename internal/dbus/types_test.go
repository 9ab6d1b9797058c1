package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

const testIface = "com.system76.CosmicSettingsDaemon"

func TestParsePropertiesChanged(t *testing.T) {
	tests := []struct {
		name     string
		body     []interface{}
		ok       bool
		expected PropertyChange
	}{
		{
			name: "brightness changed",
			body: []interface{}{
				testIface,
				map[string]dbus.Variant{PropDisplayBrightness: dbus.MakeVariant(int32(40))},
				[]string{},
			},
			ok: true,
			expected: PropertyChange{
				Values:      map[string]int32{PropDisplayBrightness: 40},
				Invalidated: []string{},
			},
		},
		{
			name: "both properties",
			body: []interface{}{
				testIface,
				map[string]dbus.Variant{
					PropDisplayBrightness:    dbus.MakeVariant(int32(10)),
					PropMaxDisplayBrightness: dbus.MakeVariant(uint32(255)),
				},
			},
			ok: true,
			expected: PropertyChange{
				Values: map[string]int32{PropDisplayBrightness: 10, PropMaxDisplayBrightness: 255},
			},
		},
		{
			name: "invalidated only",
			body: []interface{}{
				testIface,
				map[string]dbus.Variant{},
				[]string{PropMaxDisplayBrightness},
			},
			ok: true,
			expected: PropertyChange{
				Values:      map[string]int32{},
				Invalidated: []string{PropMaxDisplayBrightness},
			},
		},
		{
			name: "non-integer values are skipped",
			body: []interface{}{
				testIface,
				map[string]dbus.Variant{"Theme": dbus.MakeVariant("dark")},
				[]string{},
			},
			ok: true,
			expected: PropertyChange{
				Values:      map[string]int32{},
				Invalidated: []string{},
			},
		},
		{
			name: "other interface",
			body: []interface{}{
				"org.example.Other",
				map[string]dbus.Variant{PropDisplayBrightness: dbus.MakeVariant(int32(1))},
				[]string{},
			},
			ok: false,
		},
		{
			name: "short body",
			body: []interface{}{testIface},
			ok:   false,
		},
		{
			name: "wrong changed type",
			body: []interface{}{testIface, "nope"},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, ok := ParsePropertiesChanged(tt.body, testIface)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, change)
			}
		})
	}
}

func TestPropertyChangeHas(t *testing.T) {
	change := PropertyChange{
		Values:      map[string]int32{PropDisplayBrightness: 5},
		Invalidated: []string{PropMaxDisplayBrightness},
	}

	assert.True(t, change.Has(PropDisplayBrightness))
	assert.True(t, change.Has(PropMaxDisplayBrightness))
	assert.False(t, change.Has("Other"))
	assert.False(t, PropertyChange{}.Has(PropDisplayBrightness))
}

func TestVariantInt32(t *testing.T) {
	tests := []struct {
		name     string
		v        dbus.Variant
		expected int32
		ok       bool
	}{
		{"int32", dbus.MakeVariant(int32(42)), 42, true},
		{"uint32", dbus.MakeVariant(uint32(42)), 42, true},
		{"int64", dbus.MakeVariant(int64(7)), 7, true},
		{"byte", dbus.MakeVariant(byte(3)), 3, true},
		{"string", dbus.MakeVariant("42"), 0, false},
		{"bool", dbus.MakeVariant(true), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := variantInt32(tt.v)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestIsPropertiesChanged(t *testing.T) {
	path := dbus.ObjectPath("/com/system76/CosmicSettingsDaemon")

	assert.True(t, isPropertiesChanged(&dbus.Signal{Name: PropertiesChangedSignal, Path: path}, path))
	assert.False(t, isPropertiesChanged(&dbus.Signal{Name: PropertiesChangedSignal, Path: "/other"}, path))
	assert.False(t, isPropertiesChanged(&dbus.Signal{Name: "org.example.Foo", Path: path}, path))
	assert.False(t, isPropertiesChanged(nil, path))
}

func TestNilConnection(t *testing.T) {
	var c *Connection
	assert.Equal(t, "", c.ID())
	assert.NoError(t, c.Close())
}
