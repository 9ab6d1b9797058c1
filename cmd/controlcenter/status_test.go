package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/controlcenter/internal/applet"
)

func int32p(v int32) *int32 { return &v }

func knownSnapshot(current, maximum int32) applet.Snapshot {
	return applet.Snapshot{
		Phase:       applet.PhaseConnectedSubscribed,
		PhaseName:   applet.PhaseConnectedSubscribed.String(),
		Current:     int32p(current),
		Maximum:     int32p(maximum),
		HasSender:   true,
		ConnectedAt: time.Now().Add(-time.Minute),
	}
}

func TestWaybarStatus(t *testing.T) {
	tests := []struct {
		name       string
		snap       applet.Snapshot
		text       string
		class      string
		percentage int
	}{
		{"normal", knownSnapshot(55, 100), "☼ 55%", "normal", 55},
		{"low", knownSnapshot(10, 100), "☼ 10%", "low", 10},
		{"high", knownSnapshot(960, 1000), "☼ 96%", "high", 96},
		{"rounded", knownSnapshot(1, 3), "☼ 33%", "normal", 33},
		{"unknown", applet.Snapshot{PhaseName: "connecting"}, "☼", "unavailable", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := waybarStatus(tt.snap, "☼")
			assert.Equal(t, tt.text, status.Text)
			assert.Equal(t, tt.class, status.Class)
			assert.Equal(t, tt.percentage, status.Percentage)
		})
	}
}

func TestWaybarStatus_Tooltip(t *testing.T) {
	status := waybarStatus(knownSnapshot(40, 80), "B")
	assert.Contains(t, status.Tooltip, "Display brightness: 40 / 80")
	assert.Contains(t, status.Tooltip, "Connected 1 minute ago")

	status = waybarStatus(applet.Snapshot{Error: "no session bus"}, "B")
	assert.Contains(t, status.Tooltip, "no session bus")
}

func TestPlainStatus(t *testing.T) {
	assert.Equal(t, "brightness 55/100 (55%)", plainStatus(knownSnapshot(55, 100)))
	assert.Equal(t, "brightness unavailable (connected)",
		plainStatus(applet.Snapshot{PhaseName: "connected"}))
	assert.Equal(t, "brightness unavailable (disconnected): boom",
		plainStatus(applet.Snapshot{PhaseName: "disconnected", Error: "boom"}))
}

func TestWriteStatus_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, "json", knownSnapshot(55, 100), "☼"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "subscribed", decoded["phase"])
	assert.InDelta(t, 55, decoded["current"], 0)
	assert.InDelta(t, 100, decoded["maximum"], 0)
	assert.Equal(t, true, decoded["has_sender"])
	assert.NotContains(t, decoded, "error")
}

func TestWriteStatus_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, "yaml", applet.Snapshot{PhaseName: "connecting"}, "☼"))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "connecting", decoded["phase"])
	assert.Nil(t, decoded["current"])
	assert.NotContains(t, decoded, "connected_at")
}

func TestWriteStatus_Waybar(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, "waybar", knownSnapshot(20, 100), "☼"))

	var status WaybarStatus
	require.NoError(t, json.Unmarshal(buf.Bytes(), &status))
	assert.Equal(t, "☼ 20%", status.Text)
	assert.Equal(t, "low", status.Alt)
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"waybar", "json", "yaml", "plain"} {
		assert.True(t, validFormat(f), f)
	}
	assert.False(t, validFormat("xml"))
	assert.False(t, validFormat(""))
}
