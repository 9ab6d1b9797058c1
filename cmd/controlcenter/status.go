package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/controlcenter/internal/applet"
)

var statusOpts struct {
	format  string
	timeout time.Duration
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current display brightness",
	Long: `Connect to the settings daemon, wait until the brightness is known and
print it.

Formats:
  waybar  Waybar custom module JSON (default)
  json    Full session snapshot as JSON
  yaml    Full session snapshot as YAML
  plain   One human readable line

For Waybar:

  "custom/brightness": {
    "exec": "controlcenter status",
    "interval": 5,
    "return-type": "json",
    "on-click": "controlcenter"
  }`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "waybar",
		"Output format (waybar, json, yaml, plain)")
	statusCmd.Flags().DurationVar(&statusOpts.timeout, "timeout", 0,
		"How long to wait for the daemon (default: cli.timeout from config)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if !validFormat(statusOpts.format) {
		return fmt.Errorf("unknown format %q, must be one of: waybar, json, yaml, plain", statusOpts.format)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout(statusOpts.timeout))
	defer cancel()

	s := startSession(cmd.Context(), cfg, logger)
	st, err := s.waitUntil(ctx, func(st step) bool {
		return st.snap.SliderVisible()
	})
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("timed out waiting for brightness", "phase", st.snap.PhaseName)
		probeCtx, probeCancel := context.WithTimeout(cmd.Context(), time.Second)
		if ok, aerr := s.bus.daemonAvailable(probeCtx); aerr == nil && !ok {
			st.snap.Error = "settings daemon is not running"
		}
		probeCancel()
	} else if err != nil {
		logger.Debug("status unavailable", "error", err)
	}

	if err := s.stop(); err != nil {
		logger.Debug("session stop", "error", err)
	}

	return writeStatus(os.Stdout, statusOpts.format, st.snap, cfg.UI.Icon)
}

func validFormat(format string) bool {
	switch format {
	case "waybar", "json", "yaml", "plain":
		return true
	}
	return false
}

// cliTimeout returns the flag value, or the configured default when unset.
func cliTimeout(flag time.Duration) time.Duration {
	if flag > 0 {
		return flag
	}
	return cfg.CLI.Timeout.Duration()
}

// writeStatus renders snap in the requested format.
func writeStatus(w io.Writer, format string, snap applet.Snapshot, icon string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snap)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()
		return encoder.Encode(snap)
	case "plain":
		_, err := fmt.Fprintln(w, plainStatus(snap))
		return err
	default:
		return json.NewEncoder(w).Encode(waybarStatus(snap, icon))
	}
}

// waybarStatus creates a WaybarStatus from a snapshot.
func waybarStatus(snap applet.Snapshot, icon string) WaybarStatus {
	pct, ok := snap.Percent()
	if !ok {
		tooltip := "Display brightness unavailable"
		if snap.Error != "" {
			tooltip += "\n" + snap.Error
		}
		return WaybarStatus{
			Text:    icon,
			Alt:     "unavailable",
			Tooltip: tooltip,
			Class:   "unavailable",
		}
	}

	percentage := int(pct*100 + 0.5)

	class := "normal"
	switch {
	case percentage <= 25:
		class = "low"
	case percentage >= 90:
		class = "high"
	}

	return WaybarStatus{
		Text:       fmt.Sprintf("%s %d%%", icon, percentage),
		Alt:        class,
		Tooltip:    tooltipLines(snap),
		Class:      class,
		Percentage: percentage,
	}
}

func tooltipLines(snap applet.Snapshot) string {
	lines := []string{
		fmt.Sprintf("Display brightness: %d / %d", *snap.Current, *snap.Maximum),
	}
	if !snap.ConnectedAt.IsZero() {
		lines = append(lines, "Connected "+humanize.Time(snap.ConnectedAt))
	}
	return strings.Join(lines, "\n")
}

// plainStatus renders one human readable line.
func plainStatus(snap applet.Snapshot) string {
	pct, ok := snap.Percent()
	if !ok {
		if snap.Error != "" {
			return fmt.Sprintf("brightness unavailable (%s): %s", snap.PhaseName, snap.Error)
		}
		return fmt.Sprintf("brightness unavailable (%s)", snap.PhaseName)
	}
	return fmt.Sprintf("brightness %d/%d (%d%%)", *snap.Current, *snap.Maximum, int(pct*100+0.5))
}
