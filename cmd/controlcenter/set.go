package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/controlcenter/internal/applet"
)

var setOpts struct {
	timeout time.Duration
}

var setCmd = &cobra.Command{
	Use:   "set <value>",
	Short: "Set the display brightness",
	Long: `Set the display brightness through the settings daemon.

The value is either an absolute brightness in the daemon's range or a
percentage of the maximum:

  controlcenter set 40
  controlcenter set 75%

The request is sent once and is not acknowledged by the daemon; the command
waits up to --timeout for the new value to be reported back.`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)

	setCmd.Flags().DurationVar(&setOpts.timeout, "timeout", 0,
		"How long to wait for the daemon (default: cli.timeout from config)")
}

// brightnessTarget is a parsed set argument.
type brightnessTarget struct {
	value   int
	percent bool
}

// parseTarget parses "40" or "75%".
func parseTarget(arg string) (brightnessTarget, error) {
	s := strings.TrimSpace(arg)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return brightnessTarget{}, fmt.Errorf("invalid brightness %q: %w", arg, err)
	}
	if n < 0 {
		return brightnessTarget{}, fmt.Errorf("invalid brightness %q: must not be negative", arg)
	}
	if percent && n > 100 {
		return brightnessTarget{}, fmt.Errorf("invalid brightness %q: percentage above 100", arg)
	}
	return brightnessTarget{value: int(n), percent: percent}, nil
}

// resolve turns the target into an absolute value for the given maximum.
func (t brightnessTarget) resolve(maximum int32) int32 {
	if !t.percent {
		return int32(t.value)
	}
	return int32((int64(t.value)*int64(maximum) + 50) / 100)
}

func runSet(cmd *cobra.Command, args []string) error {
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout(setOpts.timeout))
	defer cancel()

	s := startSession(cmd.Context(), cfg, logger)
	defer func() {
		if err := s.stop(); err != nil {
			logger.Debug("session stop", "error", err)
		}
	}()

	// A request is only deliverable once subscribed
	st, err := s.waitUntil(ctx, func(st step) bool {
		return st.snap.HasSender && st.snap.Maximum != nil
	})
	if err != nil {
		return fmt.Errorf("settings daemon not ready (%s): %w", st.snap.PhaseName, err)
	}

	value := target.resolve(*st.snap.Maximum)
	if err := s.dispatch(ctx, applet.SetBrightness{Value: value}); err != nil {
		return fmt.Errorf("failed to dispatch brightness: %w", err)
	}

	_, err = s.waitUntil(ctx, func(st step) bool {
		e, ok := st.ev.(applet.DaemonBrightness)
		return ok && e.Value == value
	})
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("daemon did not confirm brightness", "value", value)
	case err != nil:
		return err
	default:
		logger.Info("brightness set", "value", value, "max", *st.snap.Maximum)
	}
	return nil
}
