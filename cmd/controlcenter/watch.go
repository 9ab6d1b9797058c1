package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/controlcenter/internal/applet"
)

var watchOpts struct {
	format string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print brightness changes as they happen",
	Long: `Run the coordinator headless and print a line every time the daemon
reports a new brightness or maximum. Every event is logged at debug level
(use -v). Stops on interrupt.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOpts.format, "format", "f", "plain",
		"Output format (plain, json)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchOpts.format != "plain" && watchOpts.format != "json" {
		return fmt.Errorf("unknown format %q, must be one of: plain, json", watchOpts.format)
	}

	s := startSession(cmd.Context(), cfg, logger)
	defer func() {
		if err := s.stop(); err != nil {
			logger.Debug("session stop", "error", err)
		}
	}()

	encoder := json.NewEncoder(os.Stdout)
	_, err := s.waitUntil(cmd.Context(), func(st step) bool {
		logger.Debug("event", "type", fmt.Sprintf("%T", st.ev), "phase", st.snap.PhaseName)

		switch st.ev.(type) {
		case applet.DaemonBrightness, applet.DaemonMaxBrightness:
		default:
			return false
		}
		if !st.snap.SliderVisible() {
			return false
		}

		if watchOpts.format == "json" {
			if err := encoder.Encode(st.snap); err != nil {
				logger.Warn("failed to write snapshot", "error", err)
			}
		} else {
			fmt.Println(plainStatus(st.snap))
		}
		return false
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
