package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/controlcenter/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch the interactive applet",
	Long: `Launch the panel applet in the terminal.

The applet shows a panel button with the current brightness. Opening the
popup shows a slider once the settings daemon has reported both the current
and the maximum brightness.

Logs go to ~/.local/state/controlcenter/controlcenter.log (see [log] in the
config file). Changes to [ui] in the config file apply immediately.

Key bindings:
  enter/space   Toggle popup
  ←/h, →/l      Adjust brightness by ui.brightness_step
  esc           Close popup
  ?             Show help
  q             Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	logFile, err := setupFileLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	b := newBus(cfg, logger)
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("failed to close bus connection", "error", err)
		}
	}()

	logger.Info("starting applet", "version", version)
	return tui.Run(cmd.Context(), tui.RunOptions{
		Config:     cfg,
		ConfigPath: globalOpts.configPath,
		Connect:    b.connect,
		Subscribe:  b.subscribe,
		Logger:     logger,
	})
}
