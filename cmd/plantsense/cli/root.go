// Package cli holds the cobra command tree of the plantsense host tool.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"plantsense-go/services/config"
	"plantsense-go/x/logx"
)

const (
	ConfigOptionName   = "config"
	LogLevelOptionName = "log-level"
	SimOptionName      = "sim"
)

// env is shared by every subcommand; PersistentPreRunE fills cfg.
type env struct {
	cfgPath  string
	logLevel string
	sim      bool
	cfg      *config.Config
}

func NewRootCommand(out io.Writer) *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:           "plantsense",
		Short:         "Tool to run and tune the two MPR121 touch controllers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.BoardLinux, e.cfgPath)
			if err != nil {
				return err
			}
			if e.logLevel != "" {
				cfg.Log.Level = e.logLevel
			}
			if err := logx.Init(cmd.ErrOrStderr(), cfg.Log.Level); err != nil {
				return err
			}
			e.cfg = cfg
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(
		newRunCommand(e),
		newReadCommand(e),
		newSetCommand(e),
		newShowCommand(e),
		newSaveCommand(e),
		newResetCommand(e),
		newConsoleCommand(e),
		newBusesCommand(e),
	)
	cmd.PersistentFlags().StringVar(&e.cfgPath, ConfigOptionName, "", "YAML config file merged over the built-in defaults")
	cmd.PersistentFlags().StringVar(&e.logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", logx.HelpLevels))
	cmd.PersistentFlags().BoolVar(&e.sim, SimOptionName, false, "Use the simulated MPR121 bus instead of hardware")
	return cmd
}
