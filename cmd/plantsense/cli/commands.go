package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"plantsense-go/internal/platform"
	"plantsense-go/services/touch"
	"plantsense-go/services/touch/console"
	"plantsense-go/services/touch/monitor"
	"plantsense-go/types"
	"plantsense-go/x/logx"
)

func newRunCommand(e *env) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Initialise both chips and print filtered readings every poll interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(func(svc *touch.Service) error {
				out := cmd.OutOrStdout()
				n := 0
				err := monitor.New(svc, e.cfg.PollInterval()).Run(cmd.Context(), func(s monitor.Sample) bool {
					if s.Err == nil {
						fmt.Fprintf(out, "%s %v\n", s.Chip.Side(), s.Filtered)
						if s.Changed {
							logx.Info("%s touched 0x%04x", s.Chip.Side(), s.Touched)
						}
					}
					n++
					return count <= 0 || n < count*types.ChipCount
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many polls (0 runs until interrupted)")
	return cmd
}

func newReadCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "read <chip> [electrode]",
		Short: "Read filtered electrode data",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(func(svc *touch.Service) error {
				return exec(svc, cmd.OutOrStdout(), append([]string{"read"}, args...)...)
			})
		},
	}
}

func newSetCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <chip> <ffi|cdc|cdt|sfi|esi> <value>",
		Short: "Set one filter/timing field, write it to the chip and save",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(func(svc *touch.Service) error {
				if err := exec(svc, cmd.OutOrStdout(), append([]string{"set"}, args...)...); err != nil {
					return err
				}
				return svc.Save()
			})
		},
	}
}

type chipReport struct {
	Params  types.ParameterSet `yaml:"params"`
	Config1 string             `yaml:"config1"`
	Config2 string             `yaml:"config2"`
	InSync  bool               `yaml:"in_sync"`
}

func newShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored parameters and CONFIG1/CONFIG2 of both chips as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(func(svc *touch.Service) error {
				report := map[string]chipReport{}
				for _, c := range types.Chips {
					c1, c2, err := svc.Registers(c)
					if err != nil {
						return fmt.Errorf("chip %s: %w", c, err)
					}
					inSync, err := svc.InSync(c)
					if err != nil {
						return err
					}
					report[c.String()] = chipReport{
						Params:  svc.Params(c),
						Config1: fmt.Sprintf("%#02x", c1),
						Config2: fmt.Sprintf("%#02x", c2),
						InSync:  inSync,
					}
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(report); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
}

func newSaveCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Persist the current parameters of both chips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(func(svc *touch.Service) error { return svc.Save() })
		},
	}
}

func newResetCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default parameters and forget saved state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(func(svc *touch.Service) error { return svc.Reset() })
		},
	}
}

func newConsoleCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Read console commands from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(func(svc *touch.Service) error {
				return console.New(svc).Serve(cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

func newBusesCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "buses",
		Short: "List the I2C buses that can be passed as i2c.bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lister := platform.I2CBuses
			if e.sim {
				lister = func() ([]string, error) { return []string{"sim"}, nil }
			}
			return listBuses(cmd.OutOrStdout(), lister)
		},
	}
}

func listBuses(out io.Writer, lister func() ([]string, error)) error {
	names, err := lister()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("no I2C bus found; is the i2c-dev module loaded?")
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}
