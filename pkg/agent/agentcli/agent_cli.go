package agentcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/neuroplastio/plopp/internal/config"
	"github.com/neuroplastio/plopp/pkg/agent"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var Version = "dev"

func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

type agentProvider func() *agent.Agent

func NewRootCmd() *cobra.Command {
	return newRootCmd(agent.NewAgent)
}

func newRootCmd(newAgent func(agent.Config) (*agent.Agent, error)) *cobra.Command {
	cfg := agent.DefaultConfig()
	var configPath string
	rootCmd := &cobra.Command{
		Use:           "plopp",
		Short:         "Pulse a GPIO pin on every keypress",
		Long:          `plopp reads key events from evdev input devices and pulses a GPIO pin for every qualifying keypress. Press and release Ctrl+Alt+Meta+S to toggle pulsing.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	var a *agent.Agent
	agentProvider := func() *agent.Agent {
		return a
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "optional YAML config file; explicit flags override it")
	flags.StringVarP(&cfg.Device, "device", "d", cfg.Device, "input device to read (default: every device in --input-dir)")
	flags.StringVar(&cfg.InputDir, "input-dir", cfg.InputDir, "input device directory, watched for hotplug")
	flags.StringVar(&cfg.Chip, "chip", cfg.Chip, "GPIO character device")
	flags.IntVarP(&cfg.Pin, "pin", "p", cfg.Pin, "number of the GPIO pin to pulse")
	flags.Int64VarP(&cfg.PulseLengthUs, "pulse-length-us", "l", cfg.PulseLengthUs, "length of the pulse in microseconds")
	flags.BoolVar(&cfg.StartInactive, "start-inactive", cfg.StartInactive, "make pulses inactive at startup, until the activation combo is pressed")
	flags.BoolVar(&cfg.NoDeadKeys, "no-dead-keys", cfg.NoDeadKeys, "let modifier keys and Esc pulse like regular keys")
	flags.StringSliceVar(&cfg.Combo, "combo", cfg.Combo, "keys whose release toggles pulsing")
	flags.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "log pin changes instead of driving the GPIO chip")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flags.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "log in JSON")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		resolved, err := resolveConfig(cfg, configPath, cmd.Flags())
		if err != nil {
			return err
		}
		a, err = newAgent(resolved)
		return err
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return a.Close()
	}
	runE := func(cmd *cobra.Command, args []string) error {
		return agentProvider().Run(cmd.Context())
	}
	rootCmd.RunE = runE
	rootCmd.AddCommand(NewRun(runE))
	rootCmd.AddCommand(NewListDevices(agentProvider))
	return rootCmd
}

// resolveConfig layers the config file under the flags the user set explicitly.
func resolveConfig(cfg agent.Config, path string, flags *pflag.FlagSet) (agent.Config, error) {
	if path == "" {
		return cfg, nil
	}
	fileCfg, err := config.Load(path, agent.DefaultConfig())
	if err != nil {
		return cfg, fmt.Errorf("failed to load %s: %w", path, err)
	}
	overrides := map[string]func(){
		"device":          func() { fileCfg.Device = cfg.Device },
		"input-dir":       func() { fileCfg.InputDir = cfg.InputDir },
		"chip":            func() { fileCfg.Chip = cfg.Chip },
		"pin":             func() { fileCfg.Pin = cfg.Pin },
		"pulse-length-us": func() { fileCfg.PulseLengthUs = cfg.PulseLengthUs },
		"start-inactive":  func() { fileCfg.StartInactive = cfg.StartInactive },
		"no-dead-keys":    func() { fileCfg.NoDeadKeys = cfg.NoDeadKeys },
		"combo":           func() { fileCfg.Combo = cfg.Combo },
		"dry-run":         func() { fileCfg.DryRun = cfg.DryRun },
		"log-level":       func() { fileCfg.LogLevel = cfg.LogLevel },
		"log-json":        func() { fileCfg.LogJSON = cfg.LogJSON },
	}
	flags.Visit(func(f *pflag.Flag) {
		if override, ok := overrides[f.Name]; ok {
			override()
		}
	})
	return fileCfg, nil
}

func NewRun(runE func(cmd *cobra.Command, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pulse engine (default)",
		Args:  cobra.NoArgs,
		RunE:  runE,
	}
}

func NewListDevices(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "List input devices",
		Long:  `List the input devices the engine would read when no --device is given.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := agent().ListDevices()
			if err != nil {
				return err
			}
			jsonB, err := json.MarshalIndent(devices, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
			return nil
		},
	}
}
