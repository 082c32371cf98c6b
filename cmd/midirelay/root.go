package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/midirelay/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "midirelay",
	Short: "midirelay routes MIDI controllers to virtual MIDI ports",
	Long: `midirelay matches hardware MIDI inputs and virtual outputs by name and
forwards every event from each input to one or two outputs until interrupted.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	addConfigFlags(rootCmd.PersistentFlags())
}

// addConfigFlags registers one flag per config key, named after the key
// with dashes.
func addConfigFlags(flags *pflag.FlagSet) {
	defaults := config.Default()

	flags.String("config", "", "YAML or JSON config file")
	flags.String("input", defaults.Input, "Substring of the input port names to route (case-insensitive)")
	flags.String("output", defaults.Output, "Substring of the output port names to route to (case-insensitive)")
	flags.String("fanout", defaults.Fanout, "Outputs per input: single or dual")
	flags.String("primary", defaults.Primary, "Dual fanout: token of the first output")
	flags.String("secondary", defaults.Secondary, "Dual fanout: token of the second output")
	flags.Duration("poll-interval", defaults.PollInterval, "How often the shutdown request is checked")
	flags.String("log-level", defaults.LogLevel, "debug, info, warn or error")
	flags.String("http-addr", "", "Serve /routes, /healthz and /metrics on this address")
	flags.String("redis-addr", "", "Share output claims with other relays through Redis (host:port or redis:// URL)")
	flags.Duration("claim-ttl", defaults.ClaimTTL, "Expiry of Redis claims left by a relay that stopped without releasing them")
	flags.Bool("no-banner", false, "Do not print the banner")
	flags.Bool("pass-sysex", false, "Forward system exclusive messages")
	flags.Bool("pass-timing", false, "Forward timing clock messages")
	flags.Bool("pass-active-sense", false, "Forward active sensing messages")
}

// loadConfig reads --config and overlays the flags the user actually set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]any{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		overrides[strings.ReplaceAll(f.Name, "-", "_")] = f.Value.String()
	})
	if err := cfg.Apply(overrides); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}
