package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/midirelay/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Route MIDI events until interrupted",
	Long: `Discovers the MIDI ports, maps every matching input to free matching
outputs and forwards events until Ctrl+C, SIGTERM or POST /shutdown.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if err := cli.Run(context.Background(), cli.RunOptions{
			Config:    cfg,
			OSSignals: true,
		}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	// 'run' is the default when no command is given.
	rootCmd.Run = runCmd.Run
}
