package main

import (
	"fmt"
	"os"

	"github.com/aretw0/midirelay/internal/cli"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List the MIDI ports the system reports",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.Ports(os.Stdout, nil); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
