package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/aretw0/midirelay"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the midirelay version and build details",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(os.Stdout)
	},
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "midirelay %s\n", strings.TrimSpace(midirelay.Version))
	fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	info, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Fprintln(w, "  driver: rtmidi")
		return
	}
	fmt.Fprintf(w, "  driver: rtmidi (%s)\n", midiModule(info))
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			fmt.Fprintf(w, "  commit: %s\n", s.Value)
		case "vcs.modified":
			if s.Value == "true" {
				fmt.Fprintln(w, "  dirty:  true")
			}
		}
	}
}

// midiModule names the gomidi module the binary was linked against.
func midiModule(info *debug.BuildInfo) string {
	for _, dep := range info.Deps {
		if dep.Path == midiModulePath {
			return dep.Path + " " + dep.Version
		}
	}
	return midiModulePath
}

const midiModulePath = "gitlab.com/gomidi/midi/v2"

func init() {
	rootCmd.AddCommand(versionCmd)
}
