package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"            _     _ _          _",
	"  _ __ ___ (_) __| (_)_ __ ___| | __ _ _   _",
	" | '_ ` _ \\| |/ _` | | '__/ _ \\ |/ _` | | | |",
	" | | | | | | | (_| | | | |  __/ | (_| | |_| |",
	" |_| |_| |_|_|\\__,_|_|_|  \\___|_|\\__,_|\\__, |",
	"                                       |___/",
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

// PrintBanner writes the midirelay banner followed by version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).Profile
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
