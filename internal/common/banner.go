package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the export-run banner to stderr.
func PrintBanner(config *Config, logger *Logger) {
	version := GetVersion()

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 56
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  STRAVAMARK — Strava → Markdown exporter%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n", hr)

	kvPad := 14
	kvLines := [][2]string{
		{"Version", version},
		{"Environment", config.Environment},
		{"Output", config.Export.OutputDir},
		{"Token file", config.Auth.TokenFile},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}

	fmt.Fprintf(os.Stderr, "%s\n", hr)
	fmt.Fprintf(os.Stderr, "\n")

	logger.Info().
		Str("version", version).
		Str("environment", config.Environment).
		Str("output_dir", config.Export.OutputDir).
		Msg("Export started")
}
