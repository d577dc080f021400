// Package cmd implements the logcat CLI, a thin front end over the
// ingest engine: one file per subcommand, the teacher's own cli/cmd
// convention.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wkalt/streamcap"
	"github.com/wkalt/streamcap/ingest"
)

var rootCmd = &cobra.Command{
	Use:   "logcat",
	Short: "inspect and stream ROS1 bag / MCAP log files",
}

// Execute runs the CLI, exiting the process with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func bailf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// openPath builds a Descriptor over a local file path and opens it
// through the ingest engine, sniffing its container format.
func openPath(ctx context.Context, path string) (ingest.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	desc := streamcap.Descriptor{Kind: streamcap.DescriptorFile, File: f, Size: info.Size()}
	return ingest.Open(ctx, desc)
}
