package cmd

import (
	"context"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "print a log file's topics, time range, and datatypes as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		src, err := openPath(ctx, args[0])
		if err != nil {
			bailf("error: %v", err)
		}
		defer func() { _ = src.Terminate(ctx) }()

		init, err := src.Initialize(ctx)
		if err != nil {
			bailf("error: %v", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(init); err != nil {
			bailf("error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
