package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/wkalt/streamcap"
)

// batchWindow is the playback batch cadence from spec.md's back-pressure
// design: cursor.NextBatch groups items within this window of the first
// item pulled.
const batchWindow = 17 * time.Millisecond

var (
	catTopics   []string
	catReverse  bool
	catStartSec float64
	catEndSec   float64
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "stream decoded messages from a log file as newline-delimited JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		src, err := openPath(ctx, args[0])
		if err != nil {
			bailf("error: %v", err)
		}
		defer func() { _ = src.Terminate(ctx) }()

		if _, err := src.Initialize(ctx); err != nil {
			bailf("error: %v", err)
		}

		iterArgs := streamcap.IteratorArgs{Topics: catTopics, Reverse: catReverse}
		if cmd.Flags().Changed("start") {
			t := secondsToTime(catStartSec)
			iterArgs.Start = &t
		}
		if cmd.Flags().Changed("end") {
			t := secondsToTime(catEndSec)
			iterArgs.End = &t
		}

		cur, err := src.GetMessageCursor(ctx, iterArgs)
		if err != nil {
			bailf("error: %v", err)
		}
		defer cur.End()

		enc := json.NewEncoder(os.Stdout)
		warn := color.New(color.FgYellow)
		fail := color.New(color.FgRed)
		for {
			batch, err := cur.NextBatch(ctx, batchWindow)
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				bailf("error: %v", err)
			}
			for _, result := range batch {
				switch result.Kind {
				case streamcap.ResultMessage:
					if err := enc.Encode(result.Event); err != nil {
						bailf("error: %v", err)
					}
				case streamcap.ResultProblem:
					c := warn
					if result.Problem.Severity == streamcap.SeverityError {
						c = fail
					}
					_, _ = c.Fprintln(os.Stderr, result.Problem.String())
				}
			}
		}
	},
}

func secondsToTime(s float64) streamcap.Time {
	sec := int64(s)
	nsec := uint32((s - float64(sec)) * 1e9) //nolint:gosec
	return streamcap.Time{Sec: sec, Nsec: nsec}
}

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().StringArrayVarP(&catTopics, "topics", "t", nil, "topics to stream (required)")
	catCmd.Flags().BoolVarP(&catReverse, "reverse", "r", false, "iterate in reverse receive-time order")
	catCmd.Flags().Float64Var(&catStartSec, "start", 0, "start time, seconds since epoch")
	catCmd.Flags().Float64Var(&catEndSec, "end", 0, "end time, seconds since epoch")
	_ = catCmd.MarkFlagRequired("topics")
}
