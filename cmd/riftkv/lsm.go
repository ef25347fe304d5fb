// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/riftdb/riftdb"
)

func newLSMCmd() *cobra.Command {
	var history bool
	var samples int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "lsm <dir>",
		Short: "print per-level file counts and sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openForArgs(args[0], false)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if !history {
				printLevels(out, db.Metrics())
				return nil
			}

			series := make([]float64, 0, samples)
			for i := 0; i < samples; i++ {
				series = append(series, totalBytes(db.Metrics()))
				if i < samples-1 {
					time.Sleep(interval)
				}
			}
			fmt.Fprintln(out, asciigraph.Plot(series, asciigraph.Caption("total live bytes")))
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "sample total size over time and render a trend graph")
	cmd.Flags().IntVar(&samples, "samples", 30, "number of samples to collect with --history")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "delay between samples with --history")
	return cmd
}

func totalBytes(m riftdb.Metrics) float64 {
	var total float64
	for _, l := range m.Levels {
		total += float64(l.Size)
	}
	return total
}

func printLevels(out io.Writer, m riftdb.Metrics) {
	for level, l := range m.Levels {
		fmt.Fprintf(out, "L%d: %d files, %d bytes, score=%.2f\n", level, l.NumFiles, l.Size, l.Score)
	}
}
