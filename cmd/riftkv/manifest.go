// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"bytes"

	"github.com/ghemawat/stream"
	"github.com/spf13/cobra"

	"github.com/riftdb/riftdb"
	"github.com/riftdb/riftdb/vfs"
)

func newManifestCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "manifest",
		Short: "MANIFEST introspection",
	}

	var grep string
	dump := &cobra.Command{
		Use:   "dump <dir>",
		Short: "print MANIFEST contents, one line per version edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			if err := riftdb.DumpManifest(vfs.Default, args[0], &buf); err != nil {
				return err
			}

			filters := []stream.Filter{stream.ReadLines(&buf)}
			if grep != "" {
				filters = append(filters, stream.Grep(grep))
			}
			filters = append(filters, stream.WriteLines(cmd.OutOrStdout()))
			return stream.Run(filters...)
		},
	}
	dump.Flags().StringVar(&grep, "grep", "", "only print records matching this regexp")
	root.AddCommand(dump)
	return root
}
