// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riftdb/riftdb"
)

func openForArgs(dir string, create bool) (*riftdb.DB, error) {
	return riftdb.Open(dir, &riftdb.Options{CreateIfMissing: create})
}

func newPutCmd() *cobra.Command {
	var sync bool
	cmd := &cobra.Command{
		Use:   "put <dir> <key> <value>",
		Short: "Set key to value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openForArgs(args[0], true)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Set([]byte(args[1]), []byte(args[2]), &riftdb.WriteOptions{Sync: sync})
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "fsync the WAL before returning")
	return cmd
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <dir> <key>",
		Short: "Print the value for key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openForArgs(args[0], false)
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := db.Get([]byte(args[1]), nil)
			if errors.Is(err, riftdb.ErrNotFound) {
				return fmt.Errorf("%s: not found", args[1])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", v)
			return nil
		},
	}
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <dir> <key>",
		Short: "Remove key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openForArgs(args[0], false)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Delete([]byte(args[1]), nil)
		},
	}
	return cmd
}

func newScanCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "scan <dir> [prefix]",
		Short: "Print key/value pairs in order, optionally starting at prefix",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openForArgs(args[0], false)
			if err != nil {
				return err
			}
			defer db.Close()

			it := db.NewIter(nil)
			defer it.Close()

			if len(args) == 2 {
				it.SeekGE([]byte(args[1]))
			} else {
				it.First()
			}
			out := cmd.OutOrStdout()
			for n := 0; it.Valid() && (limit <= 0 || n < limit); it.Next() {
				fmt.Fprintf(out, "%s => %s\n", it.Key(), it.Value())
				n++
			}
			return it.Error()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of pairs to print (0 = unbounded)")
	return cmd
}

func newCompactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compact <dir>",
		Short: "Force a full-range compaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openForArgs(args[0], false)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.CompactRange(nil, nil)
		},
	}
	return cmd
}
