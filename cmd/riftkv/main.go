// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Command riftkv is a small inspection and administration CLI for a riftdb
// database directory: put/get/scan/manifest/lsm subcommands for poking at
// a store without writing Go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "riftkv",
		Short: "Inspect and administer a riftdb database directory",
	}
	root.AddCommand(
		newPutCmd(),
		newGetCmd(),
		newDeleteCmd(),
		newScanCmd(),
		newCompactCmd(),
		newManifestCmd(),
		newLSMCmd(),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
