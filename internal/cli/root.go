// Copyright (c) 2025, Wesley Brown
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli wires the cobra command tree for the ballast binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "ballast",
	Short:   "An HTTP load generator",
	Version: version,
	Long: `Ballast drives HTTP load tests against a target with closed, open,
ramping-open, or burst load models, reports streaming statistics with
coordinated-omission-corrected latencies, and evaluates pass/fail
thresholds against the final result.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to RootCmd.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func init() {
	RootCmd.AddCommand(runCmd)
}
