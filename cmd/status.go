// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 The hpgl authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var statusTimeout int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query plotter status and link errors",
	Long: `Connect to the plotter and print its decoded status word, followed by
any pending RS-232-C link error.

The status word is queried with the ESC.O escape sequence and decoded
bit by bit. The link error register is queried with ESC.E; reading it
also clears it on the device.

Examples:
  # Query a plotter on a serial port
  hpgl status --port /dev/ttyUSB0

Exit codes:
  0 - Status retrieved, no link error pending
  1 - Status retrieved, link error pending
  2 - Connection or query error`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusTimeout, "timeout", 15, "Timeout in seconds")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(statusTimeout)*time.Second)
	defer cancel()

	p, connInfo, err := connectPlotter(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer p.Disconnect()

	status, err := p.GetStatus(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status query failed: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("hpgl - Plotter Status\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	printFlag := func(name string, set bool) {
		state := "no"
		if set {
			state = "yes"
		}
		fmt.Printf("  %-16s %s\n", name+":", state)
	}

	fmt.Printf("Status:\n")
	printFlag("Ready", status.Ready)
	printFlag("Buffer empty", status.BufferEmpty)
	printFlag("Paper advanced", status.PaperAdvanced)
	printFlag("Roll paper", status.RollPaperLoaded)
	printFlag("Clean paper", status.CleanPaper)
	printFlag("View engaged", status.ViewEngaged)
	printFlag("Cover open", status.CoverOpen)
	printFlag("Emulate mode", status.EmulateMode)
	printFlag("Expand mode", status.ExpandMode)

	linkErr, err := p.GetLinkError(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Link error query failed: %v\n", err)
		os.Exit(2)
	}

	if linkErr != nil {
		fmt.Printf("\nLink error %d: %s\n", linkErr.Code, linkErr.Message)
		os.Exit(1)
	}

	fmt.Printf("\nNo link error pending\n")
	return nil
}
