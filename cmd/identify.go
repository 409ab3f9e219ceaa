// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 The hpgl authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var identifyTimeout int

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify the connected plotter",
	Long: `Connect to the plotter, query its model, and print the device profile.

The model is queried with the OI instruction; plotters that do not answer
it are identified through the ESC.A escape sequence instead. Unrecognized
models fall back to a conservative generic profile.

Examples:
  # Identify a plotter on a serial port
  hpgl identify --port /dev/ttyUSB0

  # Identify through a serial-to-WebSocket bridge
  hpgl identify --url ws://bridge.local/plotter

Exit codes:
  0 - Plotter identified
  2 - Connection or handshake error`,
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)
	identifyCmd.Flags().IntVar(&identifyTimeout, "timeout", 15, "Timeout in seconds for the handshake")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(identifyTimeout)*time.Second)
	defer cancel()

	p, connInfo, err := connectPlotter(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer p.Disconnect()

	profile := p.Profile()
	caps, _ := profile.Caps()

	unitName := "cm"
	if imperial {
		unitName = "in"
	}

	fmt.Printf("hpgl - Plotter Identification\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	fmt.Printf("Model: %s\n", profile.Model)
	fmt.Printf("Buffer size: %d bytes\n", caps.BufferSize)
	fmt.Printf("Resolution: %g x %g units per mm\n", caps.ResolutionX, caps.ResolutionY)
	fmt.Printf("Paper sizes: %s\n", strings.Join(profile.PaperNames(), ", "))

	width, height, err := p.PlottableArea()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compute plottable area: %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("Plottable area (%s, %s): %.2f x %.2f %s\n", paperName, orientation, width, height, unitName)

	return nil
}
