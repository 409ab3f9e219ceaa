// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 The hpgl authors

package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Plotting environment flags
	paperName   string
	orientation string
	imperial    bool

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hpgl",
	Short: "HPGL Plotter Driver",
	Long: `hpgl - A CLI tool for driving HP Graphics Language pen plotters
over RS-232-C serial links.

Provides commands for identifying a connected plotter, drawing shapes
and text, querying device status, and an interactive sketch mode. The
driver paces transmission against the device's input buffer, so long
plots can be streamed without overrunning the plotter.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the HPGL_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: "1.0.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Plotting environment flags
	rootCmd.PersistentFlags().StringVar(&paperName, "paper", "A4", "Paper size (A, B, A4, A3)")
	rootCmd.PersistentFlags().StringVar(&orientation, "orientation", "landscape", "Page orientation (landscape, portrait)")
	rootCmd.PersistentFlags().BoolVar(&imperial, "imperial", false, "Use inches instead of centimetres")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// buildLogger creates the session logger honoring --verbose.
func buildLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
