// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 The hpgl authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/djipco/hpgl/pkg/hpgl"
)

var (
	textX        float64
	textY        float64
	textScale    float64
	textRotation float64
	textSlant    float64
	textCharset  int
	textPen      int
	textTimeout  int
)

var textCmd = &cobra.Command{
	Use:   "text <label>",
	Short: "Draw a text label",
	Long: `Draw a text label at the given position.

Coordinates are measured from the top-left corner of the page, in
centimetres (or inches with --imperial). Accented characters are
transliterated for the selected character set; set 33 covers French
(ISO 646-FR) and set 31 covers German (DIN 66003).

Examples:
  # Draw a label 2cm from the top-left corner
  hpgl text --port /dev/ttyUSB0 --x 2 --y 2 "HELLO PLOTTER"

  # Larger, rotated French text
  hpgl text --port /dev/ttyUSB0 --x 5 --y 10 --scale 2 --rotation 45 --charset 33 "Éléphant"

Exit codes:
  0 - Label plotted
  2 - Connection or plotting error`,
	Args: cobra.ExactArgs(1),
	RunE: runText,
}

func init() {
	rootCmd.AddCommand(textCmd)
	textCmd.Flags().Float64Var(&textX, "x", 1, "Horizontal position from the left edge")
	textCmd.Flags().Float64Var(&textY, "y", 1, "Vertical position from the top edge")
	textCmd.Flags().Float64Var(&textScale, "scale", 1, "Character size multiplier")
	textCmd.Flags().Float64Var(&textRotation, "rotation", 0, "Rotation in degrees, counterclockwise")
	textCmd.Flags().Float64Var(&textSlant, "slant", 0, "Slant in degrees from vertical")
	textCmd.Flags().IntVar(&textCharset, "charset", 0, "Character set (0=ANSI, 31=German, 33=French)")
	textCmd.Flags().IntVar(&textPen, "pen", 1, "Pen number")
	textCmd.Flags().IntVar(&textTimeout, "timeout", 120, "Timeout in seconds")
}

func runText(cmd *cobra.Command, args []string) error {
	cs := hpgl.Charset(textCharset)
	if !hpgl.KnownCharset(cs) {
		return fmt.Errorf("unknown character set %d", textCharset)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(textTimeout)*time.Second)
	defer cancel()

	p, connInfo, err := connectPlotter(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer p.Disconnect()

	fmt.Printf("hpgl - Text\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Label: %q at (%.2f, %.2f)\n", args[0], textX, textY)

	if err := p.SelectPen(textPen); err != nil {
		return err
	}
	if err := p.MoveTo(textX, textY); err != nil {
		return err
	}
	err = p.DrawText(args[0], hpgl.LabelOptions{
		Charset:  cs,
		Scale:    textScale,
		Rotation: textRotation,
		Slant:    textSlant,
	})
	if err != nil {
		return err
	}
	// Park the pen before hanging up
	if err := p.SelectPen(0); err != nil {
		return err
	}

	if err := p.WaitIdle(ctx); err != nil {
		return fmt.Errorf("plot did not finish: %w", err)
	}

	fmt.Printf("Done\n")
	return nil
}
