// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 The hpgl authors

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/djipco/hpgl/pkg/hpgl"
	"github.com/djipco/hpgl/pkg/plotter"
)

var (
	plotDemo    bool
	plotPen     int
	plotSpeed   float64
	plotTimeout int
)

var plotCmd = &cobra.Command{
	Use:   "plot [script]",
	Short: "Plot a drawing from a script file",
	Long: `Plot a drawing described by a script file, one command per line.

Coordinates are measured from the top-left corner of the page, in
centimetres (or inches with --imperial). Blank lines and lines starting
with # are ignored.

Script commands:
  pen <n>                        Select pen n (0 parks the pen)
  speed <cm/s>                   Set pen velocity
  move <x> <y>                   Lift the pen and move
  line <x1> <y1> <x2> <y2>       Draw a single line segment
  poly <x1> <y1> <x2> <y2> ...   Draw a polyline through the points
  pattern <0-7>                  Line pattern for subsequent lines
  circle <x> <y> <r>             Draw a circle centred on (x, y)
  rect <x> <y> <w> <h>           Draw a rectangle from its top-left corner
  text <x> <y> <label...>        Draw a text label

Interrupting the plot (Ctrl-C) aborts the device buffer before
disconnecting, so the pen stops quickly instead of draining the queue.

Examples:
  # Plot a script over serial
  hpgl plot --port /dev/ttyUSB0 drawing.plt

  # Built-in demo figure, A3 paper
  hpgl plot --port /dev/ttyUSB0 --paper A3 --demo

Exit codes:
  0 - Plot finished
  1 - Plot aborted by the user
  2 - Connection, script or plotting error`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlot,
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().BoolVar(&plotDemo, "demo", false, "Plot a built-in demo figure")
	plotCmd.Flags().IntVar(&plotPen, "pen", 1, "Initial pen number")
	plotCmd.Flags().Float64Var(&plotSpeed, "speed", 0, "Pen velocity in cm/s (0 = device default)")
	plotCmd.Flags().IntVar(&plotTimeout, "timeout", 3600, "Timeout in seconds for the whole plot")
}

func runPlot(cmd *cobra.Command, args []string) error {
	if !plotDemo && len(args) == 0 {
		return fmt.Errorf("either a script file or --demo must be given")
	}

	var script []scriptCommand
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Script error: %v\n", err)
			os.Exit(2)
		}
		script, err = parseScript(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Script error: %v\n", err)
			os.Exit(2)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(plotTimeout)*time.Second)
	defer cancel()

	p, connInfo, err := connectPlotter(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer p.Disconnect()

	fmt.Printf("hpgl - Plot\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Model: %s\n\n", p.Profile().Model)

	if plotDemo {
		script, err = demoScript(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Demo error: %v\n", err)
			os.Exit(2)
		}
	}

	var g run.Group

	// Interrupt handling: on Ctrl-C, abort the device buffer so the pen
	// stops instead of draining queued work.
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	// Event reporter
	events := p.Subscribe()
	eventsDone := make(chan struct{})
	g.Add(func() error {
		for {
			select {
			case ev := <-events:
				switch ev.Kind {
				case plotter.EventError:
					fmt.Fprintf(os.Stderr, "Plotter error: %v\n", ev.Err)
				case plotter.EventAborted:
					fmt.Println("Plot aborted")
				}
			case <-eventsDone:
				return nil
			}
		}
	}, func(error) {
		close(eventsDone)
	})

	// Plotting job
	jobCtx, jobCancel := context.WithCancel(ctx)
	g.Add(func() error {
		return executeScript(jobCtx, p, script)
	}, func(error) {
		jobCancel()
	})

	err = g.Run()

	var sig run.SignalError
	if errors.As(err, &sig) {
		fmt.Printf("\nReceived %s, aborting\n", sig.Signal)
		if abortErr := p.Abort(); abortErr != nil {
			fmt.Fprintf(os.Stderr, "Abort failed: %v\n", abortErr)
		}
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Plot failed: %v\n", err)
		os.Exit(2)
	}

	fmt.Println("Done")
	return nil
}

// scriptCommand is one parsed script line, bound to the plotting call
// it performs.
type scriptCommand struct {
	line int
	text string
	do   func(p *plotter.Plotter) error
}

func parseScript(f *os.File) ([]scriptCommand, error) {
	var cmds []scriptCommand
	pattern := hpgl.DefaultLinePattern

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		verb, rest := fields[0], fields[1:]

		nums := func(n int) ([]float64, error) {
			if len(rest) < n {
				return nil, fmt.Errorf("line %d: %s needs %d arguments, got %d", lineNo, verb, n, len(rest))
			}
			vals := make([]float64, n)
			for i := 0; i < n; i++ {
				v, err := strconv.ParseFloat(rest[i], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad number %q", lineNo, rest[i])
				}
				vals[i] = v
			}
			return vals, nil
		}

		var do func(p *plotter.Plotter) error
		switch verb {
		case "pen":
			v, err := nums(1)
			if err != nil {
				return nil, err
			}
			n := int(v[0])
			do = func(p *plotter.Plotter) error { return p.SelectPen(n) }
		case "speed":
			v, err := nums(1)
			if err != nil {
				return nil, err
			}
			do = func(p *plotter.Plotter) error { return p.SetVelocity(v[0]) }
		case "move":
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			do = func(p *plotter.Plotter) error { return p.MoveTo(v[0], v[1]) }
		case "line":
			v, err := nums(4)
			if err != nil {
				return nil, err
			}
			do = func(p *plotter.Plotter) error { return p.DrawLine(v[0], v[1], v[2], v[3]) }
		case "poly":
			if len(rest) < 4 || len(rest)%2 != 0 {
				return nil, fmt.Errorf("line %d: poly needs an even number of coordinates (at least 4)", lineNo)
			}
			v, err := nums(len(rest))
			if err != nil {
				return nil, err
			}
			points := make([]hpgl.Point, len(v)/2)
			for i := range points {
				points[i] = hpgl.Point{X: v[2*i], Y: v[2*i+1]}
			}
			pat := pattern
			do = func(p *plotter.Plotter) error {
				return p.DrawLines(points, hpgl.LinesOptions{Pattern: pat})
			}
		case "pattern":
			v, err := nums(1)
			if err != nil {
				return nil, err
			}
			pattern = int(v[0])
			continue
		case "circle":
			v, err := nums(3)
			if err != nil {
				return nil, err
			}
			do = func(p *plotter.Plotter) error {
				if err := p.MoveTo(v[0], v[1]); err != nil {
					return err
				}
				return p.DrawCircle(v[2], 0)
			}
		case "rect":
			v, err := nums(4)
			if err != nil {
				return nil, err
			}
			do = func(p *plotter.Plotter) error {
				if err := p.MoveTo(v[0], v[1]); err != nil {
					return err
				}
				return p.DrawRectangle(v[2], v[3])
			}
		case "text":
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			if len(rest) < 3 {
				return nil, fmt.Errorf("line %d: text needs a label", lineNo)
			}
			label := strings.Join(rest[2:], " ")
			do = func(p *plotter.Plotter) error {
				if err := p.MoveTo(v[0], v[1]); err != nil {
					return err
				}
				return p.DrawText(label, hpgl.LabelOptions{})
			}
		default:
			return nil, fmt.Errorf("line %d: unknown command %q", lineNo, verb)
		}

		cmds = append(cmds, scriptCommand{line: lineNo, text: line, do: do})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cmds, nil
}

func executeScript(ctx context.Context, p *plotter.Plotter, script []scriptCommand) error {
	if err := p.SelectPen(plotPen); err != nil {
		return err
	}
	if plotSpeed > 0 {
		if err := p.SetVelocity(plotSpeed); err != nil {
			return err
		}
	}

	for _, c := range script {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.do(p); err != nil {
			return fmt.Errorf("line %d (%s): %w", c.line, c.text, err)
		}
	}

	// Park the pen before hanging up
	if err := p.SelectPen(0); err != nil {
		return err
	}
	return p.WaitIdle(ctx)
}

// demoScript draws a border, a circle, nested rectangles and a caption
// sized to the active paper.
func demoScript(p *plotter.Plotter) ([]scriptCommand, error) {
	width, height, err := p.PlottableArea()
	if err != nil {
		return nil, err
	}

	cx, cy := width/2, height/2
	r := height / 4

	steps := []struct {
		text string
		do   func(p *plotter.Plotter) error
	}{
		{"border", func(p *plotter.Plotter) error {
			return p.DrawLines([]hpgl.Point{
				{X: 0, Y: 0}, {X: width, Y: 0}, {X: width, Y: height},
				{X: 0, Y: height}, {X: 0, Y: 0},
			}, hpgl.LinesOptions{Pattern: hpgl.DefaultLinePattern})
		}},
		{"circle", func(p *plotter.Plotter) error {
			if err := p.MoveTo(cx, cy); err != nil {
				return err
			}
			return p.DrawCircle(r, 0)
		}},
		{"rectangles", func(p *plotter.Plotter) error {
			for i := 1; i <= 3; i++ {
				inset := r * float64(i) / 4
				if err := p.MoveTo(cx-inset, cy-inset); err != nil {
					return err
				}
				if err := p.DrawRectangle(2*inset, 2*inset); err != nil {
					return err
				}
			}
			return nil
		}},
		{"caption", func(p *plotter.Plotter) error {
			if err := p.MoveTo(1, height-1); err != nil {
				return err
			}
			return p.DrawText("HPGL DEMO", hpgl.LabelOptions{Scale: 1.5})
		}},
	}

	cmds := make([]scriptCommand, len(steps))
	for i, s := range steps {
		cmds[i] = scriptCommand{line: i + 1, text: s.text, do: s.do}
	}
	return cmds, nil
}
