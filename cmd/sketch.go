// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 The hpgl authors

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/djipco/hpgl/pkg/hpgl"
	"github.com/djipco/hpgl/pkg/plotter"
)

var sketchCmd = &cobra.Command{
	Use:   "sketch",
	Short: "Interactive TUI for sketching on the plotter",
	Long: `Sketch on the plotter with an interactive terminal UI.

The pen is jogged with the arrow keys and raised or lowered with the
space bar; moving with the pen down draws. A label can be typed and
plotted at the current position, and raw HPGL can be sent directly for
instructions the UI has no key for.

Keys:
  arrows      Jog the pen by the current step
  +/-         Double / halve the jog step
  space       Toggle pen up/down
  1-8         Select pen
  t           Type a text label (Enter plots it, Esc cancels)
  :           Type raw HPGL (Enter queues it, Esc cancels)
  a           Abort: stop the pen and clear queued work
  q, ctrl+c   Quit

Supports both serial and WebSocket connections.`,
	RunE: runSketch,
}

func init() {
	rootCmd.AddCommand(sketchCmd)
}

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Input focus states
const (
	focusCanvas = iota
	focusLabelInput
	focusRawInput
)

const (
	defaultJogStep = 0.5 // cm (or inches with --imperial)
	minJogStep     = 0.0625
	maxJogStep     = 8
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// sketchLogEntry is one line in the event log
type sketchLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// sketchModel is the Bubble Tea model for the sketch TUI
type sketchModel struct {
	plotter  *plotter.Plotter
	connInfo string

	// Pen state, in logical page units from the top-left corner
	x, y     float64
	penDown  bool
	pen      int
	step     float64
	areaW    float64
	areaH    float64
	unitName string

	// Manual input
	labelInput textinput.Model
	rawInput   textinput.Model
	focused    int

	// UI state
	width         int
	height        int
	quitting      bool
	queueLen      int
	log           []sketchLogEntry
	maxLogEntries int
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type sketchTickMsg time.Time

type sketchEventMsg plotter.Event

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialSketchModel(p *plotter.Plotter, connInfo string, areaW, areaH float64) sketchModel {
	li := textinput.New()
	li.Placeholder = "HELLO"
	li.CharLimit = 128
	li.Width = 40

	ri := textinput.New()
	ri.Placeholder = "SP1;PA0,0;"
	ri.CharLimit = 128
	ri.Width = 40

	unitName := "cm"
	if imperial {
		unitName = "in"
	}

	return sketchModel{
		plotter:       p,
		connInfo:      connInfo,
		x:             areaW / 2,
		y:             areaH / 2,
		pen:           1,
		step:          defaultJogStep,
		areaW:         areaW,
		areaH:         areaH,
		unitName:      unitName,
		labelInput:    li,
		rawInput:      ri,
		focused:       focusCanvas,
		width:         80,
		height:        24,
		log:           make([]sketchLogEntry, 0),
		maxLogEntries: 100,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m sketchModel) Init() tea.Cmd {
	return sketchTickCmd()
}

func sketchTickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return sketchTickMsg(t)
	})
}

func (m sketchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sketchTickMsg:
		m.queueLen = m.plotter.QueueLen()
		return m, sketchTickCmd()

	case sketchEventMsg:
		switch msg.Kind {
		case plotter.EventError:
			m.addLogEntry(fmt.Sprintf("Plotter error: %v", msg.Err), true)
		case plotter.EventAborted:
			m.addLogEntry("Aborted", false)
		case plotter.EventDisconnected:
			m.addLogEntry("Disconnected", true)
		}
	}

	return m, nil
}

func (m sketchModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text entry modes capture everything except Enter and Esc
	if m.focused != focusCanvas {
		switch msg.String() {
		case "enter":
			return m.submitInput()
		case "esc":
			m.focused = focusCanvas
			m.labelInput.Blur()
			m.rawInput.Blur()
			return m, nil
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		if m.focused == focusLabelInput {
			m.labelInput, cmd = m.labelInput.Update(msg)
		} else {
			m.rawInput, cmd = m.rawInput.Update(msg)
		}
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up":
		return m.jog(0, -m.step)
	case "down":
		return m.jog(0, m.step)
	case "left":
		return m.jog(-m.step, 0)
	case "right":
		return m.jog(m.step, 0)

	case "+", "=":
		if m.step*2 <= maxJogStep {
			m.step *= 2
		}
	case "-", "_":
		if m.step/2 >= minJogStep {
			m.step /= 2
		}

	case " ":
		m.penDown = !m.penDown
		if m.penDown {
			m.addLogEntry("Pen down", false)
		} else {
			m.addLogEntry("Pen up", false)
		}

	case "1", "2", "3", "4", "5", "6", "7", "8":
		n := int(msg.String()[0] - '0')
		if err := m.plotter.SelectPen(n); err != nil {
			m.addLogEntry(fmt.Sprintf("Pen select failed: %v", err), true)
		} else {
			m.pen = n
			m.addLogEntry(fmt.Sprintf("Pen %d", n), false)
		}

	case "t":
		m.focused = focusLabelInput
		m.labelInput.SetValue("")
		m.labelInput.Focus()
		return m, textinput.Blink

	case ":":
		m.focused = focusRawInput
		m.rawInput.SetValue("")
		m.rawInput.Focus()
		return m, textinput.Blink

	case "a":
		if err := m.plotter.Abort(); err != nil {
			m.addLogEntry(fmt.Sprintf("Abort failed: %v", err), true)
		}
	}

	return m, nil
}

//////////////////////////////////////////////////////////////
// Actions
//////////////////////////////////////////////////////////////

func (m sketchModel) jog(dx, dy float64) (tea.Model, tea.Cmd) {
	nx := clampCoord(m.x+dx, 0, m.areaW)
	ny := clampCoord(m.y+dy, 0, m.areaH)
	if nx == m.x && ny == m.y {
		return m, nil
	}

	var err error
	if m.penDown {
		err = m.plotter.DrawLine(m.x, m.y, nx, ny)
	} else {
		err = m.plotter.MoveTo(nx, ny)
	}
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Move failed: %v", err), true)
		return m, nil
	}

	m.x, m.y = nx, ny
	return m, nil
}

func (m sketchModel) submitInput() (tea.Model, tea.Cmd) {
	switch m.focused {
	case focusLabelInput:
		label := m.labelInput.Value()
		if label != "" {
			err := m.plotter.DrawText(label, hpgl.LabelOptions{})
			if err != nil {
				m.addLogEntry(fmt.Sprintf("Label failed: %v", err), true)
			} else {
				m.addLogEntry(fmt.Sprintf("Label %q", label), false)
			}
		}
		m.labelInput.Blur()

	case focusRawInput:
		raw := m.rawInput.Value()
		if raw != "" {
			err := m.plotter.Queue(raw, nil, false)
			if err != nil {
				m.addLogEntry(fmt.Sprintf("Queue failed: %v", err), true)
			} else {
				m.addLogEntry(fmt.Sprintf("Queued %q", raw), false)
			}
		}
		m.rawInput.Blur()
	}

	m.focused = focusCanvas
	return m, nil
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m sketchModel) View() string {
	if m.quitting {
		return "Parking pen...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	penDownStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	s.WriteString(titleStyle.Render("HPGL SKETCH"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | %s | q=quit space=pen t=label :=raw a=abort",
		m.connInfo, m.plotter.Profile().Model)))
	s.WriteString("\n\n")

	// Position bar
	penState := valueStyle.Render("UP")
	if m.penDown {
		penState = penDownStyle.Render("DOWN")
	}
	position := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Position:"), valueStyle.Render(fmt.Sprintf("%.2f, %.2f %s", m.x, m.y, m.unitName)),
		labelStyle.Render("Pen:"), valueStyle.Render(fmt.Sprintf("%d", m.pen)),
		labelStyle.Render("State:"), penState,
		labelStyle.Render("Step:"), valueStyle.Render(fmt.Sprintf("%.4g %s", m.step, m.unitName)),
		labelStyle.Render("Queued:"), valueStyle.Render(fmt.Sprintf("%d", m.queueLen)),
	)
	s.WriteString(boxStyle.Width(m.width - 4).Render(position))
	s.WriteString("\n\n")

	// Input line
	switch m.focused {
	case focusLabelInput:
		s.WriteString(labelStyle.Render("Label: "))
		s.WriteString(m.labelInput.View())
		s.WriteString("\n\n")
	case focusRawInput:
		s.WriteString(labelStyle.Render("HPGL: "))
		s.WriteString(m.rawInput.View())
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(m.renderEventLog(labelStyle, boxStyle))

	return s.String()
}

func (m sketchModel) renderEventLog(labelStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	logHeight := 8
	if len(m.log) < logHeight {
		logHeight = len(m.log)
	}
	startIdx := len(m.log) - logHeight

	if len(m.log) == 0 {
		s.WriteString(timeStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.log); i++ {
			entry := m.log[i]
			icon := "i"
			style := infoStyle
			if entry.isError {
				icon = "x"
				style = errStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				timeStyle.Render(entry.timestamp.Format("15:04:05.000")),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *sketchModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, sketchLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

func clampCoord(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

//////////////////////////////////////////////////////////////
// Command
//////////////////////////////////////////////////////////////

func runSketch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, connInfo, err := connectPlotter(ctx)
	if err != nil {
		return err
	}
	defer p.Disconnect()

	areaW, areaH, err := p.PlottableArea()
	if err != nil {
		return err
	}

	if err := p.SelectPen(1); err != nil {
		return err
	}
	// Start from the centre of the page
	if err := p.MoveTo(areaW/2, areaH/2); err != nil {
		return err
	}

	m := initialSketchModel(p, connInfo, areaW, areaH)
	prog := tea.NewProgram(m, tea.WithAltScreen())

	// Forward plotter events into the TUI
	events := p.Subscribe()
	eventsDone := make(chan struct{})
	go func() {
		for {
			select {
			case ev := <-events:
				prog.Send(sketchEventMsg(ev))
			case <-eventsDone:
				return
			}
		}
	}()

	_, runErr := prog.Run()
	close(eventsDone)

	// Park the pen before hanging up
	p.SelectPen(0)
	parkCtx, parkCancel := context.WithTimeout(context.Background(), 10*time.Second)
	p.WaitIdle(parkCtx)
	parkCancel()

	if runErr != nil {
		return fmt.Errorf("TUI error: %v", runErr)
	}
	return nil
}
