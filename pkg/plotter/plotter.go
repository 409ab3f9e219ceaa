// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

// Package plotter drives an HPGL pen plotter over a serial transport:
// it owns the command queue and flow-control engine, the staged
// connection handshake, and the drawing API.
package plotter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go"
	"go.uber.org/zap"

	"github.com/djipco/hpgl/pkg/hpgl"
)

// State is the connection lifecycle state.
type State int

// Connection states. StateError is reachable from any state; drawing
// operations are only valid in StateReady.
const (
	StateDisconnected State = iota
	StateConnecting
	StateProbingLink
	StateFetchingProfile
	StateConfiguring
	StateReady
	StateDisconnecting
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateProbingLink:
		return "probing link"
	case StateFetchingProfile:
		return "fetching profile"
	case StateConfiguring:
		return "configuring"
	case StateReady:
		return "ready"
	case StateDisconnecting:
		return "disconnecting"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Config describes the requested plotting environment.
type Config struct {
	// Paper names the sheet size to plot on, e.g. "A4". Validated
	// against the resolved model's paper table during handshake.
	Paper string

	// Orientation of the logical page on the sheet.
	Orientation hpgl.Orientation

	// Unit system for all drawing API coordinates.
	Unit hpgl.Unit

	// Logger for structured session logging; nil means silent.
	Logger *zap.Logger
}

// Plotter is one exclusive session against one device. All drawing
// calls encode instructions and enqueue them; the flow controller
// paces transmission against the device's live buffer feedback.
type Plotter struct {
	tr  Transport
	log *zap.Logger
	fc  *flowController
	dec *hpgl.ResponseDecoder

	cfg Config

	mu      sync.Mutex
	state   State
	closed  bool
	profile *hpgl.Profile
	enc     *hpgl.Encoder

	subs  []chan Event
	subMu sync.Mutex

	readerDone chan struct{}
}

// New creates a session over the given transport. The transport must
// not be shared with any other session.
func New(tr Transport, cfg Config) *Plotter {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p := &Plotter{
		tr:    tr,
		log:   log,
		dec:   hpgl.NewResponseDecoder(),
		cfg:   cfg,
		state: StateDisconnected,
	}
	p.fc = newFlowController(tr, log)
	p.fc.onFault = func(err error) {
		p.publish(Event{Kind: EventError, Err: err})
		p.log.Error("flow controller fault", zap.Error(err))
	}
	return p
}

// State returns the current connection state.
func (p *Plotter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Profile returns the resolved device profile, nil before handshake.
func (p *Plotter) Profile() *hpgl.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

// QueueLen reports the number of commands awaiting transmission.
func (p *Plotter) QueueLen() int {
	return p.fc.Len()
}

func (p *Plotter) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.log.Debug("connection state", zap.Stringer("state", s))
}

// Connect runs the staged startup protocol: open the transport, verify
// the RS-232-C link answers, resolve the device profile, configure the
// plotting environment, and signal ready.
//
// A Plotter connects at most once. After Disconnect the session is
// closed for good and Connect returns ErrSessionClosed; reconnecting
// means constructing a fresh Plotter.
func (p *Plotter) Connect(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrSessionClosed
	}
	if p.state != StateDisconnected {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("plotter: connect from state %q", state)
	}
	p.mu.Unlock()

	p.setState(StateConnecting)
	if err := p.tr.Open(); err != nil {
		p.setState(StateError)
		return &TransportError{Op: "open", Err: err}
	}
	p.readerDone = make(chan struct{})
	go p.readLoop()
	p.fc.start()
	p.publish(Event{Kind: EventConnected})

	fail := func(err error) error {
		p.setState(StateError)
		p.publish(Event{Kind: EventError, Err: err})
		return err
	}

	p.setState(StateProbingLink)
	if err := p.probeLink(); err != nil {
		return fail(err)
	}

	p.setState(StateFetchingProfile)
	if err := p.fetchProfile(ctx); err != nil {
		return fail(err)
	}

	p.setState(StateConfiguring)
	if err := p.configureEnvironment(ctx); err != nil {
		return fail(err)
	}

	p.setState(StateReady)
	p.publish(Event{Kind: EventReady})
	p.log.Info("plotter ready",
		zap.String("model", p.profile.Model),
		zap.String("paper", p.cfg.Paper),
		zap.Stringer("orientation", p.cfg.Orientation))
	return nil
}

// probeLink verifies the RS-232-C error channel answers within the
// response window and reports a clean link. The query goes directly to
// the transport: the queue's flow control is not trusted yet, and the
// pump is idle because nothing has been enqueued.
func (p *Plotter) probeLink() error {
	var code int
	err := retry.Do(
		func() error {
			p.fc.flushResponses()
			if _, err := p.tr.Write([]byte(hpgl.EscLinkError)); err != nil {
				return retry.Unrecoverable(&TransportError{Op: "write", Err: err})
			}
			resp, err := p.fc.awaitResponse(p.fc.responseTimeout)
			if err != nil {
				return err
			}
			code, err = strconv.Atoi(strings.TrimSpace(resp))
			if err != nil {
				return fmt.Errorf("plotter: malformed link error reply %q: %v", resp, err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(p.fc.drainInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("plotter: link probe failed: %w", err)
	}
	if linkErr := hpgl.DecodeLinkError(code); linkErr != nil {
		return fmt.Errorf("plotter: link probe: %w", linkErr)
	}
	return nil
}

// fetchProfile resolves the model name, buffer capacity and resolution
// from the live device. These bootstrap queries run through the queue
// but bypass length validation, since the capacity is exactly what is
// being fetched.
func (p *Plotter) fetchProfile(ctx context.Context) error {
	model, err := p.fetchModel(ctx)
	if err != nil {
		return err
	}
	profile := hpgl.ProfileFor(model)
	if profile.Model == "generic" && model != "" {
		p.log.Warn("unknown model, using generic profile", zap.String("model", model))
	}

	caps := profile.DefaultCaps

	// Total buffer capacity.
	if resp, err := p.enqueueAwait(ctx, hpgl.EscBufferSize); err == nil {
		if n, convErr := strconv.Atoi(strings.TrimSpace(resp)); convErr == nil && n > 0 {
			caps.BufferSize = n
		}
	} else if err == ErrResponseTimeout {
		p.log.Warn("no reply to buffer size query, using profile default",
			zap.Int("default", caps.BufferSize))
	} else {
		return err
	}

	// Resolution, in plotter units per millimetre per axis.
	if profile.Supports(hpgl.InstrOutputFactors) {
		resp, err := p.enqueueAwait(ctx, hpgl.InstrOutputFactors)
		if err == nil {
			if x, y, ok := parseFactors(resp); ok {
				caps.ResolutionX = x
				caps.ResolutionY = y
			}
		} else if err != ErrResponseTimeout {
			return err
		}
	}

	profile.Resolve(caps)
	p.fc.setCapacity(caps.BufferSize)

	p.mu.Lock()
	p.profile = profile
	p.mu.Unlock()

	p.log.Info("device profile resolved",
		zap.String("model", profile.Model),
		zap.Int("buffer", caps.BufferSize),
		zap.Float64("resolution", caps.ResolutionX))
	return nil
}

// fetchModel issues the primary HPGL identification query. Some
// devices refuse to answer OI before reaching ready state; on timeout
// the stale query is flushed and the always-available RS-232-C
// identification sequence is used instead.
func (p *Plotter) fetchModel(ctx context.Context) (string, error) {
	resp, err := p.enqueueAwait(ctx, hpgl.InstrOutputIdent)
	if err == ErrResponseTimeout {
		p.log.Warn("no reply to model query, falling back to interface identification")
		p.fc.Clear()
		p.fc.flushResponses()
		resp, err = p.enqueueAwait(ctx, hpgl.EscIdentify)
	}
	if err != nil {
		return "", fmt.Errorf("plotter: model query failed: %w", err)
	}
	return strings.TrimSpace(resp), nil
}

// parseFactors parses an OF reply of the form "40,40".
func parseFactors(resp string) (x, y float64, ok bool) {
	parts := strings.Split(strings.TrimSpace(resp), ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil || x <= 0 || y <= 0 {
		return 0, 0, false
	}
	return x, y, true
}

// configureEnvironment validates the requested paper and orientation
// against the resolved profile, then initializes the device and
// applies the page selection.
func (p *Plotter) configureEnvironment(ctx context.Context) error {
	paper, ok := p.profile.Paper(p.cfg.Paper)
	if !ok {
		return &UnsupportedPaperError{
			Paper:       p.cfg.Paper,
			Orientation: p.cfg.Orientation,
			Model:       p.profile.Model,
			Supported:   p.profile.PaperNames(),
		}
	}
	if p.cfg.Orientation == hpgl.Portrait && !p.profile.Supports(hpgl.InstrRotate) {
		return &UnsupportedPaperError{
			Paper:       p.cfg.Paper,
			Orientation: p.cfg.Orientation,
			Model:       p.profile.Model,
			Supported:   p.profile.PaperNames(),
		}
	}

	frame := hpgl.Frame{Paper: paper, Orientation: p.cfg.Orientation}
	p.mu.Lock()
	p.enc = hpgl.NewEncoder(p.profile, frame, p.cfg.Unit)
	p.mu.Unlock()

	var setup strings.Builder
	setup.WriteString(hpgl.InstrInitialize + ";")
	if paper.PageSizeCode != "" && p.profile.Supports(hpgl.InstrPageSize) {
		setup.WriteString(hpgl.InstrPageSize + paper.PageSizeCode + ";")
	}
	if p.cfg.Orientation == hpgl.Portrait {
		setup.WriteString(hpgl.InstrRotate + "90;" + hpgl.InstrInputPoints + ";")
	}
	return p.enqueueFlush(ctx, setup.String())
}

// readLoop demultiplexes the single shared inbound stream: raw bytes
// are accumulated until CR, then delivered both to event listeners and
// to the flow controller's single waiting consumer.
func (p *Plotter) readLoop() {
	defer close(p.readerDone)

	data := p.tr.Data()
	errs := p.tr.Errors()
	for {
		select {
		case chunk, ok := <-data:
			if !ok {
				return
			}
			for _, resp := range p.dec.Decode(chunk) {
				p.publish(Event{Kind: EventData, Data: resp})
				p.fc.deliver(resp)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.log.Error("transport error", zap.Error(err))
			p.publish(Event{Kind: EventError, Err: &TransportError{Op: "read", Err: err}})
		}
	}
}

// enqueueAwait queues a response-awaiting instruction and blocks until
// its response arrives or ctx is done.
func (p *Plotter) enqueueAwait(ctx context.Context, text string) (string, error) {
	type result struct {
		resp string
		err  error
	}
	ch := make(chan result, 1)
	err := p.fc.Enqueue(text, func(resp string, err error) {
		ch <- result{resp, err}
	}, true)
	if err != nil {
		return "", err
	}
	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// enqueueFlush queues fire-and-forget instructions and blocks until
// the batch has been transmitted.
func (p *Plotter) enqueueFlush(ctx context.Context, text string) error {
	ch := make(chan error, 1)
	err := p.fc.Enqueue(text, func(_ string, err error) {
		ch <- err
	}, false)
	if err != nil {
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// encoder returns the session encoder, failing unless Ready.
func (p *Plotter) encoder() (*hpgl.Encoder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReady || p.enc == nil {
		return nil, ErrNotReady
	}
	return p.enc, nil
}

// send encodes nothing itself: it queues already-encoded instructions.
func (p *Plotter) send(instructions []hpgl.Instruction) error {
	if len(instructions) == 0 {
		return nil
	}
	return p.fc.Enqueue(hpgl.Join(instructions), nil, false)
}

// MoveTo lifts the pen and moves to the given logical point.
func (p *Plotter) MoveTo(x, y float64) error {
	enc, err := p.encoder()
	if err != nil {
		return err
	}
	instructions, err := enc.MoveTo(hpgl.Point{X: x, Y: y})
	if err != nil {
		return err
	}
	return p.send(instructions)
}

// DrawLine draws a single line segment.
func (p *Plotter) DrawLine(x1, y1, x2, y2 float64) error {
	return p.DrawLines([]hpgl.Point{{X: x1, Y: y1}, {X: x2, Y: y2}}, hpgl.LinesOptions{Pattern: hpgl.DefaultLinePattern})
}

// DrawLines draws a polyline through the given points.
func (p *Plotter) DrawLines(points []hpgl.Point, opt hpgl.LinesOptions) error {
	enc, err := p.encoder()
	if err != nil {
		return err
	}
	instructions, err := enc.Lines(points, opt)
	if err != nil {
		return err
	}
	return p.send(instructions)
}

// DrawCircle draws a circle around the current pen position.
func (p *Plotter) DrawCircle(radius, chordAngle float64) error {
	enc, err := p.encoder()
	if err != nil {
		return err
	}
	instructions, err := enc.Circle(radius, chordAngle)
	if err != nil {
		return err
	}
	return p.send(instructions)
}

// DrawRectangle draws a rectangle from the current pen position.
func (p *Plotter) DrawRectangle(width, height float64) error {
	enc, err := p.encoder()
	if err != nil {
		return err
	}
	instructions, err := enc.Rectangle(width, height)
	if err != nil {
		return err
	}
	return p.send(instructions)
}

// DrawText draws a text label at the current pen position.
func (p *Plotter) DrawText(text string, opt hpgl.LabelOptions) error {
	enc, err := p.encoder()
	if err != nil {
		return err
	}
	instructions, err := enc.Text(text, opt)
	if err != nil {
		return err
	}
	return p.send(instructions)
}

// SetVelocity sets the pen velocity in cm/s.
func (p *Plotter) SetVelocity(v float64) error {
	enc, err := p.encoder()
	if err != nil {
		return err
	}
	return p.send(enc.Velocity(v))
}

// SelectPen selects a pen from the carousel; 0 stows the pen.
func (p *Plotter) SelectPen(n int) error {
	enc, err := p.encoder()
	if err != nil {
		return err
	}
	return p.send(enc.SelectPen(n))
}

// GetStatus fetches and decodes the device status word.
func (p *Plotter) GetStatus(ctx context.Context) (hpgl.Status, error) {
	if p.State() != StateReady {
		return hpgl.Status{}, ErrNotReady
	}
	resp, err := p.enqueueAwait(ctx, hpgl.EscStatus)
	if err != nil {
		return hpgl.Status{}, err
	}
	word, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return hpgl.Status{}, fmt.Errorf("plotter: malformed status reply %q: %v", resp, err)
	}
	return hpgl.DecodeStatus(word), nil
}

// GetLinkError fetches and decodes the RS-232-C error state; nil
// means the link is clean.
func (p *Plotter) GetLinkError(ctx context.Context) (*hpgl.LinkError, error) {
	if p.State() != StateReady {
		return nil, ErrNotReady
	}
	resp, err := p.enqueueAwait(ctx, hpgl.EscLinkError)
	if err != nil {
		return nil, err
	}
	code, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return nil, fmt.Errorf("plotter: malformed link error reply %q: %v", resp, err)
	}
	return hpgl.DecodeLinkError(code), nil
}

// PlottableArea returns the drawable width and height in the session's
// unit system.
func (p *Plotter) PlottableArea() (width, height float64, err error) {
	enc, err := p.encoder()
	if err != nil {
		return 0, 0, err
	}
	caps, _ := p.profile.Caps()
	w, h := enc.Frame().PlottableArea()
	width, err = hpgl.FromPlotterUnits(float64(w), p.cfg.Unit, caps.ResolutionX)
	if err != nil {
		return 0, 0, err
	}
	height, err = hpgl.FromPlotterUnits(float64(h), p.cfg.Unit, caps.ResolutionY)
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

// Margins returns the active orientation's margins in plotter units.
func (p *Plotter) Margins() (hpgl.Margins, error) {
	enc, err := p.encoder()
	if err != nil {
		return hpgl.Margins{}, err
	}
	return enc.Frame().Margins(), nil
}

// Queue submits a raw, already-encoded instruction string. Advanced
// callers use this for instructions the drawing API does not cover.
func (p *Plotter) Queue(text string, done func(response string, err error), awaitsResponse bool) error {
	if p.State() != StateReady {
		return ErrNotReady
	}
	return p.fc.Enqueue(text, done, awaitsResponse)
}

// Abort discards all queued-but-unsent commands and instructs the
// device to drop its buffered instructions. The session stays usable:
// abort is not disconnect.
func (p *Plotter) Abort() error {
	p.fc.Clear()
	if _, err := p.tr.Write([]byte(hpgl.EscAbortDevice)); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	p.publish(Event{Kind: EventAborted})
	p.log.Info("aborted, queue discarded")
	return nil
}

// Disconnect aborts outstanding work, stops the pump and closes the
// transport. The session is closed permanently; a later Connect on
// the same Plotter returns ErrSessionClosed.
func (p *Plotter) Disconnect() error {
	if p.State() == StateDisconnected {
		return nil
	}
	p.setState(StateDisconnecting)

	p.fc.shutdown()
	err := p.tr.Close()
	if p.readerDone != nil {
		<-p.readerDone
	}

	p.mu.Lock()
	p.profile = nil
	p.enc = nil
	p.state = StateDisconnected
	p.closed = true
	p.mu.Unlock()

	p.publish(Event{Kind: EventDisconnected})
	p.log.Info("disconnected")
	if err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// WaitIdle blocks until the queue is empty or ctx is done. Useful for
// callers that need plot completion before disconnecting.
func (p *Plotter) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if p.fc.Len() == 0 {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
