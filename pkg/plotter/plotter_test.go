package plotter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/djipco/hpgl/pkg/hpgl"
)

func testPlotter(tr Transport, cfg Config) *Plotter {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	p := New(tr, cfg)
	p.fc.drainInterval = 5 * time.Millisecond
	p.fc.responseTimeout = 30 * time.Millisecond
	return p
}

func TestConnectHandshake(t *testing.T) {
	tr := newFakeTransport()
	p := testPlotter(tr, Config{Paper: "A4", Orientation: hpgl.Landscape})
	defer p.Disconnect()

	events := p.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if p.State() != StateReady {
		t.Errorf("state = %v, want ready", p.State())
	}

	profile := p.Profile()
	if profile == nil || profile.Model != "7475A" {
		t.Fatalf("profile = %+v", profile)
	}
	caps, ok := profile.Caps()
	if !ok {
		t.Fatal("capabilities should be resolved")
	}
	if caps.BufferSize != 1024 || caps.ResolutionX != 40 {
		t.Errorf("caps = %+v", caps)
	}

	// The environment setup must begin with a device reset.
	sent := tr.sentInstructions()
	var sawInit bool
	for _, s := range sent {
		if s == "IN;" {
			sawInit = true
		}
	}
	if !sawInit {
		t.Errorf("no IN; in %q", sent)
	}

	// Lifecycle events arrive in order.
	wantKinds := []EventKind{EventConnected, EventReady}
	for _, want := range wantKinds {
		found := false
		deadline := time.After(time.Second)
		for !found {
			select {
			case ev := <-events:
				if ev.Kind == want {
					found = true
				}
			case <-deadline:
				t.Fatalf("event %v never observed", want)
			}
		}
	}
}

func TestConnectUnknownModelFallsBack(t *testing.T) {
	tr := newFakeTransport()
	tr.model = "9999X"
	tr.muteCapacity = true
	p := testPlotter(tr, Config{Paper: "A4", Orientation: hpgl.Landscape})
	defer p.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	profile := p.Profile()
	if profile.Model != "generic" {
		t.Errorf("model = %q, want generic fallback", profile.Model)
	}
	caps, _ := profile.Caps()
	if caps.BufferSize != 60 {
		t.Errorf("generic buffer = %d, want conservative 60", caps.BufferSize)
	}
}

// An unreachable paper size must fail the handshake by name, before
// Ready is ever reached.
func TestConnectUnsupportedPaper(t *testing.T) {
	tr := newFakeTransport()
	tr.model = "7470A" // carries A and A4 only
	p := testPlotter(tr, Config{Paper: "A3", Orientation: hpgl.Portrait})
	defer p.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := p.Connect(ctx)
	var unsupported *UnsupportedPaperError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Connect = %v, want UnsupportedPaperError", err)
	}
	if unsupported.Paper != "A3" {
		t.Errorf("error names paper %q", unsupported.Paper)
	}
	if !strings.Contains(err.Error(), "A3") || !strings.Contains(err.Error(), "portrait") {
		t.Errorf("error should name the unsupported size and orientation: %v", err)
	}
	if p.State() == StateReady {
		t.Error("session must not reach ready")
	}
}

// A dirty link at probe time aborts the handshake with the decoded
// link error.
func TestConnectLinkErrorAborts(t *testing.T) {
	tr := newFakeTransport()
	tr.linkError = 15
	p := testPlotter(tr, Config{Paper: "A4"})
	defer p.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := p.Connect(ctx)
	var linkErr *hpgl.LinkError
	if !errors.As(err, &linkErr) {
		t.Fatalf("Connect = %v, want LinkError", err)
	}
	if linkErr.Code != 15 {
		t.Errorf("link error code = %d, want 15", linkErr.Code)
	}
}

// When OI goes unanswered the sequencer flushes the stale query and
// falls back to the RS-232-C identification sequence.
func TestModelQueryFallback(t *testing.T) {
	tr := newFakeTransport()
	tr.muteModel = true
	p := testPlotter(tr, Config{Paper: "A4"})
	defer p.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if p.Profile().Model != "7475A" {
		t.Errorf("model = %q, want 7475A via fallback", p.Profile().Model)
	}
}

func TestDrawingRequiresReady(t *testing.T) {
	tr := newFakeTransport()
	p := testPlotter(tr, Config{Paper: "A4"})

	if err := p.MoveTo(1, 1); err != ErrNotReady {
		t.Errorf("MoveTo = %v, want ErrNotReady", err)
	}
	if err := p.DrawLines([]hpgl.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, hpgl.LinesOptions{}); err != ErrNotReady {
		t.Errorf("DrawLines = %v, want ErrNotReady", err)
	}
	if _, err := p.GetStatus(context.Background()); err != ErrNotReady {
		t.Errorf("GetStatus = %v, want ErrNotReady", err)
	}
}

func connectReady(t *testing.T, tr *fakeTransport, cfg Config) *Plotter {
	t.Helper()
	p := testPlotter(tr, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return p
}

func TestDrawLinesEndToEnd(t *testing.T) {
	tr := newFakeTransport()
	p := connectReady(t, tr, Config{Paper: "A4", Orientation: hpgl.Landscape})
	defer p.Disconnect()

	if err := p.DrawLines([]hpgl.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}, hpgl.LinesOptions{Pattern: 99}); err != nil {
		t.Fatalf("DrawLines: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}

	var sawSolid bool
	for _, s := range tr.sentInstructions() {
		if s == "LT7;" {
			sawSolid = true
		}
	}
	if !sawSolid {
		t.Errorf("invalid pattern should fall back to LT7;, sent %q", tr.sentInstructions())
	}
}

func TestGetStatus(t *testing.T) {
	tr := newFakeTransport()
	tr.statusWord = 0x18
	p := connectReady(t, tr, Config{Paper: "A4"})
	defer p.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := p.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.Ready || !status.BufferEmpty {
		t.Errorf("status = %+v", status)
	}
}

// Abort discards queued work and tells the device to drop its buffer,
// without tearing the session down.
func TestAbort(t *testing.T) {
	tr := newFakeTransport()
	p := connectReady(t, tr, Config{Paper: "A4"})
	defer p.Disconnect()

	tr.mu.Lock()
	tr.freeSpace = 0 // hold transmission so commands stay queued
	tr.mu.Unlock()

	if err := p.SelectPen(1); err != nil {
		t.Fatal(err)
	}
	if err := p.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if p.QueueLen() != 0 {
		t.Errorf("queue holds %d commands after abort", p.QueueLen())
	}
	if !tr.wasAborted() {
		t.Error("device abort instruction not sent")
	}
	if p.State() != StateReady {
		t.Errorf("abort must not disconnect, state = %v", p.State())
	}

	// Session continues: new work is accepted.
	tr.mu.Lock()
	tr.freeSpace = 1024
	tr.mu.Unlock()
	if err := p.SelectPen(2); err != nil {
		t.Errorf("SelectPen after abort: %v", err)
	}
}

func TestDisconnect(t *testing.T) {
	tr := newFakeTransport()
	p := connectReady(t, tr, Config{Paper: "A4"})

	events := p.Subscribe()
	if err := p.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if p.State() != StateDisconnected {
		t.Errorf("state = %v", p.State())
	}
	if p.Profile() != nil {
		t.Error("profile should reset on disconnect")
	}

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == EventDisconnected {
				return
			}
		case <-deadline:
			t.Fatal("disconnected event never observed")
		}
	}
}

// Disconnect closes the session for good: a later Connect must refuse
// rather than hand back a session whose pump is stopped.
func TestConnectAfterDisconnect(t *testing.T) {
	tr := newFakeTransport()
	p := connectReady(t, tr, Config{Paper: "A4"})

	if err := p.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Connect(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Connect after Disconnect = %v, want ErrSessionClosed", err)
	}
}

func TestPlottableArea(t *testing.T) {
	tr := newFakeTransport()
	p := connectReady(t, tr, Config{Paper: "A4", Orientation: hpgl.Landscape, Unit: hpgl.Metric})
	defer p.Disconnect()

	w, h, err := p.PlottableArea()
	if err != nil {
		t.Fatalf("PlottableArea: %v", err)
	}
	// A4 landscape at 40 units/mm: (11880-860)/400 cm by (8400-160)/400 cm.
	if w < 27.5 || w > 27.6 {
		t.Errorf("width = %v", w)
	}
	if h < 20.5 || h > 20.7 {
		t.Errorf("height = %v", h)
	}
}
