package plotter

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/djipco/hpgl/pkg/hpgl"
)

// fakeTransport scripts a device on the other end of the wire: it
// answers the RS-232-C queries and records every transmitted
// instruction.
type fakeTransport struct {
	mu sync.Mutex

	// Scripted device behaviour.
	model        string
	bufferSize   int
	freeSpace    int
	linkError    int
	statusWord   int
	dropPolls    int           // number of buffer-space queries to leave unanswered
	pollDelay    time.Duration // answer buffer-space queries this late
	muteModel    bool          // ignore the OI query (device not ready)
	muteCapacity bool          // ignore the ESC.L query

	// Recorded traffic.
	sent    []string // non-query writes, in order
	aborted bool

	data chan []byte
	errs chan error

	writeErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		model:      "7475A",
		bufferSize: 1024,
		freeSpace:  1024,
		data:       make(chan []byte, 64),
		errs:       make(chan error, 4),
	}
}

func (f *fakeTransport) Open() error { return nil }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data != nil {
		close(f.data)
		f.data = nil
	}
	return nil
}

func (f *fakeTransport) Data() <-chan []byte { return f.data }
func (f *fakeTransport) Errors() <-chan error { return f.errs }

func (f *fakeTransport) reply(s string) {
	f.data <- append([]byte(s), hpgl.CR)
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}

	text := string(p)
	switch {
	case text == hpgl.EscBufferSpace:
		if f.dropPolls > 0 {
			f.dropPolls--
			return len(p), nil
		}
		if f.pollDelay > 0 {
			free, delay := f.freeSpace, f.pollDelay
			go func() {
				time.Sleep(delay)
				f.mu.Lock()
				defer f.mu.Unlock()
				if f.data != nil {
					f.reply(strconv.Itoa(free))
				}
			}()
			return len(p), nil
		}
		f.reply(strconv.Itoa(f.freeSpace))
	case text == hpgl.EscLinkError:
		f.reply(strconv.Itoa(f.linkError))
	case text == hpgl.EscBufferSize:
		if !f.muteCapacity {
			f.reply(strconv.Itoa(f.bufferSize))
		}
	case text == hpgl.EscIdentify:
		f.reply(f.model)
	case text == hpgl.EscStatus:
		f.reply(strconv.Itoa(f.statusWord))
	case text == hpgl.EscAbortDevice, text == hpgl.EscAbortGraphics:
		f.aborted = true
	case strings.HasPrefix(text, hpgl.InstrOutputIdent):
		f.sent = append(f.sent, text)
		if !f.muteModel {
			f.reply(f.model)
		}
	case strings.HasPrefix(text, hpgl.InstrOutputFactors):
		f.sent = append(f.sent, text)
		f.reply("40,40")
	default:
		f.sent = append(f.sent, text)
	}
	return len(p), nil
}

func (f *fakeTransport) sentInstructions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTransport) wasAborted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted
}
