// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package plotter

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	retry "github.com/avast/retry-go"
	"go.uber.org/zap"

	"github.com/djipco/hpgl/pkg/hpgl"
)

// Flow control timing. The drain interval doubles as the fixed delay
// between buffer-space poll retries.
const (
	defaultDrainInterval   = 100 * time.Millisecond
	defaultResponseTimeout = 1 * time.Second
	defaultPollRetries     = 5
)

// QueuedCommand is one encoded instruction awaiting transmission. It
// is owned exclusively by the queue from enqueue until it is sent (or
// until its response, if any, has been delivered).
type QueuedCommand struct {
	text string     // encoded wire text, terminator excluded
	term hpgl.Terminator

	// done is invoked once the command's outcome is known: after
	// transmission for fire-and-forget commands, after the device
	// response for response-awaiting ones.
	done func(response string, err error)

	// awaitsResponse marks commands the device answers with a
	// CR-terminated data response.
	awaitsResponse bool
}

// wire returns the bytes transmitted for this command.
func (c *QueuedCommand) wire() []byte {
	if c.term == hpgl.TermNone {
		return []byte(c.text)
	}
	return append([]byte(c.text), byte(c.term))
}

// flowController owns the FIFO command queue and paces transmission
// against the device's live buffer-space feedback. It is a single
// logical actor: one pump goroutine performs all draining, and it is
// the sole consumer of the response channel, which is what enforces
// the at-most-one-outstanding-response invariant on the unmultiplexed
// serial channel.
type flowController struct {
	log *zap.Logger
	tr  Transport

	drainInterval   time.Duration
	responseTimeout time.Duration
	pollRetries     uint

	mu       sync.Mutex
	queue    []*QueuedCommand
	gen      uint64 // bumped by every queue clear; guards in-flight drains
	capacity int    // device buffer capacity; 0 while unresolved (bootstrap)

	responses chan string
	wake      chan struct{}
	stop      chan struct{}
	wg        sync.WaitGroup

	// onFault receives transport-level faults that halt the pump.
	onFault func(error)
}

func newFlowController(tr Transport, log *zap.Logger) *flowController {
	return &flowController{
		log:             log,
		tr:              tr,
		drainInterval:   defaultDrainInterval,
		responseTimeout: defaultResponseTimeout,
		pollRetries:     defaultPollRetries,
		responses:       make(chan string, 4),
		wake:            make(chan struct{}, 1),
		stop:            make(chan struct{}),
	}
}

// start launches the pump goroutine.
func (fc *flowController) start() {
	fc.wg.Add(1)
	go fc.pump()
}

// shutdown stops the pump and fails any queued commands.
func (fc *flowController) shutdown() {
	close(fc.stop)
	fc.wg.Wait()

	fc.mu.Lock()
	pending := fc.queue
	fc.queue = nil
	fc.mu.Unlock()
	failCommands(pending, ErrSessionClosed)
}

// setCapacity records the resolved device buffer capacity. Until it is
// set, length validation is bypassed so the fixed bootstrap queries
// can flow before the profile is known.
func (fc *flowController) setCapacity(n int) {
	fc.mu.Lock()
	fc.capacity = n
	fc.mu.Unlock()
}

// Len reports the number of queued commands.
func (fc *flowController) Len() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.queue)
}

// Enqueue validates and appends instructions to the queue tail. The
// text may hold several concatenated instructions; it is split on the
// instruction terminators and only the last resulting command carries
// the caller's completion and awaitsResponse flag, so a batch's
// callback fires once the whole batch has flushed.
//
// An instruction longer than the device buffer capacity can never be
// transmitted: the whole queue is cleared and the error returned.
func (fc *flowController) Enqueue(text string, done func(string, error), awaitsResponse bool) error {
	cmds := splitInstructions(text)
	if len(cmds) == 0 {
		if done != nil {
			done("", nil)
		}
		return nil
	}

	fc.mu.Lock()
	if fc.capacity > 0 {
		for _, cmd := range cmds {
			if n := len(cmd.wire()); n > fc.capacity {
				capacity := fc.capacity
				dropped := fc.queue
				fc.queue = nil
				fc.gen++
				fc.mu.Unlock()
				failCommands(dropped, ErrQueueCleared)
				return &InstructionTooLongError{Length: n, Capacity: capacity}
			}
		}
	}
	last := cmds[len(cmds)-1]
	last.done = done
	last.awaitsResponse = awaitsResponse
	fc.queue = append(fc.queue, cmds...)
	fc.mu.Unlock()

	fc.kick()
	return nil
}

// Clear discards all queued-but-unsent commands. Their completion
// callbacks fire with ErrQueueCleared so no waiter blocks forever.
// Bumping the generation invalidates any drain cycle that peeked the
// old head before the clear landed.
func (fc *flowController) Clear() {
	fc.mu.Lock()
	dropped := fc.queue
	fc.queue = nil
	fc.gen++
	fc.mu.Unlock()
	failCommands(dropped, ErrQueueCleared)
}

func failCommands(cmds []*QueuedCommand, err error) {
	for _, cmd := range cmds {
		if cmd.done != nil {
			cmd.done("", err)
		}
	}
}

// kick arms the drain cycle if it is idle.
func (fc *flowController) kick() {
	select {
	case fc.wake <- struct{}{}:
	default:
	}
}

// deliver hands a decoded device response to the pump. Responses that
// arrive while nothing awaits one are stale replies from a timed-out
// query; they are dropped here rather than corrupting a later
// correlation.
func (fc *flowController) deliver(resp string) {
	select {
	case fc.responses <- resp:
	default:
		fc.log.Warn("dropping unsolicited device response", zap.String("response", resp))
	}
}

// flushResponses discards buffered stale responses before a new query.
func (fc *flowController) flushResponses() {
	for {
		select {
		case resp := <-fc.responses:
			fc.log.Debug("flushed stale response", zap.String("response", resp))
		default:
			return
		}
	}
}

// awaitResponse blocks until the next logical device response.
func (fc *flowController) awaitResponse(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-fc.responses:
		return resp, nil
	case <-timer.C:
		return "", ErrResponseTimeout
	case <-fc.stop:
		return "", ErrSessionClosed
	}
}

// pump is the scheduler loop. It is armed by enqueues and re-armed by
// each drain cycle's own verdict: more work pending resets the timer,
// idle leaves it disarmed. This keeps exactly one drain active at a
// time with no re-entrant timers.
func (fc *flowController) pump() {
	defer fc.wg.Done()

	var timerC <-chan time.Time
	for {
		select {
		case <-fc.stop:
			return
		case <-fc.wake:
		case <-timerC:
		}

		if fc.drainOne() {
			timerC = time.After(fc.drainInterval)
		} else {
			timerC = nil
		}
	}
}

// drainOne performs one drain cycle: poll the device's free buffer
// space, and transmit the head command only if it fits. The pump holds
// no lock while the poll blocks, so a Clear may land mid-cycle; the
// conditional pop detects that and skips the stale head instead of
// transmitting a discarded command. Returns true when another cycle
// should be scheduled.
func (fc *flowController) drainOne() bool {
	head, gen := fc.peek()
	if head == nil {
		return false
	}

	free, err := fc.queryBufferSpace()
	if err != nil {
		fc.log.Warn("buffer space query exhausted retries", zap.Error(err))
		fc.fault(&TransportError{Op: "poll", Err: err})
		return false
	}

	wire := head.wire()
	if len(wire) > free {
		// Backpressure: leave the head queued and retry later.
		fc.log.Debug("device buffer full",
			zap.Int("instruction", len(wire)),
			zap.Int("free", free))
		return true
	}

	if !fc.popIf(head, gen) {
		// Queue was cleared during the poll; the head's completion has
		// already fired with ErrQueueCleared.
		return fc.Len() > 0
	}
	if _, err := fc.tr.Write(wire); err != nil {
		if head.done != nil {
			head.done("", err)
		}
		fc.fault(&TransportError{Op: "write", Err: err})
		return false
	}

	if head.awaitsResponse {
		resp, err := fc.awaitResponse(fc.responseTimeout)
		if head.done != nil {
			head.done(resp, err)
		}
	} else if head.done != nil {
		head.done("", nil)
	}

	return fc.Len() > 0
}

// queryBufferSpace asks the device how many input-buffer bytes are
// free. The query is a reserved RS-232-C escape sequence sent directly
// to the transport, out-of-band from the FIFO: it must stay answerable
// even while the queue holds commands for a not-yet-proven device. A
// dropped reply is retried a bounded number of times at the drain
// interval before being treated as a transport fault.
func (fc *flowController) queryBufferSpace() (int, error) {
	var free int
	err := retry.Do(
		func() error {
			fc.flushResponses()
			if _, err := fc.tr.Write([]byte(hpgl.EscBufferSpace)); err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := fc.awaitResponse(fc.responseTimeout)
			if err != nil {
				fc.log.Warn("no reply to buffer space query, retrying")
				return err
			}
			n, err := strconv.Atoi(strings.TrimSpace(resp))
			if err != nil {
				return fmt.Errorf("malformed buffer space reply %q: %v", resp, err)
			}
			free = n
			return nil
		},
		retry.Attempts(fc.pollRetries),
		retry.Delay(fc.drainInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return 0, err
	}
	return free, nil
}

func (fc *flowController) peek() (*QueuedCommand, uint64) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.queue) == 0 {
		return nil, fc.gen
	}
	return fc.queue[0], fc.gen
}

// popIf removes the head only if it is still the command peeked at the
// given generation. A false return means a clear intervened.
func (fc *flowController) popIf(head *QueuedCommand, gen uint64) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.gen != gen || len(fc.queue) == 0 || fc.queue[0] != head {
		return false
	}
	fc.queue = fc.queue[1:]
	return true
}

func (fc *flowController) fault(err error) {
	if fc.onFault != nil {
		fc.onFault(err)
	}
}

// splitInstructions splits caller text on the instruction terminators
// (semicolon, newline, ETX) so callers may submit several concatenated
// instructions in one call. A label body (LB up to its ETX) is opaque:
// terminators inside it are text to draw, not instruction breaks.
// Segments cut at an ETX keep the label terminator, escape sequences
// keep none, everything else is re-terminated with ';'.
func splitInstructions(text string) []*QueuedCommand {
	var cmds []*QueuedCommand
	flush := func(seg string, term hpgl.Terminator) {
		if seg == "" {
			return
		}
		if seg[0] == hpgl.ESC && term == hpgl.TermInstruction {
			term = hpgl.TermNone
		}
		cmds = append(cmds, &QueuedCommand{text: seg, term: term})
	}

	start := 0
	for i := 0; i < len(text); i++ {
		if i == start && strings.HasPrefix(text[i:], hpgl.InstrLabel) {
			end := strings.IndexByte(text[i:], hpgl.ETX)
			if end < 0 {
				flush(text[i:], hpgl.TermLabel)
				return cmds
			}
			flush(text[i:i+end], hpgl.TermLabel)
			start = i + end + 1
			i = start - 1
			continue
		}
		switch text[i] {
		case ';', '\n':
			flush(text[start:i], hpgl.TermInstruction)
			start = i + 1
		case hpgl.ETX:
			flush(text[start:i], hpgl.TermLabel)
			start = i + 1
		}
	}
	flush(text[start:], hpgl.TermInstruction)
	return cmds
}
