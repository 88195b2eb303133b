package radio

import (
	"context"
	"sync"
	"sync/atomic"
)

// CommandQueue is an unbounded multi-producer queue of single-character
// commands. Send never blocks.
type CommandQueue struct {
	mu     sync.Mutex
	items  []rune
	closed bool
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Send enqueues c. It reports false once the queue is closed.
func (q *CommandQueue) Send(c rune) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, c)
	return true
}

// TryRecv dequeues the oldest command without blocking.
func (q *CommandQueue) TryRecv() (rune, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return 0, false
	}
	c := q.items[0]
	q.items = q.items[1:]
	return c, true
}

func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting commands. Queued commands can still be received.
func (q *CommandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// PlaybackContext holds the coordination flags shared by the playback loop,
// the buffering task, the keyboard reader and the status display.
type PlaybackContext struct {
	Commands *CommandQueue

	// park is true while the keyboard reader owns the terminal.
	park atomic.Bool
	// bufferFree is true when no buffering task holds the slot.
	bufferFree atomic.Bool
	// ticking enables the progress line.
	ticking atomic.Bool

	abortMu sync.Mutex
	abort   context.CancelFunc
}

func NewPlaybackContext() *PlaybackContext {
	pc := &PlaybackContext{Commands: NewCommandQueue()}
	pc.park.Store(true)
	pc.bufferFree.Store(true)
	pc.ticking.Store(true)
	return pc
}

// Parked reports whether the keyboard reader may read the terminal.
func (pc *PlaybackContext) Parked() bool {
	return pc.park.Load()
}

// Unpark hands the terminal to a dialog. The keyboard reader stops reading
// until the dialog finishes.
func (pc *PlaybackContext) Unpark() {
	pc.park.Store(false)
}

// WithInput runs fn while the terminal belongs to fn. The park flag is
// restored on every exit path, including panics.
func (pc *PlaybackContext) WithInput(fn func() error) error {
	pc.park.Store(false)
	defer pc.park.Store(true)
	return fn()
}

func (pc *PlaybackContext) Ticking() bool {
	return pc.ticking.Load()
}

func (pc *PlaybackContext) SetTicking(on bool) {
	pc.ticking.Store(on)
}

// BufferFree reports whether the buffering slot is free.
func (pc *PlaybackContext) BufferFree() bool {
	return pc.bufferFree.Load()
}

func (pc *PlaybackContext) claimBuffer() bool {
	return pc.bufferFree.CompareAndSwap(true, false)
}

func (pc *PlaybackContext) releaseBuffer() {
	pc.bufferFree.Store(true)
}

// replaceAbort cancels the stored task, if any, and stores cancel in its place.
func (pc *PlaybackContext) replaceAbort(cancel context.CancelFunc) {
	pc.abortMu.Lock()
	defer pc.abortMu.Unlock()
	if pc.abort != nil {
		pc.abort()
	}
	pc.abort = cancel
}

// Abort cancels the stored task and empties the slot.
func (pc *PlaybackContext) Abort() {
	pc.replaceAbort(nil)
}
