package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal is the keyboard device read by KeyReader.
type Terminal interface {
	MakeRaw() error
	Restore() error
	// ReadKey waits up to timeout for one byte of input. ok is false when
	// nothing arrived.
	ReadKey(timeout time.Duration) (b byte, ok bool, err error)
}

// TTY reads single keys from a terminal file descriptor.
type TTY struct {
	fd int

	mu    sync.Mutex
	state *term.State
}

func NewTTY(f *os.File) *TTY {
	return &TTY{fd: int(f.Fd())}
}

func (t *TTY) IsTerminal() bool {
	return term.IsTerminal(t.fd)
}

func (t *TTY) MakeRaw() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != nil {
		return nil
	}
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	t.state = state
	return nil
}

// Restore puts the terminal back the way MakeRaw found it. It is safe to
// call more than once.
func (t *TTY) Restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		return nil
	}
	err := term.Restore(t.fd, t.state)
	t.state = nil
	return err
}

func (t *TTY) ReadKey(timeout time.Duration) (byte, bool, error) {
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
		return 0, false, nil
	}

	var buf [1]byte
	m, err := unix.Read(t.fd, buf[:])
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if m == 0 {
		return 0, false, io.EOF
	}
	return buf[0], true, nil
}
