package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebovdev/bcradio-cli/internal/radio"
	"github.com/rs/zerolog/log"
)

const (
	ctrlC = 0x03

	KeyPollInterval = 100 * time.Millisecond
	// KeyIdleInterval is how long the reader sleeps while a dialog owns the terminal.
	KeyIdleInterval = 50 * time.Millisecond
)

// dialogKeys open a dialog. The reader hands the terminal over before
// forwarding them so it does not race the dialog for input.
const dialogKeys = "imlfsh"

// KeyReader forwards single keystrokes to the playback command queue while
// the playback context is parked.
type KeyReader struct {
	term        Terminal
	pc          *radio.PlaybackContext
	onInterrupt func()
	idle        time.Duration
}

func NewKeyReader(t Terminal, pc *radio.PlaybackContext, onInterrupt func()) *KeyReader {
	return &KeyReader{
		term:        t,
		pc:          pc,
		onInterrupt: onInterrupt,
		idle:        KeyIdleInterval,
	}
}

// Run reads keys until Q, Ctrl-C, a read error, ctx ends or the playback
// loop closes the command queue. The terminal
// stays in raw mode for the whole run.
func (r *KeyReader) Run(ctx context.Context) error {
	if err := r.term.MakeRaw(); err != nil {
		return err
	}
	defer func() {
		if err := r.term.Restore(); err != nil {
			log.Error().Err(err).Msg("Failed to restore terminal")
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if !r.pc.Parked() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.idle):
			}
			continue
		}

		b, ok, err := r.term.ReadKey(KeyPollInterval)
		if err != nil {
			return fmt.Errorf("failed to read keyboard: %w", err)
		}
		if !ok {
			continue
		}
		if !r.pc.Parked() {
			// A dialog took the terminal while we were polling.
			log.Debug().Msgf("Dropping key 0x%02x read during a dialog", b)
			continue
		}
		if r.handle(b) {
			return nil
		}
	}
}

// handle forwards one key and reports whether the reader is done.
func (r *KeyReader) handle(b byte) bool {
	switch {
	case b == ctrlC:
		log.Debug().Msg("Interrupted from keyboard")
		if r.onInterrupt != nil {
			r.onInterrupt()
		}
		return true
	case b == 'Q':
		r.pc.Commands.Send('Q')
		return true
	case strings.IndexByte(dialogKeys, b) >= 0:
		r.pc.Unpark()
		return r.send(b)
	case b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return r.send(b)
	default:
		log.Debug().Msgf("Ignoring key 0x%02x", b)
	}
	return false
}

// send forwards b and reports whether the playback loop has stopped
// listening.
func (r *KeyReader) send(b byte) bool {
	if r.pc.Commands.Send(rune(b)) {
		return false
	}
	log.Debug().Msg("Playback loop closed the command queue")
	return true
}
