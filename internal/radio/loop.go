package radio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebovdev/bcradio-cli/internal/player"
	"github.com/rs/zerolog/log"
)

// Run drives playback until the quit command, a fatal error or ctx ends.
// After a quit it waits for the playing track to finish.
func (e *Engine) Run(ctx context.Context) error {
	defer e.CancelBuffering()
	defer e.pc.Commands.Close()

	e.sink.SetVolume(player.VolumeGain(e.Volume()))

	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	for {
		err := e.step(ctx)
		if errors.Is(err, ErrQuit) {
			break
		}
		if err != nil {
			e.setState(StateStopped)
			return err
		}

		select {
		case <-ctx.Done():
			e.setState(StateStopped)
			return ctx.Err()
		case <-ticker.C:
		}
	}

	e.setState(StateStopped)
	log.Debug().Msg("Playback loop finished, waiting for the current track")
	return e.waitForTrackEnd(ctx)
}

// step runs one iteration: refill, trigger buffering, promote and play,
// then dispatch at most one command.
func (e *Engine) step(ctx context.Context) error {
	select {
	case err := <-e.fatal:
		return err
	default:
	}

	if e.sink.Empty() {
		e.setState(StateFilling)
		if err := e.Fill(ctx); err != nil {
			return err
		}
	}

	e.TriggerBuffer(ctx)

	if err := e.play(); err != nil {
		return err
	}
	e.updateState()

	if c, ok := e.pc.Commands.TryRecv(); ok {
		log.Debug().Str("command", string(c)).Int("pending", e.pc.Commands.Len()).Msg("Dispatching command")
		return e.dispatch(ctx, c)
	}
	return nil
}

func (e *Engine) updateState() {
	switch {
	case !e.sink.Empty():
		e.setState(StatePlaying)
	case e.store.Len() > 0:
		e.setState(StateBuffering)
	default:
		e.setState(StateIdle)
	}
}

// play promotes a buffered head onto an idle sink. A track that fails to
// decode is skipped.
func (e *Engine) play() error {
	if !e.sink.Empty() || !e.store.HeadBuffered() {
		return nil
	}

	head := e.store.PromoteHead()
	e.display.NowPlaying(e.store.Current())

	src, err := e.decoder.Decode(head.Buffer)
	if err != nil {
		log.Warn().Err(err).Str("url", head.URL).Msg("Skipping track that failed to decode")
		return nil
	}

	if err := e.sink.Append(src); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	e.pc.SetTicking(true)

	log.Info().Str("title", head.Title).Str("artist", head.Artist).Msg("Now playing")
	return nil
}

func (e *Engine) dispatch(ctx context.Context, c rune) error {
	switch c {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		v := int(c - '0')
		e.volume.Store(int32(v))
		e.sink.SetVolume(player.VolumeGain(v))
	case 'n':
		e.sink.Stop()
	case 'p':
		if e.sink.Paused() {
			e.sink.Resume()
		} else {
			e.sink.Pause()
		}
		e.pc.SetTicking(!e.sink.Paused())
	case 'i':
		return e.dialog(func() error { return e.info(ctx) })
	case 'm':
		return e.dialog(func() error { return e.menu(ctx) })
	case 'l':
		if err := e.Fill(ctx); err != nil {
			return err
		}
		return e.dialog(func() error { return e.playlist() })
	case 'f':
		return e.dialog(func() error { return e.favoriteSearch(ctx) })
	case 's':
		return e.dialog(func() error { return e.freeWordSearch(ctx) })
	case 'h':
		return e.dialog(func() error { return e.help() })
	case 'Q':
		return ErrQuit
	default:
		log.Debug().Msgf("Ignoring command %q", c)
	}
	return nil
}

// inDialog runs fn with the terminal handed over and the status area hidden.
func (e *Engine) inDialog(fn func() error) error {
	e.display.Hide()
	defer e.display.Show()
	return e.pc.WithInput(fn)
}

// showError reports err from outside a dialog.
func (e *Engine) showError(err error) {
	_ = e.inDialog(func() error {
		e.prompter.Error(err)
		return nil
	})
}

// dialog is inDialog for the command dialogs: a cancelled dialog or a failed
// fetch returns to playback.
func (e *Engine) dialog(fn func() error) error {
	err := e.inDialog(fn)
	var fe *fetchError
	if errors.Is(err, ErrCancelled) || errors.As(err, &fe) {
		return nil
	}
	return err
}

// waitForTrackEnd polls until the sink has nothing left to play.
func (e *Engine) waitForTrackEnd(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.QuitPoll)
	defer ticker.Stop()

	for {
		if e.sink.Empty() || e.sink.Paused() || e.sink.Remaining() <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
