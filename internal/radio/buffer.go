package radio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// TriggerBuffer starts fetching the queue head in the background when the
// head is unbuffered and no other fetch is running. It never blocks.
func (e *Engine) TriggerBuffer(ctx context.Context) {
	if e.store.Len() == 0 || e.store.HeadBuffered() {
		return
	}
	if !e.pc.claimBuffer() {
		return
	}

	url := e.store.URL(0)
	taskCtx, cancel := context.WithCancel(ctx)
	e.pc.replaceAbort(cancel)

	go e.bufferHead(taskCtx, url)
}

func (e *Engine) bufferHead(ctx context.Context, url string) {
	defer e.pc.releaseBuffer()

	e.display.Spinner(true)
	defer e.display.Spinner(false)

	log.Debug().Str("url", url).Msg("Buffering track")

	buf, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug().Str("url", url).Msg("Buffering aborted")
			return
		}
		e.fail(fmt.Errorf("failed to buffer %s: %w", url, err))
		return
	}

	duration, err := e.decoder.ProbeDuration(buf)
	if err != nil {
		e.fail(fmt.Errorf("failed to read duration of %s: %w", url, err))
		return
	}

	if ctx.Err() != nil {
		log.Debug().Str("url", url).Msg("Buffering aborted")
		return
	}

	if e.store.SetBuffer(url, buf, duration) {
		log.Debug().Str("url", url).Int("bytes", len(buf)).Dur("duration", duration).Msg("Track buffered")
	}
}

// CancelBuffering aborts the running fetch, if any. The slot is released by
// the task itself once it unwinds.
func (e *Engine) CancelBuffering() {
	e.pc.Abort()
}
