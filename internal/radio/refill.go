package radio

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebovdev/bcradio-cli/internal/track"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Fill tops the queue up when it is below the low-water mark. Album pages
// left over from a search come first, then with a saved cursor the next
// discover page is appended. Without one, an empty queue prompts for
// a new genre and is replaced by its first page. A queue that still holds
// tracks drains first.
func (e *Engine) Fill(ctx context.Context) error {
	if e.store.Len() >= e.opts.LowWaterMark {
		return nil
	}

	if e.expandPending(ctx) {
		return nil
	}

	pd := e.store.PostData()
	if pd.HasCursor() {
		e.nextPage(ctx, pd)
		return nil
	}

	if e.store.Len() > 0 {
		return nil
	}

	e.display.Clear()
	return e.askAndReplace(ctx)
}

func (e *Engine) nextPage(ctx context.Context, pd track.PostData) {
	tracks, next, err := e.catalog.Discover(ctx, pd)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("Failed to fetch next page")
		e.showError(fmt.Errorf("failed to fetch tracks: %w", err))
		if e.store.Len() == 0 {
			// Nothing left to play from this context: ask for a new one.
			e.store.SetPostData(pd.WithCursor(nil))
		}
		return
	}

	e.store.Append(tracks)
	e.store.SetPostData(pd.WithCursor(next))
	log.Debug().
		Int("added", len(tracks)).
		Int("queued", e.store.Len()).
		Int("buffered", e.store.BufferedCount()).
		Bool("exhausted", next == nil).
		Msg("Queue refilled")
}

// askAndReplace prompts for a genre until a first page loads. A cancelled
// prompt or a failed fetch re-prompts; an interrupt is returned.
func (e *Engine) askAndReplace(ctx context.Context) error {
	for {
		err := e.inDialog(func() error { return e.changeGenre(ctx) })
		if errors.Is(err, ErrCancelled) {
			continue
		}
		var fe *fetchError
		if errors.As(err, &fe) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		return err
	}
}

// fetchError marks a catalog failure that was already shown to the user.
type fetchError struct {
	err error
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

// changeGenre asks for a genre and subgenre, then replaces the queue with
// the first page of that context. The caller owns the terminal.
func (e *Engine) changeGenre(ctx context.Context) error {
	genre, subgenre, err := e.askGenre(ctx)
	if err != nil {
		return err
	}

	pd := track.NewPostData(genre.Slug, subgenre.Slug)
	tracks, next, err := e.catalog.Discover(ctx, pd)
	if err != nil {
		log.Warn().Err(err).Str("genre", genre.Slug).Str("subgenre", subgenre.Slug).Msg("Failed to fetch genre")
		e.prompter.Error(fmt.Errorf("failed to fetch %s: %w", genre.Label, err))
		return &fetchError{err: err}
	}

	e.store.Replace(tracks)
	e.CancelBuffering()
	e.store.SetGenre(genre.Slug)
	e.store.SetSubgenre(subgenre.Slug)
	e.store.SetPostData(pd.WithCursor(next))

	log.Info().Str("genre", genre.Slug).Str("subgenre", subgenre.Slug).Int("tracks", len(tracks)).Msg("Browsing context changed")
	return nil
}

func (e *Engine) loadGenres(ctx context.Context) ([]track.Element, []track.Element, error) {
	genres, subgenres := e.store.Genres()
	if len(genres) > 0 {
		return genres, subgenres, nil
	}

	genres, subgenres, err := e.catalog.Genres(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load genres: %w", err)
	}
	e.store.SetGenres(genres, subgenres)
	return genres, subgenres, nil
}

// askGenre runs the genre and subgenre selection. The zero subgenre means
// the whole genre.
func (e *Engine) askGenre(ctx context.Context) (track.Element, track.Element, error) {
	genres, subgenres, err := e.loadGenres(ctx)
	if err != nil {
		return track.Element{}, track.Element{}, err
	}

	i, err := e.prompter.Select("genre?", labels(genres))
	if err != nil {
		return track.Element{}, track.Element{}, err
	}
	genre := genres[i]

	subs := track.SubgenresOf(subgenres, genre)
	if len(subs) == 0 {
		return genre, track.Element{}, nil
	}

	options := append([]string{"all " + genre.Label}, labels(subs)...)
	j, err := e.prompter.Select("subgenre?", options)
	if err != nil {
		return track.Element{}, track.Element{}, err
	}
	if j == 0 {
		return genre, track.Element{}, nil
	}
	return genre, subs[j-1], nil
}

func labels(elements []track.Element) []string {
	return lo.Map(elements, func(e track.Element, _ int) string {
		return e.Label
	})
}
