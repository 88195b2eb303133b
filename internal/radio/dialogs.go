package radio

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/glebovdev/bcradio-cli/internal/track"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"
)

const (
	// PlaylistRows is how many queued tracks the playlist dialog lists.
	PlaylistRows = 12
	// SearchPages is how many album pages one search expands.
	SearchPages = 9

	titleWidth  = 30
	artistWidth = 30
)

const HelpText = `A command line music player for https://bandcamp.com

[Key]                [Description]
 0-9                  adjust volume
 h                    help
 i                    play info
 s                    free word search
 f                    favorite search
 n                    play next
 m                    menu
 l                    playlist (up:k, down:j, select:enter key)
 p                    play/pause
 Q                    graceful kill
 Ctrl+C               exit`

var menuItems = []string{
	"Change genre",
	"Free word search",
	"Favorite search",
	"Playlist",
	"Help",
}

func (e *Engine) info(ctx context.Context) error {
	cur := e.store.Current()
	if cur.IsZero() {
		e.prompter.Message("nothing is playing yet")
		return nil
	}

	var img image.Image
	if cur.ArtID != 0 {
		var err error
		img, err = e.catalog.Artwork(ctx, cur.ArtID)
		if err != nil {
			log.Debug().Err(err).Int64("art_id", cur.ArtID).Msg("Artwork unavailable")
			img = nil
		}
	}

	return e.prompter.Show("info", e.trackInfo(cur), img)
}

func infoLine(label, value string) string {
	return fmt.Sprintf(" %14s %s", label, value)
}

func (e *Engine) trackInfo(cur track.CurrentTrack) []string {
	lines := []string{
		"",
		infoLine("Artist:", cur.Artist),
		infoLine("Album:", cur.Album),
		infoLine("Song:", cur.Title),
		infoLine("Duration:", track.FormatDuration(cur.Duration)),
	}

	switch {
	case cur.Result.Discover != nil:
		d := cur.Result.Discover
		genres, _ := e.store.Genres()
		category := ""
		for _, g := range genres {
			if g.ID == d.BandGenreID {
				category = g.Label
				break
			}
		}
		lines = append(lines,
			infoLine("Category:", category),
			infoLine("Genre:", cur.Genre),
			infoLine("Subgenre:", cur.Subgenre),
			infoLine("Item Price:", fmt.Sprintf("%s %3.2f", d.ItemCurrency, d.ItemPrice)),
			infoLine("Labels:", d.LabelName),
			infoLine("Location:", d.BandLocation),
			infoLine("Release Date:", d.ReleaseDate),
			infoLine("Label URL:", d.LabelURL),
			infoLine("Band URL:", d.BandURL),
			infoLine("Item URL:", d.ItemURL),
		)
	case cur.Result.Search != nil:
		s := cur.Result.Search
		lines = append(lines,
			infoLine("Release Date:", s.ReleaseDate),
			infoLine("Album URL:", s.AlbumURL),
			infoLine("Item URL:", s.ItemURL),
		)
	}
	return lines
}

func (e *Engine) menu(ctx context.Context) error {
	i, err := e.prompter.Select("menu", menuItems)
	if err != nil {
		return err
	}

	switch menuItems[i] {
	case "Change genre":
		if err := e.changeGenre(ctx); err != nil {
			return err
		}
		e.sink.Stop()
		return nil
	case "Free word search":
		return e.freeWordSearch(ctx)
	case "Favorite search":
		return e.favoriteSearch(ctx)
	case "Playlist":
		return e.playlist()
	case "Help":
		return e.help()
	}
	return nil
}

func playlistRow(n, title, duration, artist, album string) string {
	return fmt.Sprintf("%s %s %s %s %s",
		runewidth.FillLeft(n, 2),
		runewidth.FillRight(runewidth.Truncate(title, titleWidth, "…"), titleWidth),
		runewidth.FillLeft(duration, 7),
		runewidth.FillRight(runewidth.Truncate(artist, artistWidth, "…"), artistWidth),
		album,
	)
}

// playlist lists the next queued tracks. Choosing the k-th entry drops the
// entries queued before it.
func (e *Engine) playlist() error {
	tracks := e.store.Tracks()
	if len(tracks) > PlaylistRows {
		tracks = tracks[:PlaylistRows]
	}
	if len(tracks) == 0 {
		e.prompter.Message("the playlist is empty")
		return nil
	}

	rows := make([]string, len(tracks))
	for i, t := range tracks {
		rows[i] = playlistRow(strconv.Itoa(i+1), t.Title, track.FormatDuration(t.Duration), t.Artist, t.Album)
	}

	k, err := e.prompter.Select(playlistRow("#", "Track", "Time", "Artist", "Album"), rows)
	if err != nil {
		return err
	}
	if k > 0 {
		e.store.Drop(k)
		e.CancelBuffering()
		log.Debug().Int("dropped", k).Msg("Skipped ahead in playlist")
	}
	return nil
}

func (e *Engine) freeWordSearch(ctx context.Context) error {
	query, err := e.prompter.Input("free word search")
	if err != nil {
		return err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	return e.search(ctx, query, 0)
}

// favoriteSearch looks for more releases of the playing artist.
func (e *Engine) favoriteSearch(ctx context.Context) error {
	cur := e.store.Current()
	if cur.IsZero() || cur.Artist == "" {
		e.prompter.Message("nothing is playing yet")
		return nil
	}
	return e.search(ctx, cur.Artist, cur.BandID)
}

// search expands the first album pages matching query and queues their
// tracks ahead of the queue, best match first. A non-zero bandID keeps only
// that band's tracks. Remaining pages of a free word search are expanded
// later by Fill.
func (e *Engine) search(ctx context.Context, query string, bandID int64) error {
	e.display.Spinner(true)
	defer e.display.Spinner(false)

	urls, err := e.catalog.SearchURLs(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Search failed")
		e.prompter.Error(fmt.Errorf("search failed: %w", err))
		return &fetchError{err: err}
	}

	e.store.SetSelectURLs(urls)
	batch := e.store.TakeSelectURLs(SearchPages)
	if bandID != 0 {
		e.store.SetSelectURLs(nil)
	}

	tracks, err := e.catalog.AlbumTracks(ctx, batch, query, bandID)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Search failed")
		e.prompter.Error(fmt.Errorf("search failed: %w", err))
		return &fetchError{err: err}
	}
	if len(tracks) == 0 {
		e.prompter.Message(fmt.Sprintf("no results for %q", query))
		return nil
	}

	for i := len(tracks) - 1; i >= 0; i-- {
		e.store.PushFront(tracks[i])
	}
	e.CancelBuffering()

	log.Info().Str("query", query).Int("tracks", len(tracks)).Msg("Search results queued")
	return nil
}

// expandPending appends the tracks of album pages left over from a search.
func (e *Engine) expandPending(ctx context.Context) bool {
	urls := e.store.TakeSelectURLs(SearchPages)
	if len(urls) == 0 {
		return false
	}

	tracks, err := e.catalog.AlbumTracks(ctx, urls, "", 0)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to expand search results")
		return false
	}
	e.store.Append(tracks)
	log.Debug().Int("pages", len(urls)).Int("added", len(tracks)).Msg("Expanded search results")
	return len(tracks) > 0
}

func (e *Engine) help() error {
	return e.prompter.Show("help", strings.Split(HelpText, "\n"), nil)
}
