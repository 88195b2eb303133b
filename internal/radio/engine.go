// Package radio drives continuous playback: it keeps the queue filled,
// buffers the next track ahead of time and multiplexes keyboard commands
// into the playback loop.
package radio

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/glebovdev/bcradio-cli/internal/player"
	"github.com/glebovdev/bcradio-cli/internal/playlist"
	"github.com/glebovdev/bcradio-cli/internal/track"
	"github.com/rs/zerolog/log"
)

var (
	// ErrCancelled is returned by a prompt the user dismissed.
	ErrCancelled = errors.New("selection cancelled")
	// ErrInterrupted is returned by a prompt aborted with Ctrl-C.
	ErrInterrupted = errors.New("interrupted")
	// ErrQuit ends the playback loop.
	ErrQuit = errors.New("quit")
)

const (
	DefaultTickInterval = 500 * time.Millisecond
	DefaultQuitPoll     = time.Second
	DefaultLowWaterMark = 2
)

// Fetcher downloads audio bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Catalog resolves browsing contexts and searches into tracks.
type Catalog interface {
	Genres(ctx context.Context) ([]track.Element, []track.Element, error)
	Discover(ctx context.Context, pd track.PostData) ([]track.Track, *string, error)
	SearchURLs(ctx context.Context, query string) ([]string, error)
	AlbumTracks(ctx context.Context, urls []string, query string, bandID int64) ([]track.Track, error)
	Artwork(ctx context.Context, artID int64) (image.Image, error)
}

type Decoder interface {
	Decode(buf []byte) (player.Source, error)
	ProbeDuration(buf []byte) (time.Duration, error)
}

// Sink plays one decoded source at a time.
type Sink interface {
	Empty() bool
	Append(src player.Source) error
	Stop()
	Pause()
	Resume()
	Paused() bool
	SetVolume(gain float64)
	Remaining() time.Duration
}

// Prompter renders modal dialogs. Select and Input return ErrCancelled when
// dismissed and ErrInterrupted on Ctrl-C.
type Prompter interface {
	Select(title string, options []string) (int, error)
	Input(title string) (string, error)
	Show(title string, lines []string, img image.Image) error
	Message(text string)
	// Error shows err in terms the user can act on.
	Error(err error)
}

// Display is the status area below the dialogs.
type Display interface {
	NowPlaying(t track.CurrentTrack)
	Spinner(on bool)
	Hide()
	Show()
	Clear()
}

type State int

const (
	StateIdle State = iota
	StateFilling
	StateBuffering
	StatePlaying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateFilling:
		return "FILLING"
	case StateBuffering:
		return "BUFFERING"
	case StatePlaying:
		return "PLAYING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

type Options struct {
	LowWaterMark int
	TickInterval time.Duration
	QuitPoll     time.Duration
	// Volume is the initial volume key, 0-9.
	Volume int
	// Genre and Subgenre preselect the first browsing context.
	Genre    string
	Subgenre string
}

func (o *Options) setDefaults() {
	if o.LowWaterMark < 1 {
		o.LowWaterMark = DefaultLowWaterMark
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.QuitPoll <= 0 {
		o.QuitPoll = DefaultQuitPoll
	}
}

// Engine owns the playback loop and its collaborators.
type Engine struct {
	pc       *PlaybackContext
	store    *playlist.Store
	fetcher  Fetcher
	catalog  Catalog
	decoder  Decoder
	sink     Sink
	prompter Prompter
	display  Display
	opts     Options

	fatal  chan error
	volume atomic.Int32

	stateMu sync.RWMutex
	state   State
}

type Deps struct {
	Context  *PlaybackContext
	Store    *playlist.Store
	Fetcher  Fetcher
	Catalog  Catalog
	Decoder  Decoder
	Sink     Sink
	Prompter Prompter
	Display  Display
}

func NewEngine(deps Deps, opts Options) *Engine {
	opts.setDefaults()
	if deps.Context == nil {
		deps.Context = NewPlaybackContext()
	}
	if deps.Store == nil {
		deps.Store = playlist.NewStore()
	}

	e := &Engine{
		pc:       deps.Context,
		store:    deps.Store,
		fetcher:  deps.Fetcher,
		catalog:  deps.Catalog,
		decoder:  deps.Decoder,
		sink:     deps.Sink,
		prompter: deps.Prompter,
		display:  deps.Display,
		opts:     opts,
		fatal:    make(chan error, 1),
	}
	e.volume.Store(int32(opts.Volume))

	if opts.Genre != "" {
		e.store.SetGenre(opts.Genre)
		e.store.SetSubgenre(opts.Subgenre)
		e.store.SetPostData(track.NewPostData(opts.Genre, opts.Subgenre))
	}
	return e
}

func (e *Engine) Context() *PlaybackContext { return e.pc }
func (e *Engine) Store() *playlist.Store    { return e.store }

// Volume returns the last volume key applied.
func (e *Engine) Volume() int {
	return int(e.volume.Load())
}

func (e *Engine) State() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

func (e *Engine) setState(state State) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state != state {
		log.Debug().Msgf("Engine state: %s -> %s", e.state.String(), state.String())
		e.state = state
	}
}

// fail reports a fatal error to the playback loop. Only the first one is kept.
func (e *Engine) fail(err error) {
	log.Error().Err(err).Msg("Fatal playback error")
	select {
	case e.fatal <- err:
	default:
	}
}
