package radio

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebovdev/bcradio-cli/internal/player"
	"github.com/glebovdev/bcradio-cli/internal/track"
)

type fakeSink struct {
	mu        sync.Mutex
	playing   bool
	paused    bool
	appended  int
	stopped   int
	gain      float64
	remaining time.Duration
	appendErr error
}

func (s *fakeSink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.playing
}

func (s *fakeSink) Append(player.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended++
	s.playing = true
	s.paused = false
	s.remaining = time.Minute
	return nil
}

func (s *fakeSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	s.playing = false
	s.paused = false
}

func (s *fakeSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *fakeSink) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *fakeSink) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *fakeSink) SetVolume(gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = gain
}

func (s *fakeSink) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// finish simulates the playing track reaching its end.
func (s *fakeSink) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.remaining = 0
}

func (s *fakeSink) stats() (appended, stopped int, gain float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appended, s.stopped, s.gain
}

type fakeFetcher struct {
	calls atomic.Int32
	fetch func(ctx context.Context, url string) ([]byte, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	if f.fetch != nil {
		return f.fetch(ctx, url)
	}
	return []byte(url), nil
}

type fakeDecoder struct {
	mu      sync.Mutex
	bad     map[string]bool
	decoded []string
}

func (d *fakeDecoder) Decode(buf []byte) (player.Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bad[string(buf)] {
		return player.Source{}, errors.New("not an mp3")
	}
	d.decoded = append(d.decoded, string(buf))
	return player.Source{}, nil
}

func (d *fakeDecoder) ProbeDuration(buf []byte) (time.Duration, error) {
	return time.Second, nil
}

func (d *fakeDecoder) decodedNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.decoded...)
}

type albumCall struct {
	urls   []string
	query  string
	bandID int64
}

type fakeCatalog struct {
	mu         sync.Mutex
	genres     []track.Element
	subgenres  []track.Element
	genresErr  error
	discover   func(pd track.PostData) ([]track.Track, *string, error)
	discovered []track.PostData
	searchURLs []string
	searchErr  error
	albums     []track.Track
	albumErr   error
	albumCalls []albumCall
	artwork    image.Image
}

func (c *fakeCatalog) Genres(ctx context.Context) ([]track.Element, []track.Element, error) {
	return c.genres, c.subgenres, c.genresErr
}

func (c *fakeCatalog) Discover(ctx context.Context, pd track.PostData) ([]track.Track, *string, error) {
	c.mu.Lock()
	c.discovered = append(c.discovered, pd)
	c.mu.Unlock()
	if c.discover == nil {
		return nil, nil, nil
	}
	return c.discover(pd)
}

func (c *fakeCatalog) SearchURLs(ctx context.Context, query string) ([]string, error) {
	return c.searchURLs, c.searchErr
}

func (c *fakeCatalog) AlbumTracks(ctx context.Context, urls []string, query string, bandID int64) ([]track.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.albumCalls = append(c.albumCalls, albumCall{urls: urls, query: query, bandID: bandID})
	return c.albums, c.albumErr
}

func (c *fakeCatalog) Artwork(ctx context.Context, artID int64) (image.Image, error) {
	if c.artwork == nil {
		return nil, errors.New("no artwork")
	}
	return c.artwork, nil
}

type selectAnswer struct {
	index int
	err   error
}

type shown struct {
	title string
	lines []string
	img   image.Image
}

type fakePrompter struct {
	pc *PlaybackContext

	selects  []selectAnswer
	inputs   []string
	inputErr error
	showErr  error
	titles   []string
	options  [][]string
	shows    []shown
	messages []string
	errs     []error
	// parkedDuringPrompt records the park flag seen by every prompt.
	parkedDuringPrompt []bool
	// parkedDuringMessage records the park flag seen by every message.
	parkedDuringMessage []bool
}

func (p *fakePrompter) observe(title string) {
	p.titles = append(p.titles, title)
	if p.pc != nil {
		p.parkedDuringPrompt = append(p.parkedDuringPrompt, p.pc.Parked())
	}
}

func (p *fakePrompter) Select(title string, options []string) (int, error) {
	p.observe(title)
	p.options = append(p.options, options)
	if len(p.selects) == 0 {
		return 0, ErrInterrupted
	}
	a := p.selects[0]
	p.selects = p.selects[1:]
	return a.index, a.err
}

func (p *fakePrompter) Input(title string) (string, error) {
	p.observe(title)
	if p.inputErr != nil {
		return "", p.inputErr
	}
	if len(p.inputs) == 0 {
		return "", ErrCancelled
	}
	in := p.inputs[0]
	p.inputs = p.inputs[1:]
	return in, nil
}

func (p *fakePrompter) Show(title string, lines []string, img image.Image) error {
	p.observe(title)
	p.shows = append(p.shows, shown{title: title, lines: lines, img: img})
	return p.showErr
}

func (p *fakePrompter) Message(text string) {
	p.messages = append(p.messages, text)
	if p.pc != nil {
		p.parkedDuringMessage = append(p.parkedDuringMessage, p.pc.Parked())
	}
}

func (p *fakePrompter) Error(err error) {
	p.errs = append(p.errs, err)
	p.Message(err.Error())
}

type fakeDisplay struct {
	mu      sync.Mutex
	playing []string
	hidden  int
	shown   int
	cleared int
	spins   int
}

func (d *fakeDisplay) NowPlaying(t track.CurrentTrack) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = append(d.playing, t.Title)
}

func (d *fakeDisplay) Spinner(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if on {
		d.spins++
	}
}

func (d *fakeDisplay) Hide() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hidden++
}

func (d *fakeDisplay) Show() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown++
}

func (d *fakeDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared++
}

func (d *fakeDisplay) nowPlaying() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.playing...)
}

type harness struct {
	engine   *Engine
	sink     *fakeSink
	fetcher  *fakeFetcher
	decoder  *fakeDecoder
	catalog  *fakeCatalog
	prompter *fakePrompter
	display  *fakeDisplay
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		sink:     &fakeSink{},
		fetcher:  &fakeFetcher{},
		decoder:  &fakeDecoder{bad: map[string]bool{}},
		catalog:  &fakeCatalog{},
		prompter: &fakePrompter{},
		display:  &fakeDisplay{},
	}
	h.engine = NewEngine(Deps{
		Fetcher:  h.fetcher,
		Catalog:  h.catalog,
		Decoder:  h.decoder,
		Sink:     h.sink,
		Prompter: h.prompter,
		Display:  h.display,
	}, opts)
	h.prompter.pc = h.engine.Context()
	t.Cleanup(h.engine.CancelBuffering)
	return h
}

func newTrack(name string, buffered bool) track.Track {
	t := track.Track{
		Title:    name,
		Artist:   "artist " + name,
		Album:    "album " + name,
		URL:      "https://t4.bcbits.com/stream/" + name,
		Duration: 3 * time.Minute,
	}
	if buffered {
		t.Buffer = []byte(name)
	}
	return t
}

func titles(tracks []track.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func rockIndex() ([]track.Element, []track.Element) {
	genres := []track.Element{
		{ID: 1, Label: "Rock", Slug: "rock"},
		{ID: 2, Label: "Jazz", Slug: "jazz"},
	}
	subgenres := []track.Element{
		{ID: 10, Label: "Indie", Slug: "indie", ParentID: 1},
		{ID: 11, Label: "Shoegaze", Slug: "shoegaze", ParentID: 1},
	}
	return genres, subgenres
}

func strPtr(s string) *string { return &s }
