package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/bcradio-cli/internal/config"
	"github.com/glebovdev/bcradio-cli/internal/radio"
	"github.com/glebovdev/bcradio-cli/internal/track"
	"github.com/rivo/tview"
)

func TestFriendlyErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "DNS lookup failure",
			input:    `failed to fetch tracks: Post "https://bandcamp.com/api/discover/1/discover_web": dial tcp: lookup bandcamp.com: no such host`,
			expected: "Unable to connect to Bandcamp.\nPlease check your internet connection.",
		},
		{
			name:     "connection refused",
			input:    "dial tcp 127.0.0.1:443: connect: connection refused",
			expected: "Connection refused by server.\nThe service may be temporarily unavailable.",
		},
		{
			name:     "timeout",
			input:    "search failed: context deadline exceeded",
			expected: "Connection timed out.\nPlease check your internet connection.",
		},
		{
			name:     "rate limited",
			input:    "api returned status 429: slow down",
			expected: "Too many requests (429).\nPlease wait a moment and try again.",
		},
		{
			name:     "plain message",
			input:    `no results for "boards"`,
			expected: `no results for "boards"`,
		},
		{
			name:     "dial detail stripped",
			input:    "failed to fetch rock: dial tcp 10.0.0.1:443: i/o error",
			expected: "failed to fetch rock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := friendlyErrorMessage(tt.input); got != tt.expected {
				t.Errorf("friendlyErrorMessage(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFriendlyErrorMessageLongError(t *testing.T) {
	got := friendlyErrorMessage(strings.Repeat("x", 150))
	if len(got) != 103 || !strings.HasSuffix(got, "...") {
		t.Errorf("long error not truncated: %q", got)
	}
}

func TestDialogCapture(t *testing.T) {
	tests := []struct {
		name     string
		event    *tcell.EventKey
		wantErr  error
		consumed bool
	}{
		{"escape cancels", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), radio.ErrCancelled, true},
		{"ctrl-c interrupts", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone), radio.ErrInterrupted, true},
		{"other keys pass", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewUI(nil).newDialog()
			got := d.capture(tt.event)

			if (got == nil) != tt.consumed {
				t.Errorf("capture() consumed = %v, want %v", got == nil, tt.consumed)
			}
			if !errors.Is(d.err, tt.wantErr) {
				t.Errorf("dialog err = %v, want %v", d.err, tt.wantErr)
			}
		})
	}
}

func sendKeys(p tview.Primitive, events ...*tcell.EventKey) {
	handler := p.InputHandler()
	for _, ev := range events {
		handler(ev, func(tview.Primitive) {})
	}
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestSelectListNavigation(t *testing.T) {
	tests := []struct {
		name string
		keys []*tcell.EventKey
		want int
	}{
		{"enter picks first", nil, 0},
		{"j moves down", []*tcell.EventKey{runeKey('j'), runeKey('j')}, 2},
		{"k moves back up", []*tcell.EventKey{runeKey('j'), runeKey('j'), runeKey('k')}, 1},
		{"arrow keys", []*tcell.EventKey{tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := NewUI(nil)
			d := ui.newDialog()
			selected := -1
			list := ui.selectList(d, "genre?", []string{"Rock", "Jazz", "[Electronic]"}, func(i int) { selected = i })

			keys := append(tt.keys, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
			sendKeys(list, keys...)

			if selected != tt.want {
				t.Errorf("selected = %d, want %d", selected, tt.want)
			}
			if d.err != nil {
				t.Errorf("dialog err = %v", d.err)
			}
		})
	}
}

func TestInputFieldTrimsText(t *testing.T) {
	ui := NewUI(nil)
	d := ui.newDialog()
	var got string
	field := ui.inputField(d, "free word search", func(s string) { got = s })

	sendKeys(field, runeKey(' '), runeKey('a'), runeKey('b'), runeKey(' '),
		tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))

	if got != "ab" {
		t.Errorf("input = %q, want %q", got, "ab")
	}
}

func TestInfoModalClosesOnAnyKey(t *testing.T) {
	ui := NewUI(nil)
	d := ui.newDialog()
	d.err = radio.ErrCancelled
	_, focus := ui.infoModal(d, "help", strings.Split(radio.HelpText, "\n"), nil)

	sendKeys(focus, runeKey('x'))

	if d.err != nil {
		t.Errorf("dialog err = %v, want nil after a key", d.err)
	}
}

func TestModalHeight(t *testing.T) {
	tests := []struct {
		lines, want int
	}{
		{0, MinModalHeight},
		{10, 16},
		{100, MaxModalHeight},
	}
	for _, tt := range tests {
		if got := modalHeight(tt.lines); got != tt.want {
			t.Errorf("modalHeight(%d) = %d, want %d", tt.lines, got, tt.want)
		}
	}
}

func TestNewUIUsesTheme(t *testing.T) {
	cfg := config.DefaultConfig()
	ui := NewUI(cfg)

	if ui.colors.highlight != config.GetColor(cfg.Theme.Highlight) {
		t.Errorf("highlight = %v, want theme color", ui.colors.highlight)
	}
	if NewUI(nil).config == nil {
		t.Error("NewUI(nil) should fall back to the default config")
	}
}

func TestVolumeBar(t *testing.T) {
	tests := []struct {
		volume int
		want   string
	}{
		{0, "▯▯▯▯▯▯▯▯▯"},
		{4, "▮▮▮▮▯▯▯▯▯"},
		{9, "▮▮▮▮▮▮▮▮▮"},
		{12, "▮▮▮▮▮▮▮▮▮"},
	}
	for _, tt := range tests {
		if got := volumeBar(tt.volume); got != tt.want {
			t.Errorf("volumeBar(%d) = %q, want %q", tt.volume, got, tt.want)
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

func newTestStatusBar(ticking *bool) (*StatusBar, *syncBuffer) {
	out := &syncBuffer{}
	s := NewStatusBar(out, config.DefaultConfig().Theme, func() bool { return *ticking }, func() int { return 5 })
	return s, out
}

func playingTrack() track.CurrentTrack {
	return track.CurrentTrack{
		Title:    "Roygbiv",
		Artist:   "Boards of Canada",
		Album:    "Music Has the Right to Children",
		Genre:    "electronic",
		Subgenre: "ambient",
		URL:      "https://t4.bcbits.com/stream/x",
		Duration: 2 * time.Minute,
		PlayedAt: time.Now(),
	}
}

func TestStatusBarNowPlaying(t *testing.T) {
	ticking := true
	s, out := newTestStatusBar(&ticking)

	s.NowPlaying(playingTrack())

	got := out.String()
	for _, want := range []string{"Roygbiv", "Boards of Canada", "Music Has the Right to Children", "electronic / ambient", "00:00 / 02:00"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
}

func TestStatusBarTick(t *testing.T) {
	ticking := true
	s, out := newTestStatusBar(&ticking)
	s.NowPlaying(playingTrack())

	s.tick(time.Second)
	if !strings.Contains(out.String(), "00:01 / 02:00") {
		t.Errorf("progress did not advance: %q", out.String())
	}

	ticking = false
	out.Reset()
	s.tick(time.Second)
	got := out.String()
	if !strings.Contains(got, "00:01 / 02:00") || !strings.Contains(got, "PAUSED") {
		t.Errorf("paused progress = %q", got)
	}

	ticking = true
	s.tick(5 * time.Minute)
	if !strings.Contains(out.String(), "02:00 / 02:00") {
		t.Errorf("elapsed should stop at the track length: %q", out.String())
	}
}

func TestStatusBarHiddenIsSilent(t *testing.T) {
	ticking := true
	s, out := newTestStatusBar(&ticking)

	s.Hide()
	s.NowPlaying(playingTrack())
	s.tick(time.Second)
	s.Spinner(true)
	s.Clear()

	if out.String() != "" {
		t.Errorf("hidden status bar wrote %q", out.String())
	}
}

func TestStatusBarShowPrintsPendingTrack(t *testing.T) {
	ticking := true
	s, out := newTestStatusBar(&ticking)

	s.Hide()
	s.NowPlaying(playingTrack())
	s.Show()

	if !strings.Contains(out.String(), "Roygbiv") {
		t.Errorf("track changed while hidden was not printed: %q", out.String())
	}
}

func TestStatusBarSpinner(t *testing.T) {
	ticking := true
	s, out := newTestStatusBar(&ticking)

	s.Spinner(true)
	s.advanceSpinner()
	if !strings.Contains(out.String(), "buffering") {
		t.Errorf("spinner not shown: %q", out.String())
	}

	s.Spinner(false)
	out.Reset()
	s.advanceSpinner()
	if out.String() != "" {
		t.Errorf("stopped spinner still draws: %q", out.String())
	}
}

func TestStatusBarClear(t *testing.T) {
	ticking := true
	s, out := newTestStatusBar(&ticking)
	s.NowPlaying(playingTrack())
	out.Reset()

	s.Clear()
	if !strings.Contains(out.String(), clearScreen) {
		t.Errorf("Clear() output = %q", out.String())
	}

	out.Reset()
	s.tick(time.Second)
	if out.String() != "" {
		t.Error("no progress without a playing track")
	}
}

func TestStatusBarRunStops(t *testing.T) {
	ticking := true
	s, _ := newTestStatusBar(&ticking)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop")
	}
}

func TestGenreText(t *testing.T) {
	tests := []struct {
		name string
		t    track.CurrentTrack
		want string
	}{
		{"explicit text", track.CurrentTrack{GenreText: "Ambient, Drone", Genre: "electronic"}, "Ambient, Drone"},
		{"genre and subgenre", track.CurrentTrack{Genre: "rock", Subgenre: "indie"}, "rock / indie"},
		{"genre only", track.CurrentTrack{Genre: "jazz"}, "jazz"},
		{"none", track.CurrentTrack{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := genreText(tt.t); got != tt.want {
				t.Errorf("genreText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinParts(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		expected string
	}{
		{"empty slice", []string{}, ""},
		{"single part", []string{"PLAYING"}, "PLAYING"},
		{"two parts", []string{"01:00 / 02:00", "vol ▮"}, "01:00 / 02:00 │ vol ▮"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinParts(tt.parts); got != tt.expected {
				t.Errorf("joinParts(%v) = %q, want %q", tt.parts, got, tt.expected)
			}
		})
	}
}
