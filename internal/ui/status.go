package ui

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/glebovdev/bcradio-cli/internal/config"
	"github.com/glebovdev/bcradio-cli/internal/track"
)

const (
	clearLine   = "\r\033[K"
	clearScreen = "\033[2J\033[H"
	// The terminal is in raw mode while the status bar draws.
	newline = "\r\n"

	ProgressInterval = time.Second
	SpinnerInterval  = time.Second / 10
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// PauseIcon uses platform-specific character (Windows renders ⏸ as emoji)
var PauseIcon = func() string {
	if runtime.GOOS == "windows" {
		return "❚❚"
	}
	return "⏸"
}()

type statusStyles struct {
	song   lipgloss.Style
	artist lipgloss.Style
	album  lipgloss.Style
	dim    lipgloss.Style
}

func newStatusStyles(theme config.Theme) statusStyles {
	return statusStyles{
		song:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.SongLabel)),
		artist: lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ArtistLabel)),
		album:  lipgloss.NewStyle().Foreground(lipgloss.Color(theme.AlbumLabel)),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Dim)),
	}
}

// StatusBar prints the playing track and a progress line below it. It is
// safe for concurrent use.
type StatusBar struct {
	out     io.Writer
	styles  statusStyles
	ticking func() bool
	volume  func() int

	mu       sync.Mutex
	current  track.CurrentTrack
	elapsed  time.Duration
	hidden   bool
	pending  bool
	spinning bool
	frame    int
}

// NewStatusBar writes to out. ticking reports whether playback advances;
// volume returns the current volume key.
func NewStatusBar(out io.Writer, theme config.Theme, ticking func() bool, volume func() int) *StatusBar {
	return &StatusBar{
		out:     out,
		styles:  newStatusStyles(theme),
		ticking: ticking,
		volume:  volume,
	}
}

// Run advances the progress line and the spinner until ctx is done.
func (s *StatusBar) Run(ctx context.Context) {
	progress := time.NewTicker(ProgressInterval)
	spinner := time.NewTicker(SpinnerInterval)
	defer progress.Stop()
	defer spinner.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-progress.C:
			s.tick(ProgressInterval)
		case <-spinner.C:
			s.advanceSpinner()
		}
	}
}

func (s *StatusBar) tick(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.IsZero() {
		return
	}
	if s.ticking() {
		s.elapsed += d
		if s.current.Duration > 0 && s.elapsed > s.current.Duration {
			s.elapsed = s.current.Duration
		}
	}
	s.drawLine()
}

func (s *StatusBar) advanceSpinner() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.spinning {
		return
	}
	s.frame = (s.frame + 1) % len(spinnerFrames)
	s.drawLine()
}

func (s *StatusBar) NowPlaying(t track.CurrentTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = t
	s.elapsed = 0
	if s.hidden {
		s.pending = true
		return
	}
	s.drawTrack()
}

func (s *StatusBar) Spinner(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spinning = on
	s.drawLine()
}

// Hide stops all output until Show.
func (s *StatusBar) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = true
}

func (s *StatusBar) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = false
	if s.pending {
		s.drawTrack()
		return
	}
	s.drawLine()
}

// Clear wipes the screen and forgets the playing track.
func (s *StatusBar) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = track.CurrentTrack{}
	s.elapsed = 0
	s.pending = false
	if !s.hidden {
		fmt.Fprint(s.out, clearScreen)
	}
}

func (s *StatusBar) drawTrack() {
	s.pending = false
	fmt.Fprint(s.out, clearLine+s.renderNowPlaying(s.current)+newline)
	s.drawLine()
}

func (s *StatusBar) drawLine() {
	if s.hidden {
		return
	}
	spinner := ""
	if s.spinning {
		spinner = spinnerFrames[s.frame]
	}
	line := s.renderProgress(s.elapsed, s.current.Duration, s.volume(), spinner, !s.ticking(), !s.current.IsZero())
	fmt.Fprint(s.out, clearLine+line)
}

func (s *StatusBar) renderNowPlaying(t track.CurrentTrack) string {
	lines := []string{
		s.styles.dim.Render(t.PlayedAt.Format(time.TimeOnly)) + " ♪ " + s.styles.song.Render(t.Title),
		"  " + s.styles.artist.Render(t.Artist) + s.styles.dim.Render(" - ") + s.styles.album.Render(t.Album),
	}
	if genre := genreText(t); genre != "" {
		lines = append(lines, "  "+s.styles.dim.Render(genre))
	}
	return strings.Join(lines, newline)
}

func genreText(t track.CurrentTrack) string {
	if t.GenreText != "" {
		return t.GenreText
	}
	parts := make([]string, 0, 2)
	for _, g := range []string{t.Genre, t.Subgenre} {
		if g != "" {
			parts = append(parts, g)
		}
	}
	return strings.Join(parts, " / ")
}

func (s *StatusBar) renderProgress(elapsed, total time.Duration, volume int, spinner string, paused, playing bool) string {
	var parts []string
	if playing {
		parts = append(parts, track.FormatDuration(elapsed)+" / "+track.FormatDuration(total))
		if paused {
			parts = append(parts, PauseIcon+" PAUSED")
		}
	}
	parts = append(parts, "vol "+volumeBar(volume))
	if spinner != "" {
		parts = append(parts, spinner+" buffering")
	}
	return " " + s.styles.dim.Render(joinParts(parts))
}

func joinParts(parts []string) string {
	return strings.Join(parts, " │ ")
}
