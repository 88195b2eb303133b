// Package playlist holds the shared playback state behind a single mutex.
package playlist

import (
	"fmt"
	"sync"
	"time"

	"github.com/glebovdev/bcradio-cli/internal/track"
	"github.com/rs/zerolog/log"
)

// PlaylistInfo is the queue, the playing track and the browsing context.
type PlaylistInfo struct {
	Current   track.CurrentTrack
	Tracks    []track.Track // front = next to play; only index 0 is buffered ahead
	PostData  track.PostData
	Genre     string
	Subgenre  string
	Genres    []track.Element
	Subgenres []track.Element
}

// ServerInfo is auxiliary navigation state.
type ServerInfo struct {
	SelectURLs []string // album/track pages found by search and not yet expanded
}

type State struct {
	Player PlaylistInfo
	Server ServerInfo
}

// Store guards State. Every operation takes the lock for a short, I/O-free
// critical section.
type Store struct {
	mu    sync.Mutex
	state State
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Player.Tracks)
}

// Append adds tracks to the back of the queue.
func (s *Store) Append(tracks []track.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Player.Tracks = append(s.state.Player.Tracks, tracks...)
}

// PushFront injects a single track ahead of the queue.
func (s *Store) PushFront(t track.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Player.Tracks = append([]track.Track{t}, s.state.Player.Tracks...)
}

// Replace swaps the whole queue for tracks.
func (s *Store) Replace(tracks []track.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Player.Tracks = append([]track.Track(nil), tracks...)
}

// Drop removes the first n tracks. n larger than the queue empties it.
func (s *Store) Drop(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		return
	}
	if n >= len(s.state.Player.Tracks) {
		s.state.Player.Tracks = nil
		return
	}
	s.state.Player.Tracks = append([]track.Track(nil), s.state.Player.Tracks[n:]...)
}

// Tracks returns a snapshot of the queue. Buffers are shared, not copied.
func (s *Store) Tracks() []track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]track.Track, len(s.state.Player.Tracks))
	copy(out, s.state.Player.Tracks)
	return out
}

// PromoteHead pops the queue front into the current track and returns the
// popped track, buffer included. Callers must check Len first: it panics on
// an empty queue.
func (s *Store) PromoteHead() track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.state.Player.Tracks) == 0 {
		panic("playlist: PromoteHead on empty queue")
	}
	head := s.state.Player.Tracks[0]
	s.state.Player.Tracks[0] = track.Track{}
	s.state.Player.Tracks = s.state.Player.Tracks[1:]
	s.state.Player.Current = track.NewCurrentTrack(head, s.now())
	return head
}

func (s *Store) mustIndex(pos int) {
	if pos < 0 || pos >= len(s.state.Player.Tracks) {
		panic(fmt.Sprintf("playlist: position %d out of range [0,%d)", pos, len(s.state.Player.Tracks)))
	}
}

// URL returns the stream URL at pos. pos must be in range.
func (s *Store) URL(pos int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustIndex(pos)
	return s.state.Player.Tracks[pos].URL
}

// HeadBuffered reports whether the queue front holds audio bytes. Only the
// front is ever buffered ahead of time.
func (s *Store) HeadBuffered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Player.Tracks) > 0 && s.state.Player.Tracks[0].Buffered()
}

// BufferedCount returns how many queued tracks hold audio bytes.
func (s *Store) BufferedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.state.Player.Tracks {
		if s.state.Player.Tracks[i].Buffered() {
			n++
		}
	}
	return n
}

// SetBuffer stores buf and the probed duration on the track with the given
// URL. The queue may have changed since the fetch started, so a missing URL
// is not an error: the write is dropped and false is returned.
func (s *Store) SetBuffer(url string, buf []byte, duration time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Player.Tracks {
		if s.state.Player.Tracks[i].URL == url {
			s.state.Player.Tracks[i].Buffer = buf
			if duration > 0 {
				s.state.Player.Tracks[i].Duration = duration
			}
			return true
		}
	}
	log.Debug().Str("url", url).Msg("Dropping stale buffer write")
	return false
}

func (s *Store) PostData() track.PostData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Player.PostData
}

func (s *Store) SetPostData(pd track.PostData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Player.PostData = pd
}

func (s *Store) Genre() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Player.Genre
}

func (s *Store) SetGenre(genre string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Player.Genre = genre
}

func (s *Store) Subgenre() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Player.Subgenre
}

func (s *Store) SetSubgenre(subgenre string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Player.Subgenre = subgenre
}

// Genres returns the genre and subgenre options of the discover index.
func (s *Store) Genres() ([]track.Element, []track.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]track.Element(nil), s.state.Player.Genres...),
		append([]track.Element(nil), s.state.Player.Subgenres...)
}

func (s *Store) SetGenres(genres, subgenres []track.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Player.Genres = genres
	s.state.Player.Subgenres = subgenres
}

func (s *Store) Current() track.CurrentTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Player.Current
}

func (s *Store) SetSelectURLs(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Server.SelectURLs = append([]string(nil), urls...)
}

// TakeSelectURLs removes and returns up to n pending URLs.
func (s *Store) TakeSelectURLs(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.state.Server.SelectURLs) {
		n = len(s.state.Server.SelectURLs)
	}
	out := append([]string(nil), s.state.Server.SelectURLs[:n]...)
	s.state.Server.SelectURLs = s.state.Server.SelectURLs[n:]
	return out
}
