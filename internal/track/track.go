// Package track defines the data structures for queued and playing Bandcamp tracks.
package track

import (
	"fmt"
	"time"
)

// DiscoverResult carries the metadata of a curated discover result.
type DiscoverResult struct {
	Title        string  `json:"title"`
	ItemURL      string  `json:"item_url"`
	BandID       int64   `json:"band_id"`
	BandName     string  `json:"band_name"`
	BandURL      string  `json:"band_url"`
	BandGenreID  int64   `json:"band_genre_id"`
	BandLocation string  `json:"band_location"`
	LabelName    string  `json:"label_name"`
	LabelURL     string  `json:"label_url"`
	ReleaseDate  string  `json:"release_date"`
	ItemPrice    float64 `json:"item_price"`
	ItemCurrency string  `json:"item_currency"`
}

// SearchResult carries the metadata of an album or track page found by search.
type SearchResult struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ReleaseDate string `json:"release_date"`
	AlbumURL    string `json:"album_url"`
	ItemURL     string `json:"item_url"`
}

// Result is the origin-specific payload of a track. At most one field is set.
type Result struct {
	Discover *DiscoverResult
	Search   *SearchResult
}

// Track is one playable item in the queue.
type Track struct {
	Title     string
	Artist    string
	Album     string
	ArtID     int64 // 0 when the item has no artwork
	BandID    int64
	URL       string
	Duration  time.Duration
	GenreText string
	Genre     string
	Subgenre  string
	Buffer    []byte
	Result    Result
}

// Buffered reports whether the audio bytes have been fetched.
func (t *Track) Buffered() bool {
	return len(t.Buffer) > 0
}

// CurrentTrack is a snapshot of the track that is playing.
type CurrentTrack struct {
	Title     string
	Artist    string
	Album     string
	ArtID     int64
	BandID    int64
	URL       string
	Duration  time.Duration
	GenreText string
	Genre     string
	Subgenre  string
	Result    Result
	PlayedAt  time.Time
}

// NewCurrentTrack copies t into a CurrentTrack stamped with playedAt. The buffer is not carried over.
func NewCurrentTrack(t Track, playedAt time.Time) CurrentTrack {
	return CurrentTrack{
		Title:     t.Title,
		Artist:    t.Artist,
		Album:     t.Album,
		ArtID:     t.ArtID,
		BandID:    t.BandID,
		URL:       t.URL,
		Duration:  t.Duration,
		GenreText: t.GenreText,
		Genre:     t.Genre,
		Subgenre:  t.Subgenre,
		Result:    t.Result,
		PlayedAt:  playedAt,
	}
}

// IsZero reports whether nothing has been played yet.
func (c CurrentTrack) IsZero() bool {
	return c.PlayedAt.IsZero() && c.URL == ""
}

// FormatDuration renders d as mm:ss, rounding partial seconds up.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// ArtworkURL returns the small artwork image URL for an art id.
func ArtworkURL(artID int64) string {
	if artID == 0 {
		return ""
	}
	return fmt.Sprintf("https://f4.bcbits.com/img/a%d_16.jpg", artID)
}
