package api

import "github.com/glebovdev/bcradio-cli/internal/track"

// DiscoverResponse is one page of the discover_web endpoint.
type DiscoverResponse struct {
	Results          []DiscoverItem `json:"results"`
	ResultCount      int            `json:"result_count"`
	BatchResultCount int            `json:"batch_result_count"`
	Cursor           *string        `json:"cursor"`
}

type DiscoverItem struct {
	Title         string        `json:"title"`
	ItemURL       string        `json:"item_url"`
	ResultType    string        `json:"result_type"`
	BandID        int64         `json:"band_id"`
	AlbumArtist   *string       `json:"album_artist"`
	BandName      string        `json:"band_name"`
	BandURL       string        `json:"band_url"`
	BandGenreID   int64         `json:"band_genre_id"`
	BandLocation  *string       `json:"band_location"`
	ReleaseDate   string        `json:"release_date"`
	Price         Price         `json:"price"`
	FeaturedTrack FeaturedTrack `json:"featured_track"`
	PrimaryImage  PrimaryImage  `json:"primary_image"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type FeaturedTrack struct {
	BandID    int64    `json:"band_id"`
	Title     string   `json:"title"`
	BandName  string   `json:"band_name"`
	StreamURL string   `json:"stream_url"`
	Duration  *float64 `json:"duration"`
}

type PrimaryImage struct {
	ImageID *int64 `json:"image_id"`
}

// DiscoverIndex is the option tree embedded in the discover page.
type DiscoverIndex struct {
	Categories []track.Element `json:"categories"`
	Genres     []track.Element `json:"genres"`
	Subgenres  []track.Element `json:"subgenres"`
	Slices     []track.Element `json:"slices"`
}

type pageBlob struct {
	AppData struct {
		InitialState DiscoverIndex `json:"initialState"`
	} `json:"appData"`
}

type searchRequest struct {
	SearchText   string `json:"search_text"`
	SearchFilter string `json:"search_filter"`
	FullPage     bool   `json:"full_page"`
	FanID        *int64 `json:"fan_id"`
}

// SearchResponse is the autocomplete search result list.
type SearchResponse struct {
	Auto struct {
		Results []SearchItem `json:"results"`
	} `json:"auto"`
}

type SearchItem struct {
	Type        string  `json:"type"`
	ID          int64   `json:"id"`
	ArtID       *int64  `json:"art_id"`
	Name        string  `json:"name"`
	BandID      int64   `json:"band_id"`
	BandName    *string `json:"band_name"`
	AlbumName   *string `json:"album_name"`
	ItemURLRoot *string `json:"item_url_root"`
	ItemURLPath *string `json:"item_url_path"`
}

// Search filters.
const (
	SearchAlbums = "a"
	SearchTracks = "t"
)

// AlbumPage is the data-tralbum payload of an album or track page.
type AlbumPage struct {
	Artist    string      `json:"artist"`
	ArtID     *int64      `json:"art_id"`
	URL       string      `json:"url"`
	AlbumURL  *string     `json:"album_url"`
	Current   AlbumInfo   `json:"current"`
	TrackInfo []TrackInfo `json:"trackinfo"`
}

type AlbumInfo struct {
	Title       string `json:"title"`
	ArtID       *int64 `json:"art_id"`
	BandID      int64  `json:"band_id"`
	PublishDate string `json:"publish_date"`
	ReleaseDate string `json:"release_date"`
}

type TrackInfo struct {
	ID       int64             `json:"id"`
	Title    string            `json:"title"`
	Artist   *string           `json:"artist"`
	Duration float64           `json:"duration"`
	File     map[string]string `json:"file"`
}

// StreamURL returns the mp3-128 stream of the track, if it has one.
func (t TrackInfo) StreamURL() string {
	return t.File["mp3-128"]
}
