// Package service turns Bandcamp API payloads into playable tracks.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"github.com/glebovdev/bcradio-cli/internal/api"
	"github.com/glebovdev/bcradio-cli/internal/cache"
	"github.com/glebovdev/bcradio-cli/internal/track"
	"github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	imageLoadTimeout = 15 * time.Second

	// ParallelRequests bounds the album pages fetched at once.
	ParallelRequests = 4
)

// ErrNoArtwork is returned for tracks without an art id.
var ErrNoArtwork = errors.New("track has no artwork")

// BandcampAPI is the subset of api.Client the catalog needs.
type BandcampAPI interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	GetDiscoverIndex(ctx context.Context) (*api.DiscoverIndex, error)
	Discover(ctx context.Context, pd track.PostData) (*api.DiscoverResponse, error)
	Search(ctx context.Context, text, filter string) ([]string, error)
	GetAlbumPage(ctx context.Context, url string) (*api.AlbumPage, error)
}

// CatalogService resolves genres, discover pages and searches into tracks.
type CatalogService struct {
	apiClient  BandcampAPI
	imageCache *cache.Cache

	mu        sync.RWMutex
	genres    []track.Element
	subgenres []track.Element
}

// NewCatalogService creates a CatalogService backed by apiClient.
func NewCatalogService(apiClient BandcampAPI) *CatalogService {
	imageCache, err := cache.NewCache()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize artwork cache, artwork will not be cached")
	}

	if imageCache != nil {
		go func() {
			if err := imageCache.CleanExpired(); err != nil {
				log.Debug().Err(err).Msg("Failed to clean expired cache")
			}
		}()
	}

	return &CatalogService{
		apiClient:  apiClient,
		imageCache: imageCache,
	}
}

// Genres returns the genre and subgenre options. The discover index is
// fetched once and reused afterwards.
func (s *CatalogService) Genres(ctx context.Context) ([]track.Element, []track.Element, error) {
	s.mu.RLock()
	if len(s.genres) > 0 {
		genres, subgenres := s.genres, s.subgenres
		s.mu.RUnlock()
		return genres, subgenres, nil
	}
	s.mu.RUnlock()

	index, err := s.apiClient.GetDiscoverIndex(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(index.Genres) == 0 {
		return nil, nil, fmt.Errorf("discover index has no genres")
	}

	s.mu.Lock()
	s.genres = index.Genres
	s.subgenres = index.Subgenres
	s.mu.Unlock()

	log.Debug().Int("genres", len(index.Genres)).Int("subgenres", len(index.Subgenres)).Msg("Loaded discover index")
	return index.Genres, index.Subgenres, nil
}

// Discover fetches the page pd points at and returns its tracks and the
// cursor of the following page. A nil cursor means the context is exhausted.
func (s *CatalogService) Discover(ctx context.Context, pd track.PostData) ([]track.Track, *string, error) {
	resp, err := s.apiClient.Discover(ctx, pd)
	if err != nil {
		return nil, nil, err
	}

	var genre, subgenre string
	if len(pd.TagNormNames) > 0 {
		genre = pd.TagNormNames[0]
	}
	if len(pd.TagNormNames) > 1 {
		subgenre = pd.TagNormNames[1]
	}

	tracks := lo.FilterMap(resp.Results, func(item api.DiscoverItem, _ int) (track.Track, bool) {
		if item.FeaturedTrack.StreamURL == "" {
			return track.Track{}, false
		}
		return discoverTrack(item, genre, subgenre), true
	})

	log.Debug().Int("results", len(resp.Results)).Int("tracks", len(tracks)).Msg("Discover page loaded")
	return tracks, resp.Cursor, nil
}

func discoverTrack(item api.DiscoverItem, genre, subgenre string) track.Track {
	artist := item.BandName
	result := &track.DiscoverResult{
		Title:        item.Title,
		ItemURL:      item.ItemURL,
		BandID:       item.BandID,
		BandName:     item.BandName,
		BandURL:      item.BandURL,
		BandGenreID:  item.BandGenreID,
		BandLocation: lo.FromPtr(item.BandLocation),
		ReleaseDate:  item.ReleaseDate,
		ItemPrice:    item.Price.Amount,
		ItemCurrency: item.Price.Currency,
	}
	// album_artist is set when the release is published by a label account.
	if a := lo.FromPtr(item.AlbumArtist); a != "" {
		artist = a
		result.LabelName = item.BandName
		result.LabelURL = item.BandURL
	}

	var duration time.Duration
	if d := item.FeaturedTrack.Duration; d != nil {
		duration = time.Duration(*d * float64(time.Second))
	}

	return track.Track{
		Title:     item.FeaturedTrack.Title,
		Artist:    artist,
		Album:     item.Title,
		ArtID:     lo.FromPtr(item.PrimaryImage.ImageID),
		BandID:    item.BandID,
		URL:       item.FeaturedTrack.StreamURL,
		Duration:  duration,
		GenreText: genre,
		Genre:     genre,
		Subgenre:  subgenre,
		Result:    track.Result{Discover: result},
	}
}

// SearchURLs returns the album pages matching query.
func (s *CatalogService) SearchURLs(ctx context.Context, query string) ([]string, error) {
	return s.apiClient.Search(ctx, query, api.SearchAlbums)
}

// AlbumTracks fetches the album pages in urls and returns their tracks,
// ranked against query. Pages that fail to load are skipped. A non-zero
// bandID keeps only tracks of that band.
func (s *CatalogService) AlbumTracks(ctx context.Context, urls []string, query string, bandID int64) ([]track.Track, error) {
	pages := make([][]track.Track, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ParallelRequests)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			page, err := s.apiClient.GetAlbumPage(gctx, url)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Debug().Err(err).Str("url", url).Msg("Skipping album page")
				return nil
			}
			pages[i] = albumTracks(page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tracks := lo.Flatten(pages)
	if bandID != 0 {
		tracks = lo.Filter(tracks, func(t track.Track, _ int) bool {
			return t.BandID == bandID
		})
	}
	return Rank(tracks, query), nil
}

func albumTracks(page *api.AlbumPage) []track.Track {
	artID := page.Current.ArtID
	if artID == nil {
		artID = page.ArtID
	}
	releaseDate := page.Current.ReleaseDate
	if releaseDate == "" {
		releaseDate = page.Current.PublishDate
	}

	result := &track.SearchResult{
		Title:       page.Current.Title,
		Artist:      page.Artist,
		ReleaseDate: releaseDate,
		AlbumURL:    albumURL(page.URL, lo.FromPtr(page.AlbumURL)),
		ItemURL:     page.URL,
	}

	return lo.FilterMap(page.TrackInfo, func(info api.TrackInfo, _ int) (track.Track, bool) {
		url := info.StreamURL()
		if url == "" {
			return track.Track{}, false
		}
		artist := page.Artist
		if a := lo.FromPtr(info.Artist); a != "" {
			artist = a
		}
		return track.Track{
			Title:    info.Title,
			Artist:   artist,
			Album:    page.Current.Title,
			ArtID:    lo.FromPtr(artID),
			BandID:   page.Current.BandID,
			URL:      url,
			Duration: time.Duration(info.Duration * float64(time.Second)),
			Result:   track.Result{Search: result},
		}, true
	})
}

// albumURL resolves the site-relative album path of a track page against
// the page URL.
func albumURL(itemURL, path string) string {
	if path == "" || strings.HasPrefix(path, "http") {
		return path
	}
	scheme, rest, ok := strings.Cut(itemURL, "://")
	if !ok {
		return path
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host + path
}

type trackSource []track.Track

func (t trackSource) String(i int) string { return t[i].Artist + " " + t[i].Title }
func (t trackSource) Len() int            { return len(t) }

// Rank orders tracks by fuzzy match of artist and title against query.
// Tracks that do not match keep their order after the matches.
func Rank(tracks []track.Track, query string) []track.Track {
	if query == "" || len(tracks) == 0 {
		return tracks
	}

	matches := fuzzy.FindFrom(query, trackSource(tracks))
	out := make([]track.Track, 0, len(tracks))
	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		out = append(out, tracks[m.Index])
		seen[m.Index] = true
	}
	for i, t := range tracks {
		if !seen[i] {
			out = append(out, t)
		}
	}
	return out
}

// Artwork returns the artwork image for artID, from the cache when possible.
func (s *CatalogService) Artwork(ctx context.Context, artID int64) (image.Image, error) {
	url := track.ArtworkURL(artID)
	if url == "" {
		return nil, ErrNoArtwork
	}

	if s.imageCache != nil {
		if img := s.imageCache.GetImage(url); img != nil {
			log.Debug().Str("url", url).Msg("Artwork loaded from cache")
			return img, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, imageLoadTimeout)
	defer cancel()

	data, err := s.apiClient.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}

	if s.imageCache != nil {
		go func() {
			if err := s.imageCache.Put(url, data); err != nil {
				log.Debug().Err(err).Str("url", url).Msg("Failed to cache artwork")
			} else {
				log.Debug().Str("url", url).Msg("Artwork cached")
			}
		}()
	}

	return img, nil
}
