package track

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "zero", duration: 0, expected: "00:00"},
		{name: "negative", duration: -time.Second, expected: "00:00"},
		{name: "rounds up partial second", duration: 1500 * time.Millisecond, expected: "00:02"},
		{name: "minutes", duration: 3*time.Minute + 7*time.Second, expected: "03:07"},
		{name: "over an hour", duration: 61 * time.Minute, expected: "61:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.duration); got != tt.expected {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

func TestNewCurrentTrackDropsBuffer(t *testing.T) {
	now := time.Now()
	tr := Track{
		Title:    "Song",
		Artist:   "Artist",
		URL:      "http://example.com/a.mp3",
		Duration: 90 * time.Second,
		Buffer:   []byte{1, 2, 3},
		Result:   Result{Search: &SearchResult{ItemURL: "http://example.com/album"}},
	}

	cur := NewCurrentTrack(tr, now)

	if cur.Title != "Song" || cur.Artist != "Artist" || cur.URL != tr.URL {
		t.Errorf("NewCurrentTrack() copied fields incorrectly: %+v", cur)
	}
	if !cur.PlayedAt.Equal(now) {
		t.Errorf("PlayedAt = %v, want %v", cur.PlayedAt, now)
	}
	if cur.Result.Search == nil || cur.Result.Search.ItemURL != "http://example.com/album" {
		t.Error("Result payload was not carried over")
	}
	if cur.IsZero() {
		t.Error("IsZero() = true for a promoted track")
	}
}

func TestCurrentTrackIsZero(t *testing.T) {
	var cur CurrentTrack
	if !cur.IsZero() {
		t.Error("IsZero() = false for the zero value")
	}
}

func TestArtworkURL(t *testing.T) {
	if got := ArtworkURL(0); got != "" {
		t.Errorf("ArtworkURL(0) = %q, want empty", got)
	}
	if got := ArtworkURL(42); got != "https://f4.bcbits.com/img/a42_16.jpg" {
		t.Errorf("ArtworkURL(42) = %q", got)
	}
}

func TestNewPostData(t *testing.T) {
	tests := []struct {
		name     string
		genre    string
		subgenre string
		tags     []string
	}{
		{name: "no context", tags: []string{}},
		{name: "genre only", genre: "electronic", tags: []string{"electronic"}},
		{name: "genre and subgenre", genre: "electronic", subgenre: "house", tags: []string{"electronic", "house"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd := NewPostData(tt.genre, tt.subgenre)
			if !pd.HasCursor() || *pd.Cursor != FirstCursor {
				t.Errorf("first page cursor = %v, want %q", pd.Cursor, FirstCursor)
			}
			if len(pd.TagNormNames) != len(tt.tags) {
				t.Fatalf("TagNormNames = %v, want %v", pd.TagNormNames, tt.tags)
			}
			for i := range tt.tags {
				if pd.TagNormNames[i] != tt.tags[i] {
					t.Errorf("TagNormNames[%d] = %q, want %q", i, pd.TagNormNames[i], tt.tags[i])
				}
			}
			if pd.Size != DefaultPageSize || pd.Slice != DefaultSlice {
				t.Errorf("unexpected defaults: size=%d slice=%q", pd.Size, pd.Slice)
			}
		})
	}
}

func TestPostDataWithCursor(t *testing.T) {
	pd := NewPostData("rock", "")
	next := "abc"

	moved := pd.WithCursor(&next)
	if !moved.HasCursor() || *moved.Cursor != "abc" {
		t.Errorf("WithCursor(abc) cursor = %v", moved.Cursor)
	}
	next = "mutated"
	if *moved.Cursor != "abc" {
		t.Error("WithCursor must copy the cursor value")
	}
	if *pd.Cursor != FirstCursor {
		t.Error("WithCursor must not modify the receiver")
	}

	exhausted := pd.WithCursor(nil)
	if exhausted.HasCursor() {
		t.Error("WithCursor(nil) should report no cursor")
	}

	empty := ""
	if pd.WithCursor(&empty).HasCursor() {
		t.Error("an empty cursor should count as exhausted")
	}
}

func TestSubgenresOfAndFindElement(t *testing.T) {
	genres := []Element{{ID: 1, Label: "Electronic", Slug: "electronic"}, {ID: 2, Label: "Rock", Slug: "rock"}}
	subgenres := []Element{
		{ID: 10, Label: "House", Slug: "house", ParentID: 1},
		{ID: 11, Label: "Techno", Slug: "techno", ParentID: 1},
		{ID: 20, Label: "Punk", Slug: "punk", ParentID: 2},
	}

	got := SubgenresOf(subgenres, genres[0])
	if len(got) != 2 || got[0].Slug != "house" || got[1].Slug != "techno" {
		t.Errorf("SubgenresOf(electronic) = %+v", got)
	}

	if e, ok := FindElement(genres, "rock"); !ok || e.ID != 2 {
		t.Errorf("FindElement(rock) = %+v, %v", e, ok)
	}
	if e, ok := FindElement(genres, "Electronic"); !ok || e.ID != 1 {
		t.Errorf("FindElement(Electronic) = %+v, %v", e, ok)
	}
	if _, ok := FindElement(genres, "jazz"); ok {
		t.Error("FindElement(jazz) should not match")
	}
}
