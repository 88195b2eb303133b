package track

// Element is one genre or subgenre option of the discover index.
type Element struct {
	ID       int64  `json:"id"`
	Label    string `json:"label"`
	Slug     string `json:"slug"`
	Selected bool   `json:"selected,omitempty"`
	ParentID int64  `json:"parentId,omitempty"`
}

const (
	DefaultSlice    = "rand"
	DefaultPageSize = 60
	FirstCursor     = "*"
)

// PostData is the pagination request of the discover endpoint.
// A nil Cursor means the current browsing context is exhausted.
type PostData struct {
	CategoryID         int64    `json:"category_id"`
	TagNormNames       []string `json:"tag_norm_names"`
	GeonameID          int64    `json:"geoname_id"`
	Slice              string   `json:"slice"`
	Cursor             *string  `json:"cursor"`
	Size               int      `json:"size"`
	IncludeResultTypes []string `json:"include_result_types"`
}

// NewPostData returns the first-page request for a genre and optional subgenre slug.
func NewPostData(genre, subgenre string) PostData {
	tags := []string{}
	if genre != "" {
		tags = append(tags, genre)
	}
	if subgenre != "" {
		tags = append(tags, subgenre)
	}
	cursor := FirstCursor
	return PostData{
		TagNormNames:       tags,
		Slice:              DefaultSlice,
		Cursor:             &cursor,
		Size:               DefaultPageSize,
		IncludeResultTypes: []string{"a", "s"},
	}
}

// HasCursor reports whether another page can be requested.
func (p PostData) HasCursor() bool {
	return p.Cursor != nil && *p.Cursor != ""
}

// WithCursor returns a copy of p pointing at the given cursor.
func (p PostData) WithCursor(cursor *string) PostData {
	next := p
	next.TagNormNames = append([]string(nil), p.TagNormNames...)
	next.IncludeResultTypes = append([]string(nil), p.IncludeResultTypes...)
	if cursor != nil {
		c := *cursor
		next.Cursor = &c
	} else {
		next.Cursor = nil
	}
	return next
}

// SubgenresOf returns the subgenres whose parent is genre.
func SubgenresOf(subgenres []Element, genre Element) []Element {
	var out []Element
	for _, s := range subgenres {
		if s.ParentID == genre.ID {
			out = append(out, s)
		}
	}
	return out
}

// FindElement looks an element up by slug or label.
func FindElement(elements []Element, name string) (Element, bool) {
	for _, e := range elements {
		if e.Slug == name || e.Label == name {
			return e, true
		}
	}
	return Element{}, false
}
