package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record represents a single vinyl record in the collection.
//
// Records are loaded once from the collection document and never mutated
// afterwards. The ID is the stable key used by the cover image cache.
//
// Example document entry:
//
//	{
//	    "id": "dsotm",
//	    "artist": "Pink Floyd",
//	    "title": "The Dark Side of the Moon",
//	    "year": 1973,
//	    "label": "Harvest",
//	    "coverImageUrl": "/covers/dsotm.jpg",
//	    "tracks": [{"title": "Speak to Me", "duration": "1:13"}]
//	}
type Record struct {
	// ID uniquely identifies the record within a collection.
	ID string `json:"id" validate:"required"`

	// Artist is the record artist name.
	Artist string `json:"artist" validate:"required"`

	// Title is the record title.
	Title string `json:"title" validate:"required"`

	// Year is the release year. Zero means unknown.
	Year Year `json:"year"`

	// Label is the record label, if known.
	Label string `json:"label,omitempty"`

	// CoverImageURL is the cover art reference shipped with the collection.
	// It may be absolute (http...) or relative (/covers/x.jpg).
	CoverImageURL string `json:"coverImageUrl,omitempty"`

	// Tracks lists the record's tracks in playing order.
	Tracks []Track `json:"tracks" validate:"dive"`
}

// Track is a single track on a record. Tracks have no identity of their
// own; their position in Record.Tracks is significant.
type Track struct {
	Title    string `json:"title" validate:"required"`
	Duration string `json:"duration,omitempty"`
}

// HasCover reports whether the record ships its own cover reference.
func (r *Record) HasCover() bool {
	return strings.TrimSpace(r.CoverImageURL) != ""
}

// String returns a human-readable "Artist - Title" description.
func (r *Record) String() string {
	if r.Artist == "" {
		return r.Title
	}
	return r.Artist + " - " + r.Title
}

// Year is a release year that decodes from either a JSON number or a
// quoted string, since hand-maintained collections use both.
type Year int

// UnmarshalJSON implements json.Unmarshaler.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*y = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid year %q: %w", s, err)
		}
		*y = Year(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid year %s: %w", data, err)
	}
	*y = Year(n)
	return nil
}

// String formats the year, or returns an empty string when unknown.
func (y Year) String() string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(int(y))
}

// Collection is the ordered list of records loaded from the collection
// document.
type Collection struct {
	Records []*Record
	byID    map[string]int
}

// NewCollection creates a Collection and indexes it by record ID.
// Later duplicates do not replace the first occurrence in the index.
func NewCollection(records []*Record) *Collection {
	c := &Collection{
		Records: records,
		byID:    make(map[string]int, len(records)),
	}
	for i, r := range records {
		if _, ok := c.byID[r.ID]; !ok {
			c.byID[r.ID] = i
		}
	}
	return c
}

// Len returns the number of records.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// At returns the record at index i, or nil when out of range.
func (c *Collection) At(i int) *Record {
	if c == nil || i < 0 || i >= len(c.Records) {
		return nil
	}
	return c.Records[i]
}

// ByID returns the record with the given ID and its index.
func (c *Collection) ByID(id string) (*Record, int, bool) {
	if c == nil {
		return nil, -1, false
	}
	i, ok := c.byID[id]
	if !ok {
		return nil, -1, false
	}
	return c.Records[i], i, true
}
