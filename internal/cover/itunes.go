package cover

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/handiism/vinyl-stack/internal/http"
	"github.com/handiism/vinyl-stack/internal/model"
	"golang.org/x/time/rate"
)

const iTunesSearchURL = "https://itunes.apple.com/search"

var bracketed = regexp.MustCompile(`\s*[\[(].*?[\])]`)

// ITunesSource looks up album artwork through the iTunes Search API.
// Requests are rate limited.
type ITunesSource struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	country string
	artSize string
}

var _ Source = (*ITunesSource)(nil)

// NewITunesSource creates an ITunesSource allowing rps requests per second.
func NewITunesSource(client *http.Client, rps float64, country string) *ITunesSource {
	if rps <= 0 {
		rps = 1
	}
	return &ITunesSource{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		baseURL: iTunesSearchURL,
		country: country,
		artSize: "600x600bb",
	}
}

type iTunesResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		ArtworkURL100 string `json:"artworkUrl100"`
		ArtworkURL60  string `json:"artworkUrl60"`
	} `json:"results"`
}

func (s *ITunesSource) Lookup(ctx context.Context, rec *model.Record) (string, error) {
	term := strings.TrimSpace(cleanTerm(rec.Artist) + " " + cleanTerm(rec.Title))
	if term == "" {
		return "", ErrNoCover
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("term", term)
	q.Set("entity", "album")
	q.Set("limit", "1")
	if s.country != "" {
		q.Set("country", s.country)
	}

	var resp iTunesResponse
	if err := s.client.GetJSON(ctx, s.baseURL+"?"+q.Encode(), &resp); err != nil {
		return "", fmt.Errorf("itunes search: %w", err)
	}

	if resp.ResultCount == 0 || len(resp.Results) == 0 {
		return "", ErrNoCover
	}

	artwork := resp.Results[0].ArtworkURL100
	if artwork == "" {
		artwork = resp.Results[0].ArtworkURL60
	}
	if artwork == "" {
		return "", ErrNoCover
	}

	// Thumbnails are served at any size by rewriting the dimension suffix.
	artwork = strings.Replace(artwork, "100x100bb", s.artSize, 1)
	artwork = strings.Replace(artwork, "60x60bb", s.artSize, 1)
	return artwork, nil
}

func cleanTerm(s string) string {
	s = bracketed.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.Join(strings.Fields(s), " ")
}
