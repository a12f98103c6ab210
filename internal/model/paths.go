package model

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// CoverPathConfig holds path formatting settings for exported cover art.
//
// The FileNameFormat supports placeholders that are replaced with the
// record's values:
//   - {id} - Record ID
//   - {artist} - Artist name
//   - {title} - Record title
//   - {year} - Release year (empty when unknown)
//   - {label} - Record label (empty when unknown)
//
// Example configuration:
//
//	cfg := &CoverPathConfig{
//	    Directory:      "/home/user/Pictures/vinyl",
//	    FileNameFormat: "{artist} - {title}",
//	}
type CoverPathConfig struct {
	// Directory is where exported covers are written.
	Directory string

	// FileNameFormat is the filename template, without extension.
	FileNameFormat string
}

// CoverPath computes the export path for a record's cover art.
//
// Invalid filename characters are replaced with underscores and the path
// is truncated if it would exceed Windows path length limits.
func (r *Record) CoverPath(cfg *CoverPathConfig, ext string) string {
	fileName := r.parseCoverFileName(cfg)
	if fileName == "" {
		fileName = sanitizeFileName(r.ID)
	}
	coverPath := filepath.Join(cfg.Directory, fileName+ext)

	// Limit total path length for Windows compatibility
	if len(coverPath) >= 260 {
		maxLen := 259 - len(cfg.Directory) - 1 - len(ext)
		if maxLen > 0 && maxLen < len(fileName) {
			coverPath = filepath.Join(cfg.Directory, truncateUTF8(fileName, maxLen)+ext)
		}
	}

	return coverPath
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// parseCoverFileName computes the cover filename from the config template.
func (r *Record) parseCoverFileName(cfg *CoverPathConfig) string {
	fileName := cfg.FileNameFormat
	fileName = strings.ReplaceAll(fileName, "{id}", r.ID)
	fileName = strings.ReplaceAll(fileName, "{year}", r.Year.String())
	fileName = strings.ReplaceAll(fileName, "{label}", r.Label)
	fileName = strings.ReplaceAll(fileName, "{artist}", r.Artist)
	fileName = strings.ReplaceAll(fileName, "{title}", r.Title)
	return sanitizeFileName(fileName)
}

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots     = regexp.MustCompile(`\.+$`)
	repeatedSpace    = regexp.MustCompile(`\s+`)
)

// sanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Surrounding whitespace is removed
//
// Example:
//
//	sanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
func sanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
