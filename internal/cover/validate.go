package cover

import "strings"

// IsValidImageURL reports whether url is an acceptable image reference:
// a non-blank string starting with "http", "/", "./" or "../".
//
// No scheme or host validation is done; "httpfoo" passes.
func IsValidImageURL(url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}

	return strings.HasPrefix(url, "http") ||
		strings.HasPrefix(url, "/") ||
		strings.HasPrefix(url, "./") ||
		strings.HasPrefix(url, "../")
}

// IsValidImageValue applies IsValidImageURL to a decoded JSON value.
// Non-string values are invalid.
func IsValidImageValue(v any) bool {
	s, ok := v.(string)
	return ok && IsValidImageURL(s)
}
