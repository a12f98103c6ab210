// Package http provides the HTTP client used to fetch the collection
// document, cover art and remote cover lookups.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Typed status errors (*StatusError) for non-2xx responses
//   - JSON decoding
//   - Timeout handling
//
// # Basic Usage
//
//	client := http.NewClient(http.WithTimeout(10 * time.Second))
//
//	// Fetch raw bytes
//	data, err := client.Get(ctx, "https://example.com/cover.jpg")
//
//	// Decode JSON
//	var records []model.Record
//	err = client.GetJSON(ctx, collectionURL, &records)
//
// # Status Errors
//
//	var statusErr *http.StatusError
//	if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
//	    // not found
//	}
package http
