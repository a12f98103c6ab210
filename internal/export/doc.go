// Package export writes the cover art of a collection to a folder.
//
// # Manager
//
// For every record the Manager:
//
//  1. Resolves the cover URL through a cover.Resolver
//  2. Downloads it, or reads it from the local asset folder
//  3. Shrinks it to the configured size and re-encodes it as JPEG
//  4. Writes it as "<directory>/<file name format>.jpg"
//
// # Basic Usage
//
//	manager := export.NewManager(settings, resolver, client, func(event export.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	summary, err := manager.Export(ctx, coll.Records)
//
// # Concurrency
//
// Records are exported in parallel, at most settings.Export.MaxConcurrent
// at a time. A failed record does not stop the others.
//
// # Retry Logic
//
// Failed downloads are retried with exponential backoff, configurable via
// settings.Export.MaxRetries, RetryCooldown and RetryExponent.
package export
