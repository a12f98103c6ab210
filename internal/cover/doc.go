// Package cover resolves and caches album cover image URLs.
//
// The Cache holds a map of record ID to cover URL, hydrated once from a
// store.Store at startup and written back on a debounce. Every URL it
// accepts passes IsValidImageURL. A Resolver fills the cache, trying the
// record's own URL, an optional remote Source such as ITunesSource, and
// finally the default cover.
package cover
