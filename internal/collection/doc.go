// Package collection loads the vinyl collection document.
//
// A Loader fetches from a Source exactly once, shares the fetch between
// concurrent callers and remembers the outcome. Load errors are never
// retried; restart the process to try again.
package collection
