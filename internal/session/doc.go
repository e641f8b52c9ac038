// Package session keeps the state of an interactive cartoonizing session.
//
// A Session tracks the selected source image, the current parameters and the
// last good render. Callers may issue renders from any goroutine: each new
// request cancels the one in flight, and only the most recent request can
// replace the current result. The source is decoded from disk on every
// render, so edits to the file are always picked up.
package session
