// Package bodycache lets routes opt into whole-body buffering of their
// requests.
//
// A route whose id is enabled in the Registry gets its request body read
// once into a Buffer by the AdaptFilter. Every later stage, and the
// upstream round trip, reads a replay of that buffer instead of the
// original stream. The ReleaseFilter runs first in every chain and
// releases the buffer when the request settles, however it settles.
//
// A Buffer is released exactly once. Release is safe to call any number
// of times from any goroutine; only the first call has an effect.
package bodycache
