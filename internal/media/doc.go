// Package media resolves media references into renderable resources and
// owns the lifetime of the bytes it fetches.
//
// Absolute http(s) refs are passed through untouched: no request is made and
// no local buffer is created. Relative refs are mapped onto the upload
// namespace, fetched through an Opener (which attaches the bearer token when
// one is available) and materialised into a Handle with a local
// "blob:fieldview/<uuid>" URL.
//
// A Handle is owned by whoever received it from Resolve and must be released
// exactly once on every path that stops using it. Release is idempotent so
// teardown code can walk every slot without tracking what was already freed.
// The Registry counts created and released handles for leak checks.
//
// Failures are returned as *Error with a Kind (unauthorized, not found,
// fetch failed, network, display). Only a confirmed 404 is not retryable.
package media
